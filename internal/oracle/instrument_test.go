package oracle_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/glzhang/soupbot/internal/observe"
	"github.com/glzhang/soupbot/internal/oracle"
	"github.com/glzhang/soupbot/internal/oracle/mock"
	"github.com/glzhang/soupbot/internal/puzzle"
)

func newInstrumentedJudge(t *testing.T, inner oracle.Judge) (oracle.Judge, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return oracle.Instrument(inner, "glm", m), reader
}

func counterValue(t *testing.T, reader *sdkmetric.ManualReader, name, attrKey, attrVal string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != name {
				continue
			}
			sum, ok := met.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %q is not a sum", name)
			}
			for _, dp := range sum.DataPoints {
				for _, kv := range dp.Attributes.ToSlice() {
					if string(kv.Key) == attrKey && kv.Value.AsString() == attrVal {
						return dp.Value
					}
				}
			}
		}
	}
	return 0
}

func TestInstrument_PassesThroughVerdict(t *testing.T) {
	t.Parallel()
	inner := &mock.Judge{Verdicts: []oracle.Verdict{{Kind: oracle.KindNo}}}
	j, reader := newInstrumentedJudge(t, inner)

	v, err := j.Judge(context.Background(), "他死了吗？", puzzle.Puzzle{Prompt: "a", Solution: "b"}, nil)
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if v.Kind != oracle.KindNo {
		t.Errorf("Kind = %v, want KindNo", v.Kind)
	}
	if inner.CallCount() != 1 {
		t.Errorf("inner call count = %d, want 1", inner.CallCount())
	}
	if got := counterValue(t, reader, "soupbot.judge.requests", "status", "ok"); got != 1 {
		t.Errorf("ok requests = %d, want 1", got)
	}
}

func TestInstrument_ClassifiesProtocolError(t *testing.T) {
	t.Parallel()
	inner := &mock.Judge{Err: &oracle.ProtocolError{Reason: "garbage body"}}
	j, reader := newInstrumentedJudge(t, inner)

	_, err := j.Judge(context.Background(), "q", puzzle.Puzzle{Prompt: "a", Solution: "b"}, nil)
	if !oracle.IsProtocol(err) {
		t.Fatalf("err = %v, want ProtocolError passed through", err)
	}
	if got := counterValue(t, reader, "soupbot.judge.errors", "kind", "protocol"); got != 1 {
		t.Errorf("protocol errors = %d, want 1", got)
	}
}

func TestInstrument_ClassifiesTransportError(t *testing.T) {
	t.Parallel()
	inner := &mock.Judge{Err: &oracle.TransportError{Err: context.DeadlineExceeded}}
	j, reader := newInstrumentedJudge(t, inner)

	_, err := j.Judge(context.Background(), "q", puzzle.Puzzle{Prompt: "a", Solution: "b"}, nil)
	if !oracle.IsTransport(err) {
		t.Fatalf("err = %v, want TransportError passed through", err)
	}
	if got := counterValue(t, reader, "soupbot.judge.errors", "kind", "transport"); got != 1 {
		t.Errorf("transport errors = %d, want 1", got)
	}
}
