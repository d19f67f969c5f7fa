package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordJudgeCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJudgeCall(ctx, "glm", "ok", 0.8)
	m.RecordJudgeCall(ctx, "glm", "ok", 1.2)
	m.RecordJudgeCall(ctx, "glm", "error", 30.0)

	rm := collect(t, reader)

	met := findMetric(rm, "soupbot.judge.requests")
	if met == nil {
		t.Fatal("soupbot.judge.requests not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("soupbot.judge.requests is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "status" && kv.Value.AsString() == "ok" {
				if dp.Value != 2 {
					t.Errorf("ok counter = %d, want 2", dp.Value)
				}
			}
		}
	}

	dur := findMetric(rm, "soupbot.judge.duration")
	if dur == nil {
		t.Fatal("soupbot.judge.duration not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("soupbot.judge.duration is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no duration data points")
	}
	if got := hist.DataPoints[0].Count; got != 3 {
		t.Errorf("duration sample count = %d, want 3", got)
	}
}

func TestRecordJudgeError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJudgeError(ctx, "glm", "transport")
	m.RecordJudgeError(ctx, "glm", "transport")
	m.RecordJudgeError(ctx, "glm", "protocol")

	rm := collect(t, reader)
	met := findMetric(rm, "soupbot.judge.errors")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}

	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "kind" && kv.Value.AsString() == "transport" {
				if dp.Value != 2 {
					t.Errorf("transport counter = %d, want 2", dp.Value)
				}
				return
			}
		}
	}
	t.Error("data point with kind=transport not found")
}

func TestTurnCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.TurnsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "judged")))
	m.TurnsSubmitted.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "canned")))
	m.RepliesRevealed.Add(ctx, 1)
	m.RoundsStarted.Add(ctx, 1)

	rm := collect(t, reader)
	for _, name := range []string{"soupbot.turns.submitted", "soupbot.replies.revealed", "soupbot.rounds.started"} {
		if findMetric(rm, name) == nil {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestHTTPRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.HTTPRequestDuration.Record(ctx, 0.05,
		metric.WithAttributes(
			attribute.String("method", "GET"),
			attribute.String("path", "/healthz"),
		),
	)

	rm := collect(t, reader)
	met := findMetric(rm, "soupbot.http.request.duration")
	if met == nil {
		t.Fatal("metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("metric is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if got := hist.DataPoints[0].Count; got != 1 {
		t.Errorf("sample count = %d, want 1", got)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}
