package oracle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/glzhang/soupbot/internal/observe"
	"github.com/glzhang/soupbot/internal/puzzle"
)

// Instrument wraps a Judge with metrics and tracing. The adapter itself
// stays a pure boundary client; all telemetry lives in this decorator.
// backend names the wrapped implementation ("glm", "anyllm", ...).
func Instrument(next Judge, backend string, m *observe.Metrics) Judge {
	return &instrumented{next: next, backend: backend, metrics: m}
}

type instrumented struct {
	next    Judge
	backend string
	metrics *observe.Metrics
}

func (j *instrumented) Judge(ctx context.Context, userText string, p puzzle.Puzzle, history []Exchange) (Verdict, error) {
	ctx, span := observe.StartSpan(ctx, "oracle.judge",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("backend", j.backend),
			attribute.Int("history_len", len(history)),
		),
	)
	defer span.End()

	start := time.Now()
	verdict, err := j.next.Judge(ctx, userText, p, history)
	elapsed := time.Since(start).Seconds()

	switch {
	case err == nil:
		span.SetAttributes(attribute.String("verdict", verdict.Kind.String()))
		j.metrics.RecordJudgeCall(ctx, j.backend, "ok", elapsed)
	case IsProtocol(err):
		span.SetStatus(codes.Error, err.Error())
		j.metrics.RecordJudgeCall(ctx, j.backend, "error", elapsed)
		j.metrics.RecordJudgeError(ctx, j.backend, "protocol")
	default:
		span.SetStatus(codes.Error, err.Error())
		j.metrics.RecordJudgeCall(ctx, j.backend, "error", elapsed)
		j.metrics.RecordJudgeError(ctx, j.backend, "transport")
	}

	return verdict, err
}
