// Package observe provides observability primitives for the soupbot
// interrogation engine: OpenTelemetry metrics, tracing around judge
// calls, and HTTP middleware for the ops listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A
// Prometheus exporter bridge is available via [InitProvider] so that
// metrics can be scraped via the standard /metrics endpoint. A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all soupbot metrics.
const meterName = "github.com/glzhang/soupbot"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types
// handle their own synchronisation.
type Metrics struct {
	// JudgeDuration tracks the latency of one oracle round trip.
	JudgeDuration metric.Float64Histogram

	// JudgeRequests counts oracle calls. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("status", ...)
	JudgeRequests metric.Int64Counter

	// JudgeErrors counts oracle failures. Use with attributes:
	//   attribute.String("backend", ...), attribute.String("kind", ...)
	// where kind is "transport" or "protocol".
	JudgeErrors metric.Int64Counter

	// TurnsSubmitted counts accepted player turns. Use with attribute:
	//   attribute.String("outcome", ...) — "canned", "judged",
	//   "terminated", "solved" or "failed".
	TurnsSubmitted metric.Int64Counter

	// RepliesRevealed counts replies whose playback ran to completion.
	RepliesRevealed metric.Int64Counter

	// RoundsStarted counts engine resets onto a fresh puzzle.
	RoundsStarted metric.Int64Counter

	// HTTPRequestDuration tracks ops-endpoint latency. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized
// for one LLM round trip.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.JudgeDuration, err = m.Float64Histogram("soupbot.judge.duration",
		metric.WithDescription("Latency of one oracle judge round trip."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.JudgeRequests, err = m.Int64Counter("soupbot.judge.requests",
		metric.WithDescription("Total oracle judge calls by backend and status."),
	); err != nil {
		return nil, err
	}
	if met.JudgeErrors, err = m.Int64Counter("soupbot.judge.errors",
		metric.WithDescription("Total oracle judge failures by backend and error kind."),
	); err != nil {
		return nil, err
	}
	if met.TurnsSubmitted, err = m.Int64Counter("soupbot.turns.submitted",
		metric.WithDescription("Total accepted player turns by outcome."),
	); err != nil {
		return nil, err
	}
	if met.RepliesRevealed, err = m.Int64Counter("soupbot.replies.revealed",
		metric.WithDescription("Total replies whose playback ran to completion."),
	); err != nil {
		return nil, err
	}
	if met.RoundsStarted, err = m.Int64Counter("soupbot.rounds.started",
		metric.WithDescription("Total rounds started via engine reset."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("soupbot.http.request.duration",
		metric.WithDescription("Ops HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen
// with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity
// at call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordJudgeCall records one oracle call with the standard attribute set.
func (m *Metrics) RecordJudgeCall(ctx context.Context, backend, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("status", status),
	)
	m.JudgeRequests.Add(ctx, 1, attrs)
	m.JudgeDuration.Record(ctx, seconds, metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordJudgeError records one oracle failure by error kind.
func (m *Metrics) RecordJudgeError(ctx context.Context, backend, kind string) {
	m.JudgeErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("backend", backend),
		attribute.String("kind", kind),
	))
}
