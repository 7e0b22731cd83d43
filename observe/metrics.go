package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records per-call counters and latency.
type Metrics interface {
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	total    metric.Int64Counter
	errors   metric.Int64Counter
	duration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	total, err := meter.Int64Counter(
		"rpc.call.total",
		metric.WithDescription("Total number of JSON-RPC calls"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errs, err := meter.Int64Counter(
		"rpc.call.errors",
		metric.WithDescription("JSON-RPC calls that failed or returned an error object"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"rpc.call.duration_ms",
		metric.WithDescription("JSON-RPC call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{total: total, errors: errs, duration: duration}, nil
}

func (m *metricsImpl) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := meta.attributes()
	opt := metric.WithAttributes(attrs...)

	m.total.Add(ctx, 1, opt)
	if err != nil {
		m.errors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("rpc.error_kind", errorKind(err)))...))
	}
	m.duration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}
