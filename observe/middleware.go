package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// Middleware records a span, metrics and a log line around every call.
//
// The wrapped response and error pass through unchanged. A response carrying
// a JSON-RPC error object is recorded as a failed call.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if logger == nil {
		logger = NewLogger(nil)
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Wrap instruments next.
func (m *Middleware) Wrap(next rpc.RequestFunc) rpc.RequestFunc {
	return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
		meta := NewCallMeta(method)
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		resp, err := next(ctx, method, params)

		duration := time.Since(start)
		failure := err
		if failure == nil && resp != nil {
			failure = resp.Err()
		}

		m.tracer.EndSpan(span, failure)
		m.metrics.RecordCall(ctx, meta, duration, failure)

		log := m.logger.WithCall(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
			{Key: "param_count", Value: len(params)},
		}
		switch {
		case err != nil:
			log.Error(ctx, "rpc call failed", append(fields, Field{Key: "error", Value: err})...)
		case failure != nil:
			log.Warn(ctx, "rpc call returned error", append(fields, Field{Key: "error", Value: failure})...)
		default:
			log.Debug(ctx, "rpc call completed", fields...)
		}
		return resp, err
	}
}

// Stage returns m as an onion middleware.
func (m *Middleware) Stage() onion.Middleware {
	return func(onion.Client) onion.Wrapper {
		return m.Wrap
	}
}
