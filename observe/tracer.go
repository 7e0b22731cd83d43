package observe

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonwraymond/rpcops/rpc"
)

// CallMeta describes one JSON-RPC call for telemetry.
type CallMeta struct {
	Method    string // full method name, e.g. eth_getBalance
	Namespace string // prefix before the first underscore, e.g. eth
}

// NewCallMeta derives the namespace from method.
func NewCallMeta(method string) CallMeta {
	ns, _, found := strings.Cut(method, "_")
	if !found {
		ns = ""
	}
	return CallMeta{Method: method, Namespace: ns}
}

// SpanName returns rpc.call.<method>.
func (m CallMeta) SpanName() string {
	return "rpc.call." + m.Method
}

func (m CallMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.system", "jsonrpc"),
		attribute.String("rpc.method", m.Method),
	}
	if m.Namespace != "" {
		attrs = append(attrs, attribute.String("rpc.namespace", m.Namespace))
	}
	return attrs
}

// errorKind buckets err for span and metric attributes.
func errorKind(err error) string {
	var rpcErr *rpc.Error
	switch {
	case errors.As(err, &rpcErr):
		return "rpc"
	case rpc.IsTransient(err):
		return "transient"
	case errors.Is(err, rpc.ErrValidation):
		return "validation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "context"
	default:
		return "other"
	}
}

// Tracer manages the span of a single RPC call.
type Tracer interface {
	StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span)
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta CallMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(meta.attributes()...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan records err, if any, and ends the span.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		span.End()
		return
	}
	attrs := []attribute.KeyValue{attribute.String("rpc.error_kind", errorKind(err))}
	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		attrs = append(attrs, attribute.Int("rpc.jsonrpc.error_code", rpcErr.Code))
	}
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	span.End()
}
