package exporters

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracingExporter(t *testing.T) {
	ctx := context.Background()

	exp, err := NewTracingExporter(ctx, "stdout", Options{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.NotNil(t, exp)
	require.NoError(t, exp.Shutdown(ctx))

	exp, err = NewTracingExporter(ctx, "none", Options{})
	require.NoError(t, err)
	assert.Nil(t, exp)

	_, err = NewTracingExporter(ctx, "zipkin", Options{})
	assert.Error(t, err)
}

func TestNewTracingExporter_OTLPEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")
	ctx := context.Background()

	_, err := NewTracingExporter(ctx, "otlp", Options{})
	assert.ErrorIs(t, err, ErrEndpointNotConfigured)

	exp, err := NewTracingExporter(ctx, "otlp", Options{Endpoint: "localhost:4317", Insecure: true})
	require.NoError(t, err)
	assert.NotNil(t, exp)
	_ = exp.Shutdown(ctx)
}

func TestNewMetricsReader(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", "")
	ctx := context.Background()

	r, err := NewMetricsReader(ctx, "stdout", Options{Writer: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.NotNil(t, r)
	_ = r.Shutdown(ctx)

	r, err = NewMetricsReader(ctx, "", Options{})
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = NewMetricsReader(ctx, "otlp", Options{})
	assert.ErrorIs(t, err, ErrEndpointNotConfigured)

	_, err = NewMetricsReader(ctx, "statsd", Options{})
	assert.Error(t, err)
}
