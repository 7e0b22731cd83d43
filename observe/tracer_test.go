package observe

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonwraymond/rpcops/rpc"
)

func TestNewCallMeta(t *testing.T) {
	tests := []struct {
		method, namespace string
	}{
		{"eth_getBalance", "eth"},
		{"debug_traceTransaction", "debug"},
		{"web3_clientVersion", "web3"},
		{"ping", ""},
		{"_odd", ""},
	}
	for _, tt := range tests {
		meta := NewCallMeta(tt.method)
		assert.Equal(t, tt.namespace, meta.Namespace, tt.method)
		assert.Equal(t, "rpc.call."+tt.method, meta.SpanName())
	}
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "rpc", errorKind(&rpc.Error{Code: 3}))
	assert.Equal(t, "rpc", errorKind(fmt.Errorf("wrapped: %w", &rpc.Error{Code: 3})))
	assert.Equal(t, "transient", errorKind(&rpc.TransientError{Kind: rpc.KindTimeout}))
	assert.Equal(t, "validation", errorKind(rpc.Validationf("op", "bad")))
	assert.Equal(t, "context", errorKind(context.Canceled))
	assert.Equal(t, "other", errorKind(fmt.Errorf("x")))
}
