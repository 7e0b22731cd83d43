package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"syscall"
	"testing"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
)

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind TransientKind
		want bool
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout, true},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), KindTimeout, true},
		{"refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, KindConnection, true},
		{"url", &url.Error{Op: "Post", URL: "http://node", Err: errors.New("eof")}, KindConnection, true},
		{"http status", gethrpc.HTTPError{StatusCode: 502, Status: "502 Bad Gateway"}, KindHTTP, true},
		{"redirects", errors.New(`Post "http://node": stopped after 10 redirects`), KindTooManyRedirects, true},
		{"canceled", context.Canceled, 0, false},
		{"plain", errors.New("invalid character"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyTransportError(tt.err)
			assert.Equal(t, tt.want, IsTransient(got))
			if !tt.want {
				assert.Same(t, tt.err, got)
				return
			}
			var te *TransientError
			if assert.True(t, errors.As(got, &te)) {
				assert.Equal(t, tt.kind, te.Kind)
			}
			assert.Equal(t, tt.err, errors.Unwrap(got))
		})
	}
}

func TestClassifyTransportError_Idempotent(t *testing.T) {
	first := ClassifyTransportError(context.DeadlineExceeded)
	assert.Same(t, first, ClassifyTransportError(first))
	assert.Nil(t, ClassifyTransportError(nil))
}

func TestRPCErrorIsNotTransient(t *testing.T) {
	var err error = &Error{Code: -32601, Message: "method not found"}
	assert.False(t, IsTransient(err))
	assert.Equal(t, "method not found", err.Error())

	var ethErr gethrpc.Error
	assert.True(t, errors.As(err, &ethErr))
	assert.Equal(t, -32601, ethErr.ErrorCode())
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	assert.ErrorIs(t, Validationf("inject", "index %d out of range", 9), ErrValidation)
	assert.ErrorIs(t, &NotFoundError{Kind: "receipt", ID: "0x01"}, ErrNotFound)

	last := &NotFoundError{Kind: "receipt", ID: "0x01"}
	te := &TimeoutExhaustedError{What: "receipt 0x01", Timeout: time.Second, Last: last}
	assert.ErrorIs(t, te, ErrTimeoutExhausted)
	assert.NotErrorIs(t, te, ErrNotFound)
	assert.Same(t, last, te.Last)
}
