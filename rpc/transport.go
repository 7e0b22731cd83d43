package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Transport is the innermost stage: it moves one call to the node and back.
type Transport interface {
	Request(ctx context.Context, method string, params []any) (*Response, error)
	Close()
}

// TransportFunc adapts a function to Transport. Close is a no-op.
type TransportFunc func(ctx context.Context, method string, params []any) (*Response, error)

// Request calls f.
func (f TransportFunc) Request(ctx context.Context, method string, params []any) (*Response, error) {
	return f(ctx, method, params)
}

// Close does nothing.
func (TransportFunc) Close() {}

// EthTransport carries calls over a go-ethereum RPC client.
type EthTransport struct {
	client  *gethrpc.Client
	timeout time.Duration
}

// DialConfig configures Dial.
type DialConfig struct {
	// Endpoint is an http(s), ws(s) or IPC path understood by go-ethereum.
	Endpoint string

	// Timeout bounds each call when the caller's context has no deadline.
	// Zero means no per-call bound.
	Timeout time.Duration

	// Headers are added to every HTTP request.
	Headers http.Header

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// Dial connects to cfg.Endpoint.
func Dial(ctx context.Context, cfg DialConfig) (*EthTransport, error) {
	if cfg.Endpoint == "" {
		return nil, Validationf("dial", "endpoint is required")
	}
	var opts []gethrpc.ClientOption
	if cfg.HTTPClient != nil {
		opts = append(opts, gethrpc.WithHTTPClient(cfg.HTTPClient))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, gethrpc.WithHeaders(cfg.Headers))
	}
	c, err := gethrpc.DialOptions(ctx, cfg.Endpoint, opts...)
	if err != nil {
		return nil, ClassifyTransportError(err)
	}
	return &EthTransport{client: c, timeout: cfg.Timeout}, nil
}

// NewEthTransport wraps an existing client.
func NewEthTransport(c *gethrpc.Client, timeout time.Duration) *EthTransport {
	return &EthTransport{client: c, timeout: timeout}
}

// Request sends the call. A node-side error comes back as Response.Error;
// anything else is classified as a transport failure.
func (t *EthTransport) Request(ctx context.Context, method string, params []any) (*Response, error) {
	if t.timeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}
	}

	var raw json.RawMessage
	err := t.client.CallContext(ctx, &raw, method, params...)
	if err != nil {
		var rpcErr gethrpc.Error
		if errors.As(err, &rpcErr) {
			e := &Error{Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
			var dataErr gethrpc.DataError
			if errors.As(err, &dataErr) {
				e.Data = dataErr.ErrorData()
			}
			return &Response{Error: e}, nil
		}
		return nil, ClassifyTransportError(err)
	}

	resp := &Response{}
	if len(raw) == 0 || string(raw) == "null" {
		return resp, nil
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, err
	}
	resp.Result = result
	return resp, nil
}

// Close releases the underlying connection.
func (t *EthTransport) Close() {
	t.client.Close()
}
