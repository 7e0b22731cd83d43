package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Response is a JSON-RPC response as seen by a pipeline stage.
//
// Exactly one of Result or Error is meaningful. A nil Result with a nil Error
// is a successful call that returned JSON null.
type Response struct {
	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// Cacheable reports whether the response may be stored by a cache stage:
// a success carrying a non-null payload.
func (r *Response) Cacheable() bool {
	return r != nil && r.Error == nil && r.Result != nil
}

// Err returns the RPC error as a Go error, or nil on success.
func (r *Response) Err() error {
	if r == nil || r.Error == nil {
		return nil
	}
	return r.Error
}

// Error is a well-formed JSON-RPC error payload.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rpc: error %d", e.Code)
	}
	return e.Message
}

// ErrorCode returns the JSON-RPC error code.
func (e *Error) ErrorCode() int { return e.Code }

// ErrorData returns the optional error data.
func (e *Error) ErrorData() any { return e.Data }

// RequestFunc performs one call. It is the shape produced and consumed by
// every stage in the onion; the innermost one is the transport.
type RequestFunc func(ctx context.Context, method string, params []any) (*Response, error)

// Requester is anything that can issue a call through a pipeline.
type Requester interface {
	Request(ctx context.Context, method string, params []any) (*Response, error)
}

// RequesterFunc adapts a RequestFunc to the Requester interface.
type RequesterFunc RequestFunc

// Request calls f.
func (f RequesterFunc) Request(ctx context.Context, method string, params []any) (*Response, error) {
	return f(ctx, method, params)
}

// Call issues method through r and decodes the result into out.
// An RPC error response is returned as *Error. out may be nil.
func Call(ctx context.Context, r Requester, out any, method string, params ...any) error {
	if params == nil {
		params = []any{}
	}
	resp, err := r.Request(ctx, method, params)
	if err != nil {
		return err
	}
	if resp == nil {
		return fmt.Errorf("rpc: %s returned no response", method)
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return DecodeResult(resp.Result, out)
}

// DecodeResult converts a decoded JSON value into out by re-encoding it.
// Typed values (hexutil, common.Hash, ...) use their JSON codecs this way.
func DecodeResult(result any, out any) error {
	if raw, ok := result.(json.RawMessage); ok {
		return json.Unmarshal(raw, out)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("rpc: encode result: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("rpc: decode result: %w", err)
	}
	return nil
}
