package txn

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/rpcops/rpc"
)

type handler func(params []any) (any, error)

// fakeNode answers calls from per-method handlers and records them.
type fakeNode struct {
	mu       sync.Mutex
	handlers map[string]handler
	calls    []string
	params   map[string][]any
}

func newFakeNode() *fakeNode {
	return &fakeNode{handlers: map[string]handler{}, params: map[string][]any{}}
}

func (n *fakeNode) on(method string, h handler) *fakeNode {
	n.handlers[method] = h
	return n
}

func (n *fakeNode) result(method string, v any) *fakeNode {
	return n.on(method, func([]any) (any, error) { return v, nil })
}

func (n *fakeNode) Request(_ context.Context, method string, params []any) (*rpc.Response, error) {
	n.mu.Lock()
	n.calls = append(n.calls, method)
	n.params[method] = params
	h, ok := n.handlers[method]
	n.mu.Unlock()

	if !ok {
		return &rpc.Response{Error: &rpc.Error{Code: -32601, Message: fmt.Sprintf("method %s not found", method)}}, nil
	}
	v, err := h(params)
	if err != nil {
		return nil, err
	}
	return &rpc.Response{Result: v}, nil
}

func (n *fakeNode) count(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.calls {
		if m == method {
			c++
		}
	}
	return c
}

func (n *fakeNode) lastParams(method string) []any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.params[method]
}
