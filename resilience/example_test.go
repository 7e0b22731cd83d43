package resilience_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/resilience"
	"github.com/jonwraymond/rpcops/rpc"
)

func ExampleRetryMiddleware() {
	attempts := 0
	transport := func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
		attempts++
		if attempts < 3 {
			return nil, &rpc.TransientError{Kind: rpc.KindConnection, Err: errors.New("connection reset")}
		}
		return &rpc.Response{Result: "0x10"}, nil
	}

	o, _ := onion.New(transport, onion.Layer{
		Name:       "retry",
		Middleware: resilience.RetryMiddleware(resilience.RetryStageConfig{}),
	})

	resp, err := o.Request(context.Background(), "eth_blockNumber", []any{})
	fmt.Println(resp.Result, err, attempts)
	// Output:
	// 0x10 <nil> 3
}

func ExampleIsRetryable() {
	wl := resilience.DefaultRetryWhitelist()
	fmt.Println(resilience.IsRetryable("net_peerCount", wl))
	fmt.Println(resilience.IsRetryable("eth_sendTransaction", wl))
	// Output:
	// true
	// false
}

func ExampleStages() {
	for _, l := range resilience.Stages(
		resilience.WithRetry(resilience.RetryStageConfig{}),
		resilience.WithRateLimit(resilience.RateLimiterConfig{Rate: 50}),
	) {
		fmt.Println(l.Name)
	}
	// Output:
	// rate_limit
	// retry
}
