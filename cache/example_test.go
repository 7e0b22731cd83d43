package cache_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/rpcops/cache"
	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

func ExampleSimpleCache() {
	calls := 0
	transport := func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
		calls++
		return &rpc.Response{Result: "Geth/v1.14.12"}, nil
	}

	o, _ := onion.New(transport, onion.Layer{
		Name:       "simple_cache",
		Middleware: cache.SimpleCache(cache.SimpleConfig{}),
	})

	for i := 0; i < 3; i++ {
		resp, _ := o.Request(context.Background(), "web3_clientVersion", []any{})
		fmt.Println(resp.Result)
	}
	fmt.Println("transport calls:", calls)
	// Output:
	// Geth/v1.14.12
	// Geth/v1.14.12
	// Geth/v1.14.12
	// transport calls: 1
}

func ExampleDefaultKeyer_Key() {
	keyer := cache.NewDefaultKeyer()

	k1, _ := keyer.Key("eth_getLogs", []any{map[string]any{"fromBlock": "0x1", "toBlock": "0x2"}})
	k2, _ := keyer.Key("eth_getLogs", []any{map[string]any{"toBlock": "0x2", "fromBlock": "0x1"}})

	fmt.Println("same key:", k1 == k2)
	// Output:
	// same key: true
}
