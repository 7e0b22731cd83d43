package client_test

import (
	"context"
	"fmt"

	"github.com/jonwraymond/rpcops/client"
	"github.com/jonwraymond/rpcops/rpc"
)

func ExampleNew() {
	node := rpc.TransportFunc(func(_ context.Context, method string, _ []any) (*rpc.Response, error) {
		return &rpc.Response{Result: "0x539"}, nil
	})

	m, err := client.New(node)
	if err != nil {
		panic(err)
	}
	defer m.Close()

	var chainID string
	if err := m.Call(context.Background(), &chainID, "eth_chainId"); err != nil {
		panic(err)
	}
	fmt.Println(m.Onion().Names(), chainID)
	// Output: [gas_price_strategy abi retry] 0x539
}
