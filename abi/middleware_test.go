package abi

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

type captured struct {
	method string
	params []any
	calls  int
}

func capturing(c *captured, result any) rpc.RequestFunc {
	return func(_ context.Context, method string, params []any) (*rpc.Response, error) {
		c.method, c.params = method, params
		c.calls++
		return &rpc.Response{Result: result}, nil
	}
}

func newFormatted(t *testing.T, transport rpc.RequestFunc) *onion.Onion {
	t.Helper()
	o, err := onion.New(transport, onion.Layer{Name: "abi", Middleware: RequestFormatter(nil, nil)})
	require.NoError(t, err)
	return o
}

func TestRequestFormatter_Positional(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, "0x0"))

	_, err := o.Request(context.Background(), "eth_getBalance", []any{testAddr, "latest"})
	require.NoError(t, err)
	assert.Equal(t, []any{testAddr.Hex(), "latest"}, c.params)
}

func TestRequestFormatter_ShortAndLongParams(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, "0x0"))

	_, err := o.Request(context.Background(), "eth_getStorageAt", []any{testAddr})
	require.NoError(t, err)
	assert.Equal(t, []any{testAddr.Hex()}, c.params)

	_, err = o.Request(context.Background(), "eth_getTransactionReceipt", []any{[]byte{0xab}, "extra"})
	require.NoError(t, err)
	assert.Equal(t, []any{"0xab", "extra"}, c.params)
}

func TestRequestFormatter_TransactionObject(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, "0x1"))

	tx := map[string]any{
		"from":   testAddr,
		"value":  big.NewInt(10),
		"gas":    21000,
		"data":   []byte{1},
		"custom": 1,
	}
	_, err := o.Request(context.Background(), "eth_sendTransaction", []any{tx})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"from":   testAddr.Hex(),
		"value":  "0xa",
		"gas":    "0x5208",
		"data":   "0x01",
		"custom": 1,
	}, c.params[0])
	assert.Equal(t, testAddr, tx["from"], "caller's map is not modified")
}

func TestRequestFormatter_FilterAddress(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, []any{}))
	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"

	_, err := o.Request(context.Background(), "eth_getLogs", []any{map[string]any{"address": lower}})
	require.NoError(t, err)
	assert.Equal(t, lower, c.params[0].(map[string]any)["address"])

	_, err = o.Request(context.Background(), "eth_getLogs", []any{map[string]any{"address": []any{testAddr}}})
	require.NoError(t, err)
	assert.Equal(t, []any{testAddr.Hex()}, c.params[0].(map[string]any)["address"])
}

func TestRequestFormatter_Passthrough(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, "0x1"))

	type callArgs struct{ To string }
	params := []any{callArgs{To: "0x01"}, "latest"}
	_, err := o.Request(context.Background(), "eth_call", params)
	require.NoError(t, err)
	assert.Equal(t, params, c.params)

	_, err = o.Request(context.Background(), "web3_clientVersion", []any{})
	require.NoError(t, err)
	assert.Equal(t, []any{}, c.params)
}

func TestRequestFormatter_InvalidParamsNeverSent(t *testing.T) {
	var c captured
	o := newFormatted(t, capturing(&c, "0x0"))

	_, err := o.Request(context.Background(), "eth_getBalance", []any{"not-an-address", "latest"})
	assert.ErrorIs(t, err, rpc.ErrValidation)
	assert.Zero(t, c.calls)
}

func TestPoAMiddleware(t *testing.T) {
	block := map[string]any{"number": "0x1", "extraData": "0xd883"}
	var c captured
	o, err := onion.New(capturing(&c, block), onion.Layer{Name: "poa", Middleware: PoAMiddleware()})
	require.NoError(t, err)

	resp, err := o.Request(context.Background(), "eth_getBlockByNumber", []any{"0x1", false})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"number": "0x1", "proofOfAuthorityData": "0xd883"}, resp.Result)
	assert.Contains(t, block, "extraData", "upstream result is not modified")

	resp, err = o.Request(context.Background(), "eth_chainId", nil)
	require.NoError(t, err)
	assert.Equal(t, block, resp.Result)
}

func TestPoAExtraData_BadHex(t *testing.T) {
	_, err := PoAExtraData(map[string]any{"extraData": "zz"})
	assert.ErrorIs(t, err, rpc.ErrValidation)
}

func TestResultFormatter_SkipsErrorsAndNull(t *testing.T) {
	calls := 0
	format := map[string]ResultFormatterFunc{
		"eth_getBlockByHash": func(any) (any, error) {
			calls++
			return "formatted", nil
		},
	}
	rpcErr := &rpc.Response{Error: &rpc.Error{Code: -32000, Message: "unknown block"}}
	transport := func(_ context.Context, _ string, params []any) (*rpc.Response, error) {
		if len(params) > 0 {
			return rpcErr, nil
		}
		return &rpc.Response{}, nil
	}
	o, err := onion.New(transport, onion.Layer{Name: "fmt", Middleware: ResultFormatter(format)})
	require.NoError(t, err)

	resp, err := o.Request(context.Background(), "eth_getBlockByHash", []any{"0x00"})
	require.NoError(t, err)
	assert.Same(t, rpcErr, resp)

	resp, err = o.Request(context.Background(), "eth_getBlockByHash", []any{})
	require.NoError(t, err)
	assert.Nil(t, resp.Result)
	assert.Zero(t, calls)
}
