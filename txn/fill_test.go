package txn

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rpcops/rpc"
)

func TestFillNonce(t *testing.T) {
	node := newFakeNode().result("eth_getTransactionCount", "0x7")

	got, err := FillNonce(context.Background(), node, TxArgs{From: &sender})
	require.NoError(t, err)
	assert.Equal(t, hexutil.Uint64(7), *got.Nonce)
	assert.Equal(t, []any{sender.Hex(), "pending"}, node.lastParams("eth_getTransactionCount"))

	got, err = FillNonce(context.Background(), node, TxArgs{From: &sender, Nonce: hexUint(2)})
	require.NoError(t, err)
	assert.Equal(t, hexutil.Uint64(2), *got.Nonce)

	_, err = FillNonce(context.Background(), node, TxArgs{})
	require.NoError(t, err)
	assert.Equal(t, 1, node.count("eth_getTransactionCount"))
}

func TestFillDefaults(t *testing.T) {
	node := newFakeNode().
		result("eth_estimateGas", "0x5208").
		result("eth_gasPrice", "0x2").
		result("net_version", "1337")

	got, err := FillDefaults(context.Background(), node, nil, TxArgs{From: &sender, To: &recipient})
	require.NoError(t, err)

	assert.Equal(t, int64(0), got.Value.ToInt().Int64())
	assert.Empty(t, *got.Data)
	assert.Equal(t, hexutil.Uint64(21000), *got.Gas)
	assert.Equal(t, int64(2), got.GasPrice.ToInt().Int64())
	assert.Equal(t, int64(1337), got.ChainID.ToInt().Int64())

	estimated := node.lastParams("eth_estimateGas")[0].(TxArgs)
	assert.Nil(t, estimated.Value, "estimate sees the args as given")
}

func TestFillDefaults_UsesStrategyFirst(t *testing.T) {
	node := newFakeNode().result("net_version", "1")

	got, err := FillDefaults(context.Background(), node, FixedGasPriceStrategy(big.NewInt(9)), TxArgs{Gas: hexUint(21000)})
	require.NoError(t, err)

	assert.Equal(t, int64(9), got.GasPrice.ToInt().Int64())
	assert.Zero(t, node.count("eth_gasPrice"))
	assert.Zero(t, node.count("eth_estimateGas"))
}

func TestFillDefaults_BadNetVersion(t *testing.T) {
	node := newFakeNode().result("net_version", "mainnet")

	_, err := FillDefaults(context.Background(), node, nil, TxArgs{Gas: hexUint(1), GasPrice: price(1)})
	assert.Error(t, err)
}

func TestBufferedGasEstimate(t *testing.T) {
	block := map[string]any{"number": "0x10", "gasLimit": hexutil.EncodeUint64(8_000_000)}

	tests := []struct {
		name     string
		estimate uint64
		want     uint64
	}{
		{"adds buffer", 21000, 121000},
		{"capped at limit", 7_950_000, 8_000_000},
		{"exactly limit", 8_000_000, 8_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := newFakeNode().
				result("eth_estimateGas", hexutil.EncodeUint64(tt.estimate)).
				result("eth_getBlockByNumber", block)

			got, err := BufferedGasEstimate(context.Background(), node, TxArgs{}, DefaultGasBuffer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBufferedGasEstimate_OverLimit(t *testing.T) {
	node := newFakeNode().
		result("eth_estimateGas", hexutil.EncodeUint64(9_000_000)).
		result("eth_getBlockByNumber", map[string]any{"number": "0x10", "gasLimit": hexutil.EncodeUint64(8_000_000)})

	_, err := BufferedGasEstimate(context.Background(), node, TxArgs{}, DefaultGasBuffer)
	assert.ErrorIs(t, err, ErrGasLimitExceeded)
}

func TestArgsFromTransaction(t *testing.T) {
	tx := pendingTx(4, 10)
	tx.To = &recipient
	tx.Gas = 21000
	tx.Value = price(5)
	tx.Input = hexutil.Bytes{0xca, 0xfe}

	args, err := ArgsFromTransaction(tx)
	require.NoError(t, err)
	assert.Equal(t, sender, *args.From)
	assert.Equal(t, hexutil.Bytes{0xca, 0xfe}, *args.Data)
	assert.Equal(t, hexutil.Uint64(4), *args.Nonce)
	assert.Equal(t, int64(10), args.GasPrice.ToInt().Int64())

	tx.Data = hexutil.Bytes{0xca, 0xfe}
	_, err = ArgsFromTransaction(tx)
	require.NoError(t, err)

	tx.Data = hexutil.Bytes{0x01}
	_, err = ArgsFromTransaction(tx)
	assert.ErrorIs(t, err, rpc.ErrValidation)
}
