package txn

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// senderKey is the private key of sender.
const senderKey = "289c2857d4598e37fb9647507e47a309d6133539bf21a8b9cb6df88fd5232032"

func TestNewAccount_KeyKinds(t *testing.T) {
	pk, err := crypto.HexToECDSA(senderKey)
	require.NoError(t, err)

	for name, k := range map[string]Key{
		"hex":          HexKey(senderKey),
		"prefixed hex": HexKey("0x" + senderKey),
		"raw":          RawKey(crypto.FromECDSA(pk)),
		"ecdsa":        ECDSAKey(pk),
	} {
		acct, err := NewAccount(k)
		require.NoError(t, err, name)
		assert.Equal(t, sender, acct.Address, name)
	}
}

func TestNewAccount_BadKeys(t *testing.T) {
	for _, k := range []Key{HexKey("zz"), RawKey([]byte{1}), ECDSAKey(nil), {Kind: KeyKind(9)}} {
		_, err := NewAccount(k)
		assert.ErrorIs(t, err, rpc.ErrValidation)
	}
}

func TestAccount_SignTx(t *testing.T) {
	acct, err := NewAccount(HexKey(senderKey))
	require.NoError(t, err)

	_, err = acct.SignTx(TxArgs{To: &recipient})
	assert.ErrorIs(t, err, rpc.ErrValidation)

	raw, err := acct.SignTx(TxArgs{
		To:       &recipient,
		Nonce:    hexUint(3),
		Gas:      hexUint(21000),
		GasPrice: price(2),
		Value:    price(5),
		ChainID:  price(1337),
	})
	require.NoError(t, err)

	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(raw))
	from, err := types.Sender(types.NewEIP155Signer(big.NewInt(1337)), &tx)
	require.NoError(t, err)
	assert.Equal(t, sender, from)
	assert.Equal(t, uint64(3), tx.Nonce())
	assert.Equal(t, recipient, *tx.To())
	assert.Equal(t, int64(5), tx.Value().Int64())
}

func TestSignAndSendRaw(t *testing.T) {
	node := newFakeNode().
		result("eth_getTransactionCount", "0x0").
		result("eth_estimateGas", "0x5208").
		result("eth_gasPrice", "0x1").
		result("net_version", "1337").
		result("eth_sendRawTransaction", "0x00000000000000000000000000000000000000000000000000000000000000aa").
		result("eth_sendTransaction", "0x00000000000000000000000000000000000000000000000000000000000000bb")

	mw, err := SignAndSendRaw(nil, HexKey(senderKey))
	require.NoError(t, err)
	o, err := onion.New(node.Request, onion.Layer{Name: "signing", Middleware: mw})
	require.NoError(t, err)

	resp, err := o.Request(context.Background(), "eth_sendTransaction", []any{TxArgs{From: &sender, To: &recipient, Value: price(1)}})
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000aa", resp.Result)
	assert.Zero(t, node.count("eth_sendTransaction"))

	raw := node.lastParams("eth_sendRawTransaction")[0].(string)
	var tx types.Transaction
	require.NoError(t, tx.UnmarshalBinary(hexutil.MustDecode(raw)))
	assert.Equal(t, uint64(21000), tx.Gas())
	assert.Equal(t, int64(1), tx.GasPrice().Int64())
	assert.Equal(t, int64(1337), tx.ChainId().Int64())
}

func TestSignAndSendRaw_OtherSenderPassesThrough(t *testing.T) {
	node := newFakeNode().result("eth_sendTransaction", "0x01")
	mw, err := SignAndSendRaw(nil, HexKey(senderKey))
	require.NoError(t, err)
	o, err := onion.New(node.Request, onion.Layer{Name: "signing", Middleware: mw})
	require.NoError(t, err)

	params := []any{TxArgs{From: &recipient}}
	_, err = o.Request(context.Background(), "eth_sendTransaction", params)
	require.NoError(t, err)
	assert.Equal(t, params, node.lastParams("eth_sendTransaction"))
	assert.Zero(t, node.count("eth_sendRawTransaction"))
}

func TestSignAndSendRaw_BadKey(t *testing.T) {
	_, err := SignAndSendRaw(nil, HexKey("not hex"))
	assert.ErrorIs(t, err, rpc.ErrValidation)
}
