package txn

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/abi"
	"github.com/jonwraymond/rpcops/rpc"
)

// TxArgs are the arguments of eth_sendTransaction. Nil fields are omitted
// and left for the node or a filling helper to decide.
type TxArgs struct {
	From     *common.Address `json:"from,omitempty"`
	To       *common.Address `json:"to,omitempty"`
	Gas      *hexutil.Uint64 `json:"gas,omitempty"`
	GasPrice *hexutil.Big    `json:"gasPrice,omitempty"`
	Value    *hexutil.Big    `json:"value,omitempty"`
	Nonce    *hexutil.Uint64 `json:"nonce,omitempty"`
	Data     *hexutil.Bytes  `json:"data,omitempty"`
	ChainID  *hexutil.Big    `json:"chainId,omitempty"`
}

// Transaction is a transaction as reported by eth_getTransactionByHash.
type Transaction struct {
	Hash        common.Hash     `json:"hash"`
	Nonce       hexutil.Uint64  `json:"nonce"`
	GasPrice    *hexutil.Big    `json:"gasPrice"`
	BlockHash   *common.Hash    `json:"blockHash"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Gas         hexutil.Uint64  `json:"gas"`
	Value       *hexutil.Big    `json:"value"`
	Input       hexutil.Bytes   `json:"input"`
	Data        hexutil.Bytes   `json:"data,omitempty"`
	ChainID     *hexutil.Big    `json:"chainId,omitempty"`
}

// Mined reports whether the node placed the transaction in a block.
// A block hash is the only signal; a later reorg is not detected.
func (t *Transaction) Mined() bool { return t.BlockHash != nil }

// Receipt is the subset of eth_getTransactionReceipt used here.
type Receipt struct {
	TransactionHash   common.Hash     `json:"transactionHash"`
	BlockHash         *common.Hash    `json:"blockHash"`
	BlockNumber       *hexutil.Big    `json:"blockNumber"`
	Status            hexutil.Uint64  `json:"status"`
	GasUsed           hexutil.Uint64  `json:"gasUsed"`
	CumulativeGasUsed hexutil.Uint64  `json:"cumulativeGasUsed"`
	ContractAddress   *common.Address `json:"contractAddress"`
}

// GetTransaction fetches a transaction by hash. A null result is a
// NotFoundError.
func GetTransaction(ctx context.Context, client rpc.Requester, hash common.Hash) (*Transaction, error) {
	var tx *Transaction
	if err := rpc.Call(ctx, client, &tx, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &rpc.NotFoundError{Kind: "transaction", ID: hash.Hex()}
	}
	return tx, nil
}

// GetReceipt fetches the receipt of a transaction. A null result is a
// NotFoundError.
func GetReceipt(ctx context.Context, client rpc.Requester, hash common.Hash) (*Receipt, error) {
	var r *Receipt
	if err := rpc.Call(ctx, client, &r, "eth_getTransactionReceipt", hash); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, &rpc.NotFoundError{Kind: "receipt", ID: hash.Hex()}
	}
	return r, nil
}

// SendTransaction submits args with eth_sendTransaction.
func SendTransaction(ctx context.Context, client rpc.Requester, args TxArgs) (common.Hash, error) {
	var hash common.Hash
	err := rpc.Call(ctx, client, &hash, "eth_sendTransaction", args)
	return hash, err
}

// argsFromParam reads the transaction object of an eth_sendTransaction call.
// Maps are normalized with the transaction schema before decoding, so plain
// Go numbers and binary addresses are accepted.
func argsFromParam(p any) (TxArgs, bool, error) {
	switch v := p.(type) {
	case TxArgs:
		return v, true, nil
	case *TxArgs:
		if v == nil {
			return TxArgs{}, false, nil
		}
		return *v, true, nil
	case map[string]any:
		schema := abi.DefaultRPCSchemas()["eth_sendTransaction"]
		formatted, err := schema.FormatParams(abi.DefaultNormalizers(), []any{v})
		if err != nil {
			return TxArgs{}, false, err
		}
		var args TxArgs
		if err := rpc.DecodeResult(formatted[0], &args); err != nil {
			return TxArgs{}, false, rpc.Validationf("txn", "transaction object: %v", err)
		}
		return args, true, nil
	}
	return TxArgs{}, false, nil
}

func bigOf(b *hexutil.Big) *big.Int {
	if b == nil {
		return nil
	}
	return b.ToInt()
}

func hexBig(n *big.Int) *hexutil.Big {
	return (*hexutil.Big)(new(big.Int).Set(n))
}

func hexUint(n uint64) *hexutil.Uint64 {
	v := hexutil.Uint64(n)
	return &v
}

// withParam returns a copy of params with params[0] replaced.
func withParam(params []any, p any) []any {
	out := make([]any, len(params))
	copy(out, params)
	out[0] = p
	return out
}
