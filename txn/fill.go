package txn

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// DefaultGasBuffer is the headroom BufferedGasEstimate adds to an estimate.
const DefaultGasBuffer = 100000

// FillNonce sets the nonce of a transaction with a sender to the sender's
// pending transaction count. Args without a sender or with a nonce are
// returned as given.
func FillNonce(ctx context.Context, client onion.Client, args TxArgs) (TxArgs, error) {
	if args.From == nil || args.Nonce != nil {
		return args, nil
	}
	var nonce hexutil.Uint64
	if err := rpc.Call(ctx, client, &nonce, "eth_getTransactionCount", args.From.Hex(), rpc.BlockPending); err != nil {
		return TxArgs{}, err
	}
	args.Nonce = &nonce
	return args, nil
}

// FillDefaults completes args for submission. Value defaults to zero and data
// to empty; gas comes from eth_estimateGas, the gas price from strategy or
// else eth_gasPrice, and the chain id from net_version. Lookups see args as
// they were passed in.
func FillDefaults(ctx context.Context, client onion.Client, strategy GasPriceStrategy, args TxArgs) (TxArgs, error) {
	out := args
	if out.Value == nil {
		out.Value = hexBig(new(big.Int))
	}
	if out.Data == nil {
		out.Data = &hexutil.Bytes{}
	}
	if out.Gas == nil {
		var gas hexutil.Uint64
		if err := rpc.Call(ctx, client, &gas, "eth_estimateGas", args); err != nil {
			return TxArgs{}, err
		}
		out.Gas = &gas
	}
	if out.GasPrice == nil {
		price, err := suggest(ctx, strategy, client, args)
		if err != nil {
			return TxArgs{}, err
		}
		if price == nil {
			if price, err = RPCGasPriceStrategy(ctx, client, args); err != nil {
				return TxArgs{}, err
			}
		}
		out.GasPrice = hexBig(price)
	}
	if out.ChainID == nil {
		var version string
		if err := rpc.Call(ctx, client, &version, "net_version"); err != nil {
			return TxArgs{}, err
		}
		id, ok := new(big.Int).SetString(version, 10)
		if !ok {
			return TxArgs{}, fmt.Errorf("txn: net_version %q is not a decimal id", version)
		}
		out.ChainID = hexBig(id)
	}
	return out, nil
}

// BufferedGasEstimate estimates gas for args and adds buffer, capped at the
// latest block's gas limit. An estimate above the limit wraps
// ErrGasLimitExceeded.
func BufferedGasEstimate(ctx context.Context, client onion.Client, args TxArgs, buffer uint64) (uint64, error) {
	var estimate hexutil.Uint64
	if err := rpc.Call(ctx, client, &estimate, "eth_estimateGas", args); err != nil {
		return 0, err
	}
	head, err := rpc.BlockByID(ctx, client, rpc.BlockLatest)
	if err != nil {
		return 0, err
	}
	limit := uint64(head.GasLimit)
	if uint64(estimate) > limit {
		return 0, fmt.Errorf("%w: estimated %d, limit %d", ErrGasLimitExceeded, uint64(estimate), limit)
	}
	return min(limit, uint64(estimate)+buffer), nil
}

// ArgsFromTransaction extracts resubmittable args from a node transaction.
// Data and input are interchangeable but must agree when both are set.
func ArgsFromTransaction(tx *Transaction) (TxArgs, error) {
	if len(tx.Data) > 0 && len(tx.Input) > 0 && !bytes.Equal(tx.Data, tx.Input) {
		return TxArgs{}, rpc.Validationf("txn", "transaction %s has conflicting data and input", tx.Hash.Hex())
	}
	data := tx.Data
	if len(data) == 0 {
		data = tx.Input
	}

	from := tx.From
	args := TxArgs{
		From:    &from,
		To:      tx.To,
		Gas:     hexUint(uint64(tx.Gas)),
		Nonce:   hexUint(uint64(tx.Nonce)),
		Data:    &data,
		ChainID: tx.ChainID,
	}
	if tx.GasPrice != nil {
		args.GasPrice = hexBig(tx.GasPrice.ToInt())
	}
	if tx.Value != nil {
		args.Value = hexBig(tx.Value.ToInt())
	}
	return args, nil
}
