package txn

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// MinimumReplacementPrice returns ceil(price * 1.1), the lowest gas price a
// node accepts for a replacement.
func MinimumReplacementPrice(price *big.Int) *big.Int {
	n := new(big.Int).Mul(price, big.NewInt(11))
	n.Add(n, big.NewInt(9))
	return n.Div(n, big.NewInt(10))
}

// PrepareReplacement finalizes proposed as a replacement for current.
//
// The nonce defaults to the pending one and must match it when given. An
// explicit gas price must be strictly higher than the pending price.
// Otherwise the price is the larger of MinimumReplacementPrice and the
// strategy's suggestion. Nothing is submitted.
func PrepareReplacement(ctx context.Context, client onion.Client, strategy GasPriceStrategy, current *Transaction, proposed TxArgs) (TxArgs, error) {
	if current == nil {
		return TxArgs{}, rpc.Validationf("txn", "current transaction is required")
	}
	if current.Mined() {
		return TxArgs{}, fmt.Errorf("%w: %s", ErrAlreadyMined, current.Hash.Hex())
	}
	if proposed.Nonce != nil && *proposed.Nonce != current.Nonce {
		return TxArgs{}, fmt.Errorf("%w: got %d, pending %d", ErrNonceMismatch, uint64(*proposed.Nonce), uint64(current.Nonce))
	}
	if proposed.Nonce == nil {
		proposed.Nonce = hexUint(uint64(current.Nonce))
	}

	pending := bigOf(current.GasPrice)
	if pending == nil {
		return TxArgs{}, rpc.Validationf("txn", "pending transaction %s has no gas price", current.Hash.Hex())
	}

	if proposed.GasPrice != nil {
		if proposed.GasPrice.ToInt().Cmp(pending) <= 0 {
			return TxArgs{}, fmt.Errorf("%w: %s <= %s", ErrGasPriceTooLow, proposed.GasPrice.ToInt(), pending)
		}
		return proposed, nil
	}

	price := MinimumReplacementPrice(pending)
	suggested, err := suggest(ctx, strategy, client, proposed)
	if err != nil {
		return TxArgs{}, err
	}
	if suggested != nil && suggested.Cmp(price) > 0 {
		price = suggested
	}
	proposed.GasPrice = hexBig(price)
	return proposed, nil
}

// ReplaceTransaction fetches the pending transaction hash, prepares proposed
// as its replacement and submits it.
func ReplaceTransaction(ctx context.Context, client onion.Client, strategy GasPriceStrategy, hash common.Hash, proposed TxArgs) (common.Hash, error) {
	current, err := GetTransaction(ctx, client, hash)
	if err != nil {
		return common.Hash{}, err
	}
	args, err := PrepareReplacement(ctx, client, strategy, current, proposed)
	if err != nil {
		return common.Hash{}, err
	}
	return SendTransaction(ctx, client, args)
}
