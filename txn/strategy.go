package txn

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// GasPriceStrategy suggests a gas price for tx. A nil price with a nil error
// means no suggestion.
type GasPriceStrategy func(ctx context.Context, client onion.Client, tx TxArgs) (*big.Int, error)

// RPCGasPriceStrategy asks the node with eth_gasPrice.
func RPCGasPriceStrategy(ctx context.Context, client onion.Client, _ TxArgs) (*big.Int, error) {
	var price hexutil.Big
	if err := rpc.Call(ctx, client, &price, "eth_gasPrice"); err != nil {
		return nil, err
	}
	return price.ToInt(), nil
}

// FixedGasPriceStrategy always suggests price.
func FixedGasPriceStrategy(price *big.Int) GasPriceStrategy {
	return func(context.Context, onion.Client, TxArgs) (*big.Int, error) {
		return new(big.Int).Set(price), nil
	}
}

func suggest(ctx context.Context, strategy GasPriceStrategy, client onion.Client, tx TxArgs) (*big.Int, error) {
	if strategy == nil {
		return nil, nil
	}
	return strategy(ctx, client, tx)
}

// GasPriceStrategyMiddleware fills a missing gas price on eth_sendTransaction
// with the strategy's suggestion. Calls that already carry a price, or for
// which the strategy has no suggestion, pass through unchanged.
func GasPriceStrategyMiddleware(strategy GasPriceStrategy) onion.Middleware {
	return func(client onion.Client) onion.Wrapper {
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				if strategy == nil || method != "eth_sendTransaction" || len(params) == 0 {
					return next(ctx, method, params)
				}

				if m, ok := params[0].(map[string]any); ok {
					if _, has := m["gasPrice"]; has {
						return next(ctx, method, params)
					}
				}
				args, ok, err := argsFromParam(params[0])
				if err != nil {
					return nil, err
				}
				if !ok || args.GasPrice != nil {
					return next(ctx, method, params)
				}

				price, err := strategy(ctx, client, args)
				if err != nil {
					return nil, err
				}
				if price == nil {
					return next(ctx, method, params)
				}

				if m, isMap := params[0].(map[string]any); isMap {
					filled := make(map[string]any, len(m)+1)
					for k, v := range m {
						filled[k] = v
					}
					filled["gasPrice"] = hexutil.EncodeBig(price)
					return next(ctx, method, withParam(params, filled))
				}
				args.GasPrice = hexBig(price)
				return next(ctx, method, withParam(params, args))
			}
		}
	}
}
