package abi

import (
	"context"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// ResultFormatterFunc rewrites a successful result.
type ResultFormatterFunc func(result any) (any, error)

// RequestFormatter returns a stage that normalizes the params of every method
// listed in schemas. Other methods pass through. A nil schemas map uses
// DefaultRPCSchemas, and nil normalizers use DefaultNormalizers.
func RequestFormatter(normalizers []Normalizer, schemas map[string]Schema) onion.Middleware {
	if normalizers == nil {
		normalizers = DefaultNormalizers()
	}
	if schemas == nil {
		schemas = DefaultRPCSchemas()
	}
	return func(onion.Client) onion.Wrapper {
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				schema, ok := schemas[method]
				if !ok {
					return next(ctx, method, params)
				}
				formatted, err := schema.FormatParams(normalizers, params)
				if err != nil {
					return nil, err
				}
				return next(ctx, method, formatted)
			}
		}
	}
}

// ResultFormatter returns a stage that rewrites successful, non-null results
// of the listed methods. The response from the next stage is never modified;
// a formatted result is returned in a new Response.
func ResultFormatter(formatters map[string]ResultFormatterFunc) onion.Middleware {
	return func(onion.Client) onion.Wrapper {
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				resp, err := next(ctx, method, params)
				if err != nil || !resp.Cacheable() {
					return resp, err
				}
				format, ok := formatters[method]
				if !ok {
					return resp, nil
				}
				result, err := format(resp.Result)
				if err != nil {
					return nil, err
				}
				return &rpc.Response{Result: result}, nil
			}
		}
	}
}

// PoAExtraData renames a block's extraData field to proofOfAuthorityData,
// as proof-of-authority chains pack signer data there.
func PoAExtraData(result any) (any, error) {
	block, ok := result.(map[string]any)
	if !ok {
		return result, nil
	}
	extra, ok := block["extraData"]
	if !ok {
		return result, nil
	}
	if s, isStr := extra.(string); isStr {
		if _, err := hexutil.Decode(s); err != nil {
			return nil, rpc.Validationf("abi", "extraData %q: %v", s, err)
		}
	}

	out := make(map[string]any, len(block))
	for k, v := range block {
		if k != "extraData" {
			out[k] = v
		}
	}
	out["proofOfAuthorityData"] = extra
	return out, nil
}

// PoAMiddleware applies PoAExtraData to block results.
func PoAMiddleware() onion.Middleware {
	return ResultFormatter(map[string]ResultFormatterFunc{
		"eth_getBlockByHash":   PoAExtraData,
		"eth_getBlockByNumber": PoAExtraData,
	})
}
