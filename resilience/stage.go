package resilience

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// DefaultRetryWhitelist returns the namespaces and methods the retry stage
// retries by default: node management namespaces plus read-only calls and
// calls that are idempotent at the node, such as raw transaction submission.
func DefaultRetryWhitelist() []string {
	return []string{
		"admin",
		"shh",
		"miner",
		"net",
		"txpool",
		"testing",
		"evm",
		"eth_protocolVersion",
		"eth_syncing",
		"eth_coinbase",
		"eth_mining",
		"eth_hashrate",
		"eth_chainId",
		"eth_gasPrice",
		"eth_accounts",
		"eth_blockNumber",
		"eth_getBalance",
		"eth_getStorageAt",
		"eth_getProof",
		"eth_getCode",
		"eth_getBlockByNumber",
		"eth_getBlockByHash",
		"eth_getBlockTransactionCountByNumber",
		"eth_getBlockTransactionCountByHash",
		"eth_getUncleCountByBlockNumber",
		"eth_getUncleCountByBlockHash",
		"eth_getTransactionByHash",
		"eth_getTransactionByBlockHashAndIndex",
		"eth_getTransactionByBlockNumberAndIndex",
		"eth_getTransactionReceipt",
		"eth_getTransactionCount",
		"eth_call",
		"eth_estimateGas",
		"eth_newBlockFilter",
		"eth_newPendingTransactionFilter",
		"eth_newFilter",
		"eth_getFilterChanges",
		"eth_getFilterLogs",
		"eth_getLogs",
		"eth_uninstallFilter",
		"eth_getCompilers",
		"eth_getWork",
		"eth_sign",
		"eth_sendRawTransaction",
		"personal_importRawKey",
		"personal_newAccount",
		"personal_listAccounts",
		"personal_lockAccount",
		"personal_unlockAccount",
		"personal_ecRecover",
		"personal_sign",
	}
}

// RetryStageConfig configures RetryMiddleware.
type RetryStageConfig struct {
	Retry RetryConfig

	// Whitelist holds namespaces (the part before the first '_') and full
	// method names. Empty means DefaultRetryWhitelist.
	Whitelist []string

	Logger *zap.Logger
}

// IsRetryable reports whether method's namespace or full name is listed.
func IsRetryable(method string, whitelist []string) bool {
	prefix, _, _ := strings.Cut(method, "_")
	for _, w := range whitelist {
		if w == prefix || w == method {
			return true
		}
	}
	return false
}

// RetryMiddleware returns a stage that retries whitelisted methods on
// transient transport errors. Other methods get a single attempt. RPC error
// responses are never retried.
func RetryMiddleware(cfg RetryStageConfig) onion.Middleware {
	return func(onion.Client) onion.Wrapper {
		whitelist := cfg.Whitelist
		if len(whitelist) == 0 {
			whitelist = DefaultRetryWhitelist()
		}
		allowed := make(map[string]struct{}, len(whitelist))
		for _, w := range whitelist {
			allowed[w] = struct{}{}
		}
		logger := cfg.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		r := NewRetry(cfg.Retry)

		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				prefix, _, _ := strings.Cut(method, "_")
				_, okPrefix := allowed[prefix]
				_, okMethod := allowed[method]
				if !okPrefix && !okMethod {
					return next(ctx, method, params)
				}

				var resp *rpc.Response
				err := r.do(ctx, func(ctx context.Context) error {
					var err error
					resp, err = next(ctx, method, params)
					return err
				}, func(attempt int, err error, delay time.Duration) {
					logger.Warn("retrying request",
						zap.String("method", method),
						zap.Int("attempt", attempt),
						zap.Int("max_attempts", r.config.MaxAttempts),
						zap.Duration("delay", delay),
						zap.Error(err))
				})
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
		}
	}
}
