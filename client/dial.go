package client

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/jonwraymond/rpcops/abi"
	"github.com/jonwraymond/rpcops/cache"
	"github.com/jonwraymond/rpcops/observe"
	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/resilience"
	"github.com/jonwraymond/rpcops/rpc"
	"github.com/jonwraymond/rpcops/txn"
)

// Dial connects to cfg.Endpoint and returns a Manager with the stack
// described by cfg.
func Dial(ctx context.Context, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	transport, err := rpc.Dial(ctx, rpc.DialConfig{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.RequestTimeout,
		Headers:  headers,
	})
	if err != nil {
		return nil, err
	}
	m, err := NewFromConfig(ctx, transport, cfg)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return m, nil
}

// NewFromConfig builds a Manager over an existing transport. The layers are,
// outermost first: observe, gas_price_strategy, abi, poa, signing,
// simple_cache, ttl_cache, chain_head_cache, then the guards
// (rate_limit, bulkhead, circuit_breaker, retry, timeout). Disabled stages
// are left out.
func NewFromConfig(ctx context.Context, transport rpc.Transport, cfg Config) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	logger := obs.Zap()

	layers, err := buildLayers(cfg, obs, logger)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	m, err := New(transport,
		WithoutDefaultLayers(),
		WithLayers(layers...),
		WithLogger(logger),
		withCloser(obs.Shutdown),
	)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}
	logger.Info("client ready", zap.Strings("layers", m.onion.Names()))
	return m, nil
}

func buildLayers(cfg Config, obs observe.Observer, logger *zap.Logger) ([]onion.Layer, error) {
	var layers []onion.Layer

	if cfg.Telemetry.Tracing.Enabled || cfg.Telemetry.Metrics.Enabled || cfg.Telemetry.Logging.Enabled {
		mw, err := observe.MiddlewareFromObserver(obs)
		if err != nil {
			return nil, err
		}
		layers = append(layers, onion.Layer{Name: LayerObserve, Middleware: mw.Stage()})
	}

	strategy, err := gasPriceStrategy(cfg)
	if err != nil {
		return nil, err
	}
	if strategy != nil {
		layers = append(layers, onion.Layer{Name: LayerGasPrice, Middleware: txn.GasPriceStrategyMiddleware(strategy)})
	}

	layers = append(layers, onion.Layer{Name: LayerABI, Middleware: abi.RequestFormatter(nil, nil)})
	if cfg.PoA {
		layers = append(layers, onion.Layer{Name: LayerPoA, Middleware: abi.PoAMiddleware()})
	}

	if len(cfg.Signing.Keys) > 0 {
		keys := make([]txn.Key, len(cfg.Signing.Keys))
		for i, k := range cfg.Signing.Keys {
			keys[i] = txn.HexKey(k)
		}
		signing, err := txn.SignAndSendRaw(strategy, keys...)
		if err != nil {
			return nil, err
		}
		layers = append(layers, onion.Layer{Name: LayerSigning, Middleware: signing})
	}

	c := cfg.Cache
	if c.Simple.Enabled {
		layers = append(layers, onion.Layer{Name: LayerSimpleCache, Middleware: cache.SimpleCache(cache.SimpleConfig{
			Options: cache.Options{Size: c.Simple.Size, Whitelist: c.Simple.Whitelist, Logger: logger},
		})})
	}
	if c.TTL.Enabled {
		layers = append(layers, onion.Layer{Name: LayerTTLCache, Middleware: cache.TTLCache(cache.TTLConfig{
			Options: cache.Options{Size: c.TTL.Size, Whitelist: c.TTL.Whitelist, Logger: logger},
			TTL:     c.TTL.TTL,
		})})
	}
	if c.ChainHead.Enabled {
		layers = append(layers, onion.Layer{Name: LayerChainHeadCache, Middleware: cache.ChainHeadCache(cache.ChainHeadConfig{
			Options:      cache.Options{Size: c.ChainHead.Size, Whitelist: c.ChainHead.Whitelist, Logger: logger},
			SampleWindow: c.ChainHead.SampleWindow,
			BlockTime:    c.ChainHead.BlockTime,
		})})
	}

	return append(layers, resilience.Stages(guardOptions(cfg, logger)...)...), nil
}

func guardOptions(cfg Config, logger *zap.Logger) []resilience.StageOption {
	g := cfg.Guards
	var opts []resilience.StageOption
	if g.RateLimit.Enabled {
		opts = append(opts, resilience.WithRateLimit(resilience.RateLimiterConfig{
			Rate:        g.RateLimit.Rate,
			Burst:       g.RateLimit.Burst,
			WaitOnLimit: g.RateLimit.Wait,
			MaxWait:     g.RateLimit.MaxWait,
		}))
	}
	if g.Bulkhead.Enabled {
		opts = append(opts, resilience.WithBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: g.Bulkhead.MaxConcurrent,
			MaxWait:       g.Bulkhead.MaxWait,
		}))
	}
	if g.Circuit.Enabled {
		opts = append(opts, resilience.WithCircuitBreaker(resilience.CircuitBreakerConfig{
			MaxFailures:  g.Circuit.MaxFailures,
			ResetTimeout: g.Circuit.ResetTimeout,
		}))
	}
	if cfg.Retry.Enabled {
		opts = append(opts, resilience.WithRetry(resilience.RetryStageConfig{
			Retry: resilience.RetryConfig{
				MaxAttempts:  cfg.Retry.MaxAttempts,
				InitialDelay: cfg.Retry.InitialDelay,
				MaxDelay:     cfg.Retry.MaxDelay,
				Jitter:       cfg.Retry.Jitter,
			},
			Whitelist: cfg.Retry.Whitelist,
			Logger:    logger,
		}))
	}
	if g.Timeout.Enabled {
		opts = append(opts, resilience.WithTimeout(resilience.TimeoutConfig{Timeout: g.Timeout.Timeout}))
	}
	return opts
}

func gasPriceStrategy(cfg Config) (txn.GasPriceStrategy, error) {
	switch cfg.GasPrice.Strategy {
	case GasPriceRPC:
		return txn.RPCGasPriceStrategy, nil
	case GasPriceFixed:
		wei, err := cfg.fixedGasPrice()
		if err != nil {
			return nil, err
		}
		return txn.FixedGasPriceStrategy(wei), nil
	}
	return nil, nil
}
