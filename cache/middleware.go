package cache

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// stage is the skeleton shared by the cache stages: one store, one
// whitelist and one non-blocking admission flag.
type stage struct {
	name    string
	opts    Options
	store   Store
	methods map[string]struct{}
	busy    atomic.Bool
}

func newStage(name string, opts Options, whitelist func() []string) *stage {
	opts = opts.withDefaults(whitelist)
	store, err := NewLRUStore(opts.Size)
	if err != nil {
		// withDefaults guarantees a positive size.
		panic(err)
	}
	methods := make(map[string]struct{}, len(opts.Whitelist))
	for _, m := range opts.Whitelist {
		methods[m] = struct{}{}
	}
	return &stage{
		name:    name,
		opts:    opts,
		store:   store,
		methods: methods,
	}
}

// admit reports whether the call may use the cache. A true result must be
// paired with release.
func (s *stage) admit(method string) bool {
	if _, ok := s.methods[method]; !ok {
		return false
	}
	if !s.busy.CompareAndSwap(false, true) {
		s.opts.Logger.Debug("cache busy, bypassing",
			zap.String("stage", s.name), zap.String("method", method))
		return false
	}
	return true
}

func (s *stage) release() {
	s.busy.Store(false)
}

// fetch runs next and stores the result under key when it is cacheable.
// Errors are returned unchanged and never stored.
func (s *stage) fetch(ctx context.Context, next rpc.RequestFunc, key, method string, params []any) (*rpc.Response, error) {
	resp, err := next(ctx, method, params)
	if err != nil {
		return resp, err
	}
	if s.opts.ShouldCache(method, params, resp) {
		s.store.Set(key, Entry{Response: resp, CachedAt: s.opts.Now()})
	}
	return resp, nil
}

func (s *stage) keyFailed(method string, err error) {
	s.opts.Logger.Warn("cache key derivation failed, bypassing",
		zap.String("stage", s.name), zap.String("method", method), zap.Error(err))
}

// SimpleCache returns a stage that caches whitelisted calls until evicted.
func SimpleCache(cfg SimpleConfig) onion.Middleware {
	return func(onion.Client) onion.Wrapper {
		s := newStage("simple_cache", cfg.Options, DefaultSimpleWhitelist)
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				if !s.admit(method) {
					return next(ctx, method, params)
				}
				defer s.release()

				key, err := RequestKey(s.opts.Keyer, method, params)
				if err != nil {
					s.keyFailed(method, err)
					return next(ctx, method, params)
				}
				if e, ok := s.store.Get(key); ok {
					s.opts.Logger.Debug("cache hit", zap.String("stage", s.name), zap.String("method", method))
					return e.Response, nil
				}
				return s.fetch(ctx, next, key, method, params)
			}
		}
	}
}

// TTLCache returns a stage whose entries expire after cfg.TTL.
func TTLCache(cfg TTLConfig) onion.Middleware {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return func(onion.Client) onion.Wrapper {
		s := newStage("ttl_cache", cfg.Options, DefaultTTLWhitelist)
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				if !s.admit(method) {
					return next(ctx, method, params)
				}
				defer s.release()

				key, err := RequestKey(s.opts.Keyer, method, params)
				if err != nil {
					s.keyFailed(method, err)
					return next(ctx, method, params)
				}
				if e, ok := s.store.Get(key); ok {
					if s.opts.Now().Sub(e.CachedAt) > ttl {
						s.store.Delete(key)
						s.opts.Logger.Debug("cache entry expired", zap.String("stage", s.name), zap.String("method", method))
					} else {
						s.opts.Logger.Debug("cache hit", zap.String("stage", s.name), zap.String("method", method))
						return e.Response, nil
					}
				}
				return s.fetch(ctx, next, key, method, params)
			}
		}
	}
}

// ChainHeadCache returns a stage that scopes entries to the latest block
// hash. Requests for the latest block itself always reach the next stage.
//
// The head is tracked by a BlockRateEstimator that reads blocks through the
// client, so the lookups pass through the full pipeline.
func ChainHeadCache(cfg ChainHeadConfig) onion.Middleware {
	return func(client onion.Client) onion.Wrapper {
		s := newStage("chain_head_cache", cfg.Options, DefaultChainHeadWhitelist)
		est := NewBlockRateEstimator(client, cfg.SampleWindow, cfg.BlockTime, s.opts.Now, s.opts.Logger)
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				if isLatestBlockQuery(method, params) || !s.admit(method) {
					return next(ctx, method, params)
				}
				defer s.release()

				head, err := est.Head(ctx)
				if err != nil {
					return nil, err
				}
				key, err := HeadKey(s.opts.Keyer, head.Hash, method, params)
				if err != nil {
					s.keyFailed(method, err)
					return next(ctx, method, params)
				}
				if e, ok := s.store.Get(key); ok {
					s.opts.Logger.Debug("cache hit", zap.String("stage", s.name),
						zap.String("method", method), zap.Stringer("head", head.Hash))
					return e.Response, nil
				}
				return s.fetch(ctx, next, key, method, params)
			}
		}
	}
}

func isLatestBlockQuery(method string, params []any) bool {
	if method != "eth_getBlockByNumber" || len(params) == 0 {
		return false
	}
	id, ok := params[0].(string)
	return ok && id == rpc.BlockLatest
}
