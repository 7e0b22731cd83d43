package cache

import (
	"errors"
	"time"

	"github.com/jonwraymond/rpcops/rpc"
)

// DefaultSize is the LRU bound of each stage's store.
const DefaultSize = 256

// Sentinel errors for cache operations.
var (
	ErrInvalidSize = errors.New("cache: size must be positive")
)

// Entry is one stored response.
type Entry struct {
	Response *rpc.Response
	CachedAt time.Time
}

// Store holds responses for one cache stage.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Bounded: implementations evict on their own; stale chain-head keys are
// never looked up again and are reclaimed by eviction.
// - Get never errors; it returns (Entry{}, false) on miss.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
	// Delete is idempotent.
	Delete(key string)
	Len() int
}

// ShouldCacheFunc decides whether a successful call may be stored.
type ShouldCacheFunc func(method string, params []any, resp *rpc.Response) bool

// DefaultShouldCache stores success responses with a non-null result.
func DefaultShouldCache(_ string, _ []any, resp *rpc.Response) bool {
	return resp.Cacheable()
}
