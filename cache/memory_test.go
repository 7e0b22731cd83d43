package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/rpcops/rpc"
)

func TestNewLRUStore_InvalidSize(t *testing.T) {
	_, err := NewLRUStore(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s, err := NewLRUStore(2)
	require.NoError(t, err)

	now := time.Now()
	s.Set("a", Entry{Response: &rpc.Response{Result: "a"}, CachedAt: now})
	s.Set("b", Entry{Response: &rpc.Response{Result: "b"}, CachedAt: now})

	_, ok := s.Get("a")
	require.True(t, ok)

	s.Set("c", Entry{Response: &rpc.Response{Result: "c"}, CachedAt: now})
	assert.Equal(t, 2, s.Len())

	_, ok = s.Get("b")
	assert.False(t, ok, "b was least recently used")
	e, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", e.Response.Result)
	assert.Equal(t, now, e.CachedAt)
}

func TestLRUStore_DeleteIdempotent(t *testing.T) {
	s, err := NewLRUStore(4)
	require.NoError(t, err)

	s.Set("k", Entry{Response: &rpc.Response{Result: "v"}})
	s.Delete("k")
	s.Delete("k")

	_, ok := s.Get("k")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestDefaultShouldCache(t *testing.T) {
	assert.True(t, DefaultShouldCache("m", nil, &rpc.Response{Result: "0x1"}))
	assert.True(t, DefaultShouldCache("m", nil, &rpc.Response{Result: false}))
	assert.False(t, DefaultShouldCache("m", nil, &rpc.Response{}))
	assert.False(t, DefaultShouldCache("m", nil, &rpc.Response{Error: &rpc.Error{Code: -32000}}))
	assert.False(t, DefaultShouldCache("m", nil, nil))
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults(DefaultTTLWhitelist)
	assert.Equal(t, DefaultSize, o.Size)
	assert.Equal(t, DefaultTTLWhitelist(), o.Whitelist)
	assert.NotNil(t, o.ShouldCache)
	assert.NotNil(t, o.Keyer)
	assert.NotNil(t, o.Now)
	assert.NotNil(t, o.Logger)

	custom := Options{Size: 8, Whitelist: []string{"eth_chainId"}}.withDefaults(DefaultTTLWhitelist)
	assert.Equal(t, 8, custom.Size)
	assert.Equal(t, []string{"eth_chainId"}, custom.Whitelist)
}
