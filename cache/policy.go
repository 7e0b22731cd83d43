package cache

import (
	"time"

	"go.uber.org/zap"
)

// DefaultTTL is the expiry of TTLCache entries.
const DefaultTTL = 15 * time.Second

// DefaultSimpleWhitelist returns the methods whose answers never change for
// given params.
func DefaultSimpleWhitelist() []string {
	return []string{
		"web3_clientVersion",
		"web3_sha3",
		"net_version",
		"eth_protocolVersion",
		"eth_getBlockTransactionCountByHash",
		"eth_getUncleCountByBlockHash",
		"eth_getBlockByHash",
		"eth_getTransactionByHash",
		"eth_getTransactionByBlockHashAndIndex",
		"eth_getUncleByBlockHashAndIndex",
	}
}

// DefaultTTLWhitelist returns the methods that rarely change but are not
// immutable.
func DefaultTTLWhitelist() []string {
	return []string{
		"eth_coinbase",
		"eth_accounts",
	}
}

// DefaultChainHeadWhitelist returns the methods whose answers are scoped to
// the current chain head.
func DefaultChainHeadWhitelist() []string {
	return []string{
		"eth_gasPrice",
		"eth_blockNumber",
		"eth_getBalance",
		"eth_getStorageAt",
		"eth_getTransactionCount",
		"eth_getBlockTransactionCountByNumber",
		"eth_getUncleCountByBlockNumber",
		"eth_getCode",
		"eth_call",
		"eth_estimateGas",
		"eth_getBlockByNumber",
		"eth_getTransactionByBlockNumberAndIndex",
		"eth_getTransactionReceipt",
		"eth_getUncleByBlockNumberAndIndex",
		"eth_getLogs",
	}
}

// Options are shared by every cache stage. Zero values take defaults.
type Options struct {
	// Size bounds the stage's LRU store. Default DefaultSize.
	Size int

	// Whitelist lists the methods the stage caches. Empty means the stage's
	// default list.
	Whitelist []string

	// ShouldCache filters responses before they are stored.
	// Default DefaultShouldCache.
	ShouldCache ShouldCacheFunc

	// Keyer derives keys. Default DefaultKeyer.
	Keyer Keyer

	// Now is the clock. Default time.Now.
	Now func() time.Time

	Logger *zap.Logger
}

func (o Options) withDefaults(whitelist func() []string) Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if len(o.Whitelist) == 0 {
		o.Whitelist = whitelist()
	}
	if o.ShouldCache == nil {
		o.ShouldCache = DefaultShouldCache
	}
	if o.Keyer == nil {
		o.Keyer = NewDefaultKeyer()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// SimpleConfig configures SimpleCache.
type SimpleConfig struct {
	Options
}

// TTLConfig configures TTLCache.
type TTLConfig struct {
	Options

	// TTL is how long an entry stays valid. Default DefaultTTL.
	TTL time.Duration
}

// ChainHeadConfig configures ChainHeadCache.
type ChainHeadConfig struct {
	Options

	// SampleWindow is how many blocks back the block-time average reaches.
	// Default DefaultSampleWindow.
	SampleWindow uint64

	// BlockTime seeds the average before the first recalibration.
	// Default DefaultBlockTime.
	BlockTime time.Duration
}
