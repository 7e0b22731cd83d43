package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/rpcops/observe"
)

// Config is the YAML configuration read by LoadConfig and consumed by Dial.
type Config struct {
	Endpoint       string            `yaml:"endpoint"`
	Headers        map[string]string `yaml:"headers"`
	RequestTimeout time.Duration     `yaml:"request_timeout"`

	Retry    RetryConfig    `yaml:"retry"`
	Cache    CacheConfig    `yaml:"cache"`
	Guards   GuardsConfig   `yaml:"guards"`
	GasPrice GasPriceConfig `yaml:"gas_price"`
	Signing  SigningConfig  `yaml:"signing"`

	// PoA renames extraData to proofOfAuthorityData in block results.
	PoA bool `yaml:"poa"`

	Telemetry observe.Config `yaml:"telemetry"`
}

// RetryConfig configures the retry stage.
type RetryConfig struct {
	Enabled      bool          `yaml:"enabled"`
	MaxAttempts  int           `yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
	Jitter       bool          `yaml:"jitter"`
	Whitelist    []string      `yaml:"whitelist"`
}

// CacheConfig configures the three cache stages.
type CacheConfig struct {
	Simple    SimpleCacheConfig    `yaml:"simple"`
	TTL       TTLCacheConfig       `yaml:"ttl"`
	ChainHead ChainHeadCacheConfig `yaml:"chain_head"`
}

// SimpleCacheConfig configures the simple_cache stage.
type SimpleCacheConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Size      int      `yaml:"size"`
	Whitelist []string `yaml:"whitelist"`
}

// TTLCacheConfig configures the ttl_cache stage.
type TTLCacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Size      int           `yaml:"size"`
	TTL       time.Duration `yaml:"ttl"`
	Whitelist []string      `yaml:"whitelist"`
}

// ChainHeadCacheConfig configures the chain_head_cache stage.
type ChainHeadCacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Size         int           `yaml:"size"`
	SampleWindow uint64        `yaml:"sample_window"`
	BlockTime    time.Duration `yaml:"block_time"`
	Whitelist    []string      `yaml:"whitelist"`
}

// GuardsConfig configures the resilience guards.
type GuardsConfig struct {
	RateLimit struct {
		Enabled bool          `yaml:"enabled"`
		Rate    float64       `yaml:"rate"`
		Burst   int           `yaml:"burst"`
		Wait    bool          `yaml:"wait"`
		MaxWait time.Duration `yaml:"max_wait"`
	} `yaml:"rate_limit"`

	Bulkhead struct {
		Enabled       bool          `yaml:"enabled"`
		MaxConcurrent int           `yaml:"max_concurrent"`
		MaxWait       time.Duration `yaml:"max_wait"`
	} `yaml:"bulkhead"`

	Circuit struct {
		Enabled      bool          `yaml:"enabled"`
		MaxFailures  int           `yaml:"max_failures"`
		ResetTimeout time.Duration `yaml:"reset_timeout"`
	} `yaml:"circuit_breaker"`

	Timeout struct {
		Enabled bool          `yaml:"enabled"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"timeout"`
}

// Gas price strategies selectable from configuration.
const (
	GasPriceNone  = "none"
	GasPriceRPC   = "rpc"
	GasPriceFixed = "fixed"
)

// GasPriceConfig selects the gas_price_strategy stage behavior.
type GasPriceConfig struct {
	Strategy string `yaml:"strategy"`
	// FixedWei is a decimal wei amount used by the fixed strategy.
	FixedWei string `yaml:"fixed_wei"`
}

// SigningConfig enables local signing for the listed keys. Keys are hex
// private keys, normally supplied as ${VAR} references.
type SigningConfig struct {
	Keys []string `yaml:"keys"`
}

// DefaultConfig returns a configuration with the simple and TTL caches and
// retries enabled. Endpoint must still be set.
func DefaultConfig() Config {
	var cfg Config
	cfg.RequestTimeout = 30 * time.Second
	cfg.Retry = RetryConfig{Enabled: true, MaxAttempts: 5, InitialDelay: 100 * time.Millisecond, MaxDelay: 5 * time.Second}
	cfg.Cache.Simple.Enabled = true
	cfg.Cache.TTL = TTLCacheConfig{Enabled: true, TTL: 15 * time.Second}
	cfg.GasPrice.Strategy = GasPriceNone
	cfg.Telemetry.ServiceName = "rpcops"
	return cfg
}

// LoadConfig reads path, expands environment references strictly and
// decodes it over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("client: read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig for in-memory YAML.
func ParseConfig(data []byte) (Config, error) {
	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first problem in c.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...)
	}

	if c.Endpoint == "" {
		return invalid("endpoint is required")
	}
	if c.RequestTimeout < 0 {
		return invalid("request_timeout must not be negative")
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts < 0 {
		return invalid("retry.max_attempts must not be negative")
	}
	for name, size := range map[string]int{
		"simple": c.Cache.Simple.Size, "ttl": c.Cache.TTL.Size, "chain_head": c.Cache.ChainHead.Size,
	} {
		if size < 0 {
			return invalid("cache.%s.size must not be negative", name)
		}
	}
	if c.Guards.RateLimit.Enabled && c.Guards.RateLimit.Rate < 0 {
		return invalid("guards.rate_limit.rate must not be negative")
	}
	if c.Guards.Bulkhead.Enabled && c.Guards.Bulkhead.MaxConcurrent < 0 {
		return invalid("guards.bulkhead.max_concurrent must not be negative")
	}

	switch c.GasPrice.Strategy {
	case "", GasPriceNone, GasPriceRPC:
	case GasPriceFixed:
		if _, err := c.fixedGasPrice(); err != nil {
			return invalid("%v", err)
		}
	default:
		return invalid("unknown gas_price.strategy %q", c.GasPrice.Strategy)
	}

	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("%w: telemetry: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) fixedGasPrice() (*big.Int, error) {
	wei, ok := new(big.Int).SetString(c.GasPrice.FixedWei, 10)
	if !ok || wei.Sign() < 0 {
		return nil, fmt.Errorf("gas_price.fixed_wei %q is not a non-negative decimal", c.GasPrice.FixedWei)
	}
	return wei, nil
}
