package resilience

import (
	"github.com/jonwraymond/rpcops/onion"
)

// Layer names used by Stages.
const (
	LayerRateLimit = "rate_limit"
	LayerBulkhead  = "bulkhead"
	LayerCircuit   = "circuit_breaker"
	LayerRetry     = "retry"
	LayerTimeout   = "timeout"
)

type stageSet struct {
	rateLimit *RateLimiterConfig
	bulkhead  *BulkheadConfig
	circuit   *CircuitBreakerConfig
	retry     *RetryStageConfig
	timeout   *TimeoutConfig
}

// StageOption enables one guard in Stages.
type StageOption func(*stageSet)

// WithRateLimit adds a rate limiting stage.
func WithRateLimit(cfg RateLimiterConfig) StageOption {
	return func(s *stageSet) { s.rateLimit = &cfg }
}

// WithBulkhead adds a concurrency limiting stage.
func WithBulkhead(cfg BulkheadConfig) StageOption {
	return func(s *stageSet) { s.bulkhead = &cfg }
}

// WithCircuitBreaker adds a circuit breaking stage.
func WithCircuitBreaker(cfg CircuitBreakerConfig) StageOption {
	return func(s *stageSet) { s.circuit = &cfg }
}

// WithRetry adds the retry stage.
func WithRetry(cfg RetryStageConfig) StageOption {
	return func(s *stageSet) { s.retry = &cfg }
}

// WithTimeout adds a per-attempt timeout stage.
func WithTimeout(cfg TimeoutConfig) StageOption {
	return func(s *stageSet) { s.timeout = &cfg }
}

// Stages returns the configured guards as onion layers, outermost first:
//
//  1. Rate limiter - limits request rate
//  2. Bulkhead - limits concurrency
//  3. Circuit breaker - fails fast while the node is down
//  4. Retry - retries whitelisted calls on transient errors
//  5. Timeout - bounds each attempt
func Stages(opts ...StageOption) []onion.Layer {
	var s stageSet
	for _, opt := range opts {
		opt(&s)
	}

	var layers []onion.Layer
	if s.rateLimit != nil {
		layers = append(layers, onion.Layer{Name: LayerRateLimit, Middleware: RateLimitMiddleware(*s.rateLimit)})
	}
	if s.bulkhead != nil {
		layers = append(layers, onion.Layer{Name: LayerBulkhead, Middleware: BulkheadMiddleware(*s.bulkhead)})
	}
	if s.circuit != nil {
		layers = append(layers, onion.Layer{Name: LayerCircuit, Middleware: CircuitBreakerMiddleware(*s.circuit)})
	}
	if s.retry != nil {
		layers = append(layers, onion.Layer{Name: LayerRetry, Middleware: RetryMiddleware(*s.retry)})
	}
	if s.timeout != nil {
		layers = append(layers, onion.Layer{Name: LayerTimeout, Middleware: TimeoutMiddleware(*s.timeout)})
	}
	return layers
}
