// Package resilience provides the retry stage and optional guard stages for
// the request pipeline.
//
// # Retry
//
// [RetryMiddleware] retries calls whose namespace (the part of the method
// before the first '_') or full method name is whitelisted. Only transient
// transport failures are retried, up to five attempts by default with no
// delay between them. An RPC error response is a well-formed answer and is
// returned to the caller untouched.
//
// # Guards
//
// The circuit breaker, rate limiter, bulkhead and timeout are available as
// onion middlewares. [Stages] assembles the configured ones in a fixed order:
//
//	layers := resilience.Stages(
//	    resilience.WithRateLimit(resilience.RateLimiterConfig{Rate: 50, Burst: 10}),
//	    resilience.WithCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 5}),
//	    resilience.WithRetry(resilience.RetryStageConfig{}),
//	    resilience.WithTimeout(resilience.TimeoutConfig{Timeout: 10 * time.Second}),
//	)
//	o, err := onion.New(transport.Request, layers...)
//
// Each guard keeps its state per insertion, so two clients built from the
// same layers never share a breaker or a token bucket.
package resilience
