// Package cache provides the response cache stages of the pipeline.
//
// Three stages share one skeleton (a bounded LRU store, a method whitelist
// and a non-blocking admission flag): [SimpleCache] keeps answers until
// evicted, [TTLCache] expires them after a fixed duration, and
// [ChainHeadCache] scopes them to the current latest block hash as tracked by
// a [BlockRateEstimator].
//
// A call that finds its stage busy, or whose method is not whitelisted, goes
// straight to the next stage. Callers never wait on a cache. Only successful
// responses with a non-null result are stored, and errors pass through
// unchanged.
//
// Keys come from a [Keyer]; [DefaultKeyer] hashes a canonical JSON encoding
// of the method, the params and, for the chain-head stage, the head hash.
package cache
