// Package onion composes request middlewares around a transport.
//
// An [Onion] holds an ordered, named stack of layers. A call enters at the
// outermost layer (index 0); each layer may rewrite the method and params,
// answer on its own, or delegate to the next layer. The innermost stage is the
// transport.
//
// Each [Middleware] is a constructor that runs once per insertion and returns
// a [Wrapper]. Per-client state such as a cache store lives in the
// constructor's closure and survives later rebuilds of the chain. The client
// handed to the constructor is the onion itself, so a layer that needs chain
// data issues its own calls through the full pipeline.
//
//	o, err := onion.New(transport.Request,
//		onion.Layer{Name: "retry", Middleware: resilience.RetryMiddleware(cfg)},
//	)
//	_ = o.Add(cache.SimpleCache(cache.SimpleConfig{}), "simple_cache")
package onion
