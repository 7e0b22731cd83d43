// Package health reports the health of a JSON-RPC node.
//
// A Checker probes one aspect of the node and returns a Result with a
// Status of healthy, degraded or unhealthy. The package ships checkers for
// reachability (NodeChecker), chain head freshness (HeadChecker) and sync
// progress (SyncChecker). An Aggregator runs several checkers in parallel
// under one deadline, and Handler exposes the aggregate over HTTP:
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewNodeChecker(client))
//	agg.Register(health.NewHeadChecker(client, health.HeadCheckerConfig{}))
//	agg.Register(health.NewSyncChecker(client))
//
//	mux.Handle("/", health.Handler(agg))
package health
