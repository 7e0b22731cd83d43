// Package observe records telemetry for JSON-RPC calls.
//
// An Observer owns the OpenTelemetry tracer and meter providers plus a
// zap-backed Logger. Middleware turns an Observer into an onion stage that
// emits one span, one set of counters and one log line per call.
package observe
