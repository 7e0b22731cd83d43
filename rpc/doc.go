// Package rpc defines the request/response shapes shared by every stage of the
// middleware pipeline, the transport contract, and the error taxonomy.
//
// A call either produces a well-formed [Response] (which may carry an RPC
// level [Error]) or fails with a Go error. Go errors coming out of a transport
// are classified by [ClassifyTransportError]; transient kinds are the only
// errors the retry stage ever acts on.
package rpc
