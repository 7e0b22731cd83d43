// Package abi normalizes typed values and formats RPC params.
//
// [MapData] pairs each value with an ABI type string, walks arrays and tuples
// down to their elements, runs a sequence of [Normalizer] functions over
// every typed node and strips the types off again. The result has the shape
// of the input. Tuples given as maps are aligned to their declared component
// order with [MapArguments].
//
// [RequestFormatter] applies this to RPC params using per-method [Schema]
// tables, so callers may pass binary addresses, byte slices and Go integers
// where the node expects hex strings.
package abi
