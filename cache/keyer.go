package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// Keyer derives deterministic cache keys from request parts.
//
// Contract:
// - Determinism: equal values produce equal keys regardless of map iteration
// order or of the concrete Go type used to hold them.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(parts ...any) (string, error)
}

// DefaultKeyer hashes the canonical JSON encoding of the parts with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key returns the hex SHA-256 of the canonical JSON array of parts.
func (k *DefaultKeyer) Key(parts ...any) (string, error) {
	canonical, err := canonicalize(parts)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize key parts: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// RequestKey keys a call by method and params.
func RequestKey(k Keyer, method string, params []any) (string, error) {
	return k.Key(method, params)
}

// HeadKey keys a call by the chain head it was answered against.
func HeadKey(k Keyer, head common.Hash, method string, params []any) (string, error) {
	return k.Key(head.Hex(), method, params)
}

// canonicalize produces a deterministic JSON representation of v.
// Maps are sorted by key; typed values are reduced to their JSON form first
// so that []string{"a"} and []any{"a"} encode the same.
func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	case string, bool, float64, json.Number:
		return json.Marshal(v)
	case json.RawMessage:
		return canonicalizeJSON(val)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return canonicalizeJSON(data)
	}
}

func canonicalizeJSON(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	switch generic.(type) {
	case map[string]any, []any:
		return canonicalize(generic)
	default:
		return json.Marshal(generic)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

var _ Keyer = (*DefaultKeyer)(nil)
