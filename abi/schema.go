package abi

import "strings"

// Schema types the params of one RPC method. Positional lists one type per
// param (empty for untyped). Fields types the keys of a single object param.
type Schema struct {
	Positional []string          `yaml:"positional,omitempty"`
	Fields     map[string]string `yaml:"fields,omitempty"`
}

func transactionFields() map[string]string {
	return map[string]string{
		"chainId":  "uint",
		"data":     "bytes",
		"from":     "address",
		"gas":      "uint",
		"gasPrice": "uint",
		"nonce":    "uint",
		"to":       "address",
		"value":    "uint",
	}
}

func filterFields() map[string]string {
	return map[string]string{
		"to":      "address",
		"address": "address[]",
	}
}

func traceFields() map[string]string {
	return map[string]string{
		"to":   "address",
		"from": "address",
	}
}

// DefaultRPCSchemas returns the param types of the standard node methods.
// The map is freshly allocated and safe to modify.
func DefaultRPCSchemas() map[string]Schema {
	pos := func(types ...string) Schema { return Schema{Positional: types} }
	return map[string]Schema{
		"eth_call":                              {Fields: transactionFields()},
		"eth_estimateGas":                       {Fields: transactionFields()},
		"eth_getBalance":                        pos("address", ""),
		"eth_getBlockByHash":                    pos("bytes32", "bool"),
		"eth_getBlockTransactionCountByHash":    pos("bytes32"),
		"eth_getCode":                           pos("address", ""),
		"eth_getLogs":                           {Fields: filterFields()},
		"eth_getStorageAt":                      pos("address", "uint", ""),
		"eth_getTransactionByBlockHashAndIndex": pos("bytes32", "uint"),
		"eth_getTransactionByHash":              pos("bytes32"),
		"eth_getTransactionCount":               pos("address", ""),
		"eth_getTransactionReceipt":             pos("bytes32"),
		"eth_getUncleCountByBlockHash":          pos("bytes32"),
		"eth_newFilter":                         {Fields: filterFields()},
		"eth_sendRawTransaction":                pos("bytes"),
		"eth_sendTransaction":                   {Fields: transactionFields()},
		"eth_signTransaction":                   {Fields: transactionFields()},
		"eth_sign":                              pos("address", "bytes"),
		"eth_submitHashrate":                    pos("uint", "bytes32"),
		"eth_submitWork":                        pos("bytes8", "bytes32", "bytes32"),
		"personal_sendTransaction":              {Fields: transactionFields()},
		"personal_lockAccount":                  pos("address"),
		"personal_unlockAccount":                pos("address", "", ""),
		"personal_sign":                         pos("", "address", ""),
		"trace_call":                            {Fields: traceFields()},
		"parity_listStorageKeys":                pos("address", "", "", ""),
	}
}

// FormatParams applies the schema to params and returns a new slice.
// Params beyond the positional list pass through; a short param list uses
// only the leading types.
func (s Schema) FormatParams(normalizers []Normalizer, params []any) ([]any, error) {
	if len(s.Positional) > 0 {
		n := min(len(params), len(s.Positional))
		head, err := MapData(normalizers, s.Positional[:n], params[:n])
		if err != nil {
			return nil, err
		}
		return append(head, params[n:]...), nil
	}

	if len(s.Fields) == 0 || len(params) == 0 {
		return params, nil
	}
	obj, ok := params[0].(map[string]any)
	if !ok {
		return params, nil
	}
	formatted, err := s.formatFields(normalizers, obj)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(params))
	copy(out, params)
	out[0] = formatted
	return out, nil
}

func (s Schema) formatFields(normalizers []Normalizer, obj map[string]any) (map[string]any, error) {
	var (
		keys  []string
		types []string
		data  []any
	)
	for key, typ := range s.Fields {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		// A filter's address may be one address or a list.
		if elem, isArray := strings.CutSuffix(typ, "[]"); isArray {
			if _, single := v.(string); single {
				typ = elem
			}
		}
		keys = append(keys, key)
		types = append(types, typ)
		data = append(data, v)
	}

	values, err := MapData(normalizers, types, data)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}
	for i, k := range keys {
		out[k] = values[i]
	}
	return out, nil
}
