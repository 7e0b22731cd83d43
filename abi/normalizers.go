package abi

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/rpc"
)

// DefaultNormalizers returns the request normalizers in the order they are
// applied: bytes, integers, strings, then addresses.
func DefaultNormalizers() []Normalizer {
	return []Normalizer{BytesToHex, IntToHex, StringToHex, AddressToHex}
}

// AddressToHex renders binary addresses as checksummed hex and rejects
// strings that are not hex addresses.
func AddressToHex(abiType string, value any) (string, any, error) {
	if abiType != "address" {
		return abiType, value, nil
	}
	switch v := value.(type) {
	case common.Address:
		return abiType, v.Hex(), nil
	case *common.Address:
		if v == nil {
			return abiType, value, nil
		}
		return abiType, v.Hex(), nil
	case [common.AddressLength]byte:
		return abiType, common.Address(v).Hex(), nil
	case []byte:
		if len(v) != common.AddressLength {
			return "", nil, rpc.Validationf("abi", "address must be %d bytes, got %d", common.AddressLength, len(v))
		}
		return abiType, common.BytesToAddress(v).Hex(), nil
	case string:
		if !common.IsHexAddress(v) {
			return "", nil, rpc.Validationf("abi", "%q is not a hex address", v)
		}
	}
	return abiType, value, nil
}

// BytesToHex hex-encodes binary values of bytes and bytesN types.
func BytesToHex(abiType string, value any) (string, any, error) {
	if !strings.HasPrefix(abiType, "bytes") {
		return abiType, value, nil
	}
	switch v := value.(type) {
	case []byte:
		return abiType, hexutil.Encode(v), nil
	case hexutil.Bytes:
		return abiType, v.String(), nil
	case common.Hash:
		return abiType, v.Hex(), nil
	}
	rv := reflect.ValueOf(value)
	if rv.IsValid() && rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		b := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(b), rv)
		return abiType, hexutil.Encode(b), nil
	}
	return abiType, value, nil
}

// IntToHex renders numeric values of intN and uintN types as hex quantities.
// Strings are left as given.
func IntToHex(abiType string, value any) (string, any, error) {
	if !strings.HasPrefix(abiType, "int") && !strings.HasPrefix(abiType, "uint") {
		return abiType, value, nil
	}
	n, ok, err := toBig(value)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return abiType, value, nil
	}
	return abiType, hexutil.EncodeBig(n), nil
}

// StringToHex hex-encodes the UTF-8 bytes of string values.
func StringToHex(abiType string, value any) (string, any, error) {
	if abiType != "string" {
		return abiType, value, nil
	}
	if s, ok := value.(string); ok {
		return abiType, hexutil.Encode([]byte(s)), nil
	}
	return abiType, value, nil
}

func toBig(value any) (*big.Int, bool, error) {
	switch v := value.(type) {
	case *big.Int:
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	case big.Int:
		return &v, true, nil
	case hexutil.Big:
		return v.ToInt(), true, nil
	case *hexutil.Big:
		if v == nil {
			return nil, false, nil
		}
		return v.ToInt(), true, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, false, rpc.Validationf("abi", "%v is not an integer", v)
		}
		n, _ := big.NewFloat(v).Int(nil)
		return n, true, nil
	case json.Number:
		n, ok := new(big.Int).SetString(v.String(), 10)
		if !ok {
			return nil, false, rpc.Validationf("abi", "%s is not an integer", v)
		}
		return n, true, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return big.NewInt(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Int).SetUint64(rv.Uint()), true, nil
	}
	return nil, false, nil
}
