package txn

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// KeyKind tells how a Key carries its secret.
type KeyKind int

const (
	KeyHex KeyKind = iota
	KeyRaw
	KeyECDSA
)

// Key is a private key in one of the accepted encodings.
type Key struct {
	Kind  KeyKind
	Hex   string
	Raw   []byte
	ECDSA *ecdsa.PrivateKey
}

// HexKey wraps a hex-encoded private key, with or without 0x.
func HexKey(s string) Key { return Key{Kind: KeyHex, Hex: s} }

// RawKey wraps a 32-byte private key.
func RawKey(b []byte) Key { return Key{Kind: KeyRaw, Raw: b} }

// ECDSAKey wraps a parsed private key.
func ECDSAKey(k *ecdsa.PrivateKey) Key { return Key{Kind: KeyECDSA, ECDSA: k} }

func (k Key) privateKey() (*ecdsa.PrivateKey, error) {
	switch k.Kind {
	case KeyHex:
		pk, err := crypto.HexToECDSA(strings.TrimPrefix(k.Hex, "0x"))
		if err != nil {
			return nil, rpc.Validationf("txn", "hex key: %v", err)
		}
		return pk, nil
	case KeyRaw:
		pk, err := crypto.ToECDSA(k.Raw)
		if err != nil {
			return nil, rpc.Validationf("txn", "raw key: %v", err)
		}
		return pk, nil
	case KeyECDSA:
		if k.ECDSA == nil {
			return nil, rpc.Validationf("txn", "nil ecdsa key")
		}
		return k.ECDSA, nil
	}
	return nil, rpc.Validationf("txn", "unknown key kind %d", k.Kind)
}

// Account signs transactions for one address.
type Account struct {
	Address common.Address
	key     *ecdsa.PrivateKey
}

// NewAccount resolves k into an account.
func NewAccount(k Key) (*Account, error) {
	pk, err := k.privateKey()
	if err != nil {
		return nil, err
	}
	return &Account{Address: crypto.PubkeyToAddress(pk.PublicKey), key: pk}, nil
}

// SignTx signs args as an EIP-155 legacy transaction and returns its raw
// encoding. Nonce, gas, gas price and chain id must be set.
func (a *Account) SignTx(args TxArgs) (hexutil.Bytes, error) {
	if args.Nonce == nil || args.Gas == nil || args.GasPrice == nil || args.ChainID == nil {
		return nil, rpc.Validationf("txn", "unsigned transaction is incomplete")
	}
	value := new(big.Int)
	if args.Value != nil {
		value = args.Value.ToInt()
	}
	var data []byte
	if args.Data != nil {
		data = *args.Data
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(*args.Nonce),
		GasPrice: args.GasPrice.ToInt(),
		Gas:      uint64(*args.Gas),
		To:       args.To,
		Value:    value,
		Data:     data,
	})
	signed, err := types.SignTx(tx, types.NewEIP155Signer(args.ChainID.ToInt()), a.key)
	if err != nil {
		return nil, err
	}
	return signed.MarshalBinary()
}

// SignAndSendRaw returns a stage that signs eth_sendTransaction calls from
// one of keys locally and submits them as eth_sendRawTransaction. Calls from
// other senders pass through. Missing fields are filled through the client
// before signing.
func SignAndSendRaw(strategy GasPriceStrategy, keys ...Key) (onion.Middleware, error) {
	accounts := make(map[common.Address]*Account, len(keys))
	for _, k := range keys {
		acct, err := NewAccount(k)
		if err != nil {
			return nil, err
		}
		accounts[acct.Address] = acct
	}

	return func(client onion.Client) onion.Wrapper {
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				if method != "eth_sendTransaction" || len(params) == 0 {
					return next(ctx, method, params)
				}
				args, ok, err := argsFromParam(params[0])
				if err != nil {
					return nil, err
				}
				if !ok || args.From == nil {
					return next(ctx, method, params)
				}
				acct, ok := accounts[*args.From]
				if !ok {
					return next(ctx, method, params)
				}

				if args, err = FillNonce(ctx, client, args); err != nil {
					return nil, err
				}
				if args, err = FillDefaults(ctx, client, strategy, args); err != nil {
					return nil, err
				}
				raw, err := acct.SignTx(args)
				if err != nil {
					return nil, err
				}
				return next(ctx, "eth_sendRawTransaction", []any{raw.String()})
			}
		}
	}, nil
}
