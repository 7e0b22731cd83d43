package rpc

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Block identifiers accepted by BlockByID besides hex numbers.
const (
	BlockLatest   = "latest"
	BlockPending  = "pending"
	BlockEarliest = "earliest"
)

// BlockHeader is the subset of a block object the pipeline needs.
type BlockHeader struct {
	Number     hexutil.Uint64 `json:"number"`
	Hash       common.Hash    `json:"hash"`
	ParentHash common.Hash    `json:"parentHash"`
	Timestamp  hexutil.Uint64 `json:"timestamp"`
	GasLimit   hexutil.Uint64 `json:"gasLimit"`
	Miner      common.Address `json:"miner"`
	ExtraData  hexutil.Bytes  `json:"extraData"`
}

// BlockByID fetches the block header for id without transactions.
// id is one of the named tags or a hex quantity. A null result is a NotFoundError.
func BlockByID(ctx context.Context, r Requester, id string) (*BlockHeader, error) {
	var raw json.RawMessage
	if err := Call(ctx, r, &raw, "eth_getBlockByNumber", id, false); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &NotFoundError{Kind: "block", ID: id}
	}
	var h BlockHeader
	if err := json.Unmarshal(raw, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// BlockByNumber fetches the block header at height n.
func BlockByNumber(ctx context.Context, r Requester, n uint64) (*BlockHeader, error) {
	return BlockByID(ctx, r, hexutil.EncodeUint64(n))
}
