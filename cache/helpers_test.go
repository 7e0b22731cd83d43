package cache

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/rpc"
)

// fakeChain is an in-process node with a movable head.
type fakeChain struct {
	mu        sync.Mutex
	head      uint64
	blockTime uint64
	fail      error
	calls     map[string]int
}

func newFakeChain(head, blockTime uint64) *fakeChain {
	return &fakeChain{head: head, blockTime: blockTime, calls: make(map[string]int)}
}

func blockHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n + 0xabc000))
}

func (c *fakeChain) block(n uint64) map[string]any {
	return map[string]any{
		"number":     hexutil.EncodeUint64(n),
		"hash":       blockHash(n).Hex(),
		"parentHash": blockHash(n - 1).Hex(),
		"timestamp":  hexutil.EncodeUint64(1_600_000_000 + n*c.blockTime),
		"gasLimit":   hexutil.EncodeUint64(30_000_000),
		"miner":      common.Address{}.Hex(),
		"extraData":  "0x",
	}
}

func (c *fakeChain) setHead(n uint64) {
	c.mu.Lock()
	c.head = n
	c.mu.Unlock()
}

func (c *fakeChain) setFail(err error) {
	c.mu.Lock()
	c.fail = err
	c.mu.Unlock()
}

func (c *fakeChain) count(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[call]
}

// Request answers a handful of methods. Block fetches are counted as
// "eth_getBlockByNumber <id>", everything else by method name.
func (c *fakeChain) Request(_ context.Context, method string, params []any) (*rpc.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if method == "eth_getBlockByNumber" {
		id := params[0].(string)
		c.calls[method+" "+id]++
		if c.fail != nil {
			return nil, c.fail
		}
		n := c.head
		if id != rpc.BlockLatest {
			v, err := hexutil.DecodeUint64(id)
			if err != nil {
				return nil, err
			}
			n = v
		}
		if n > c.head {
			return &rpc.Response{}, nil
		}
		return &rpc.Response{Result: c.block(n)}, nil
	}

	c.calls[method]++
	switch method {
	case "web3_clientVersion":
		return &rpc.Response{Result: "Geth/v1.14.12"}, nil
	case "web3_sha3":
		return &rpc.Response{Result: fmt.Sprintf("0x%x", len(fmt.Sprint(params)))}, nil
	case "eth_accounts":
		return &rpc.Response{Result: []any{"0x0000000000000000000000000000000000000001"}}, nil
	case "eth_getBalance":
		return &rpc.Response{Result: hexutil.EncodeUint64(c.head * 10)}, nil
	case "eth_getTransactionByHash":
		return &rpc.Response{}, nil
	case "eth_call":
		return &rpc.Response{Error: &rpc.Error{Code: 3, Message: "execution reverted"}}, nil
	default:
		return &rpc.Response{Result: "0x1"}, nil
	}
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
