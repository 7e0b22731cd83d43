package health

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/rpc"
)

// NodeChecker reports whether the node answers web3_clientVersion.
type NodeChecker struct {
	client rpc.Requester
}

// NewNodeChecker creates a NodeChecker calling through client.
func NewNodeChecker(client rpc.Requester) *NodeChecker {
	return &NodeChecker{client: client}
}

func (c *NodeChecker) Name() string { return "node" }

func (c *NodeChecker) Check(ctx context.Context) Result {
	var version string
	if err := rpc.Call(ctx, c.client, &version, "web3_clientVersion"); err != nil {
		return Unhealthy("node unreachable", err)
	}
	return Healthy("node reachable").WithDetails(map[string]any{"client_version": version})
}

// HeadCheckerConfig sets the block age thresholds.
type HeadCheckerConfig struct {
	// DegradedAfter marks the head degraded when the latest block is older.
	// Default: 1 minute.
	DegradedAfter time.Duration

	// UnhealthyAfter marks the head unhealthy when the latest block is older.
	// Default: 5 minutes.
	UnhealthyAfter time.Duration

	// Now overrides the clock.
	Now func() time.Time
}

// HeadChecker compares the latest block timestamp with the wall clock.
type HeadChecker struct {
	client rpc.Requester
	config HeadCheckerConfig
}

// NewHeadChecker creates a HeadChecker. Zero thresholds take defaults and
// UnhealthyAfter is raised to DegradedAfter when smaller.
func NewHeadChecker(client rpc.Requester, config HeadCheckerConfig) *HeadChecker {
	if config.DegradedAfter <= 0 {
		config.DegradedAfter = time.Minute
	}
	if config.UnhealthyAfter <= 0 {
		config.UnhealthyAfter = 5 * time.Minute
	}
	if config.UnhealthyAfter < config.DegradedAfter {
		config.UnhealthyAfter = config.DegradedAfter
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &HeadChecker{client: client, config: config}
}

func (c *HeadChecker) Name() string { return "head" }

func (c *HeadChecker) Check(ctx context.Context) Result {
	head, err := rpc.BlockByID(ctx, c.client, rpc.BlockLatest)
	if err != nil {
		return Unhealthy("latest block unavailable", err)
	}

	age := c.config.Now().Sub(time.Unix(int64(head.Timestamp), 0))
	if age < 0 {
		age = 0
	}
	details := map[string]any{
		"number": uint64(head.Number),
		"hash":   head.Hash.Hex(),
		"age":    age.String(),
	}

	switch {
	case age > c.config.UnhealthyAfter:
		return Unhealthy(fmt.Sprintf("head is %s old", age.Round(time.Second)), ErrStaleHead).WithDetails(details)
	case age > c.config.DegradedAfter:
		return Degraded(fmt.Sprintf("head is %s old", age.Round(time.Second))).WithDetails(details)
	default:
		return Healthy("head is fresh").WithDetails(details)
	}
}

// SyncChecker reports eth_syncing. A node still syncing is degraded.
type SyncChecker struct {
	client rpc.Requester
}

// NewSyncChecker creates a SyncChecker calling through client.
func NewSyncChecker(client rpc.Requester) *SyncChecker {
	return &SyncChecker{client: client}
}

func (c *SyncChecker) Name() string { return "sync" }

type syncProgress struct {
	StartingBlock hexutil.Uint64 `json:"startingBlock"`
	CurrentBlock  hexutil.Uint64 `json:"currentBlock"`
	HighestBlock  hexutil.Uint64 `json:"highestBlock"`
}

func (c *SyncChecker) Check(ctx context.Context) Result {
	var raw json.RawMessage
	if err := rpc.Call(ctx, c.client, &raw, "eth_syncing"); err != nil {
		return Unhealthy("sync status unavailable", err)
	}

	var syncing bool
	if err := json.Unmarshal(raw, &syncing); err == nil {
		if syncing {
			return Degraded("node is syncing")
		}
		return Healthy("node is in sync")
	}

	var p syncProgress
	if err := json.Unmarshal(raw, &p); err != nil {
		return Unhealthy("unexpected eth_syncing result", err)
	}
	var behind uint64
	if p.HighestBlock > p.CurrentBlock {
		behind = uint64(p.HighestBlock - p.CurrentBlock)
	}
	return Degraded(fmt.Sprintf("node is syncing, %d blocks behind", behind)).WithDetails(map[string]any{
		"starting_block": uint64(p.StartingBlock),
		"current_block":  uint64(p.CurrentBlock),
		"highest_block":  uint64(p.HighestBlock),
	})
}
