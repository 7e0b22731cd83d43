package txn

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/jonwraymond/rpcops/rpc"
)

// PollConfig bounds a wait helper.
type PollConfig struct {
	// Timeout is the overall time budget.
	// Default: 120 seconds
	Timeout time.Duration

	// Interval is the first delay between polls; later delays grow
	// exponentially.
	// Default: 100 milliseconds
	Interval time.Duration

	// MaxInterval caps the delay between polls.
	// Default: 5 seconds
	MaxInterval time.Duration
}

func (c PollConfig) withDefaults() PollConfig {
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	if c.Interval <= 0 {
		c.Interval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	if c.MaxInterval < c.Interval {
		c.MaxInterval = c.Interval
	}
	return c
}

func (c PollConfig) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.Interval
	b.MaxInterval = c.MaxInterval
	b.MaxElapsedTime = c.Timeout
	return backoff.WithContext(b, ctx)
}

var errPending = errors.New("txn: receipt has no block yet")

// WaitForReceipt polls for the receipt of hash until it is in a block. A
// missing receipt means "not yet"; running out of time returns a
// TimeoutExhaustedError.
func WaitForReceipt(ctx context.Context, client rpc.Requester, hash common.Hash, cfg PollConfig) (*Receipt, error) {
	cfg = cfg.withDefaults()

	var receipt *Receipt
	err := poll(ctx, cfg, func() error {
		r, err := GetReceipt(ctx, client, hash)
		if err != nil {
			return err
		}
		if r.BlockHash == nil {
			return errPending
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, exhausted(ctx, err, "receipt "+hash.Hex(), cfg.Timeout)
	}
	return receipt, nil
}

// WaitForBlock polls until the node has a block at height n.
func WaitForBlock(ctx context.Context, client rpc.Requester, n uint64, cfg PollConfig) (*rpc.BlockHeader, error) {
	cfg = cfg.withDefaults()

	var block *rpc.BlockHeader
	err := poll(ctx, cfg, func() error {
		b, err := rpc.BlockByNumber(ctx, client, n)
		if err != nil {
			return err
		}
		block = b
		return nil
	})
	if err != nil {
		return nil, exhausted(ctx, err, "block "+hexutil.EncodeUint64(n), cfg.Timeout)
	}
	return block, nil
}

// poll retries op on the backoff schedule while it reports "not yet". Any
// other error ends the wait.
func poll(ctx context.Context, cfg PollConfig, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || notYet(err) {
			return err
		}
		return backoff.Permanent(err)
	}, cfg.backOff(ctx))
}

func notYet(err error) bool {
	return errors.Is(err, rpc.ErrNotFound) || errors.Is(err, errPending)
}

func exhausted(ctx context.Context, err error, what string, timeout time.Duration) error {
	if ctx.Err() != nil || !notYet(err) {
		return err
	}
	return &rpc.TimeoutExhaustedError{What: what, Timeout: timeout, Last: err}
}
