package cache

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/rpcops/rpc"
)

// Estimator defaults.
const (
	DefaultSampleWindow = 240
	DefaultBlockTime    = 15 * time.Second
)

// BlockRateEstimator tracks the average block interval and the latest block.
//
// The average is recalibrated once the estimate is older than the number of
// blocks it was computed over. The latest block is refetched once more than
// one average interval has passed since it was fetched.
//
// BlockRateEstimator is not safe for concurrent use. ChainHeadCache only
// touches it while holding its admission flag.
type BlockRateEstimator struct {
	client rpc.Requester
	window uint64
	now    func() time.Time
	logger *zap.Logger

	avgBlockTime float64 // seconds
	sampleSize   uint64
	updatedAt    time.Time

	latest          *rpc.BlockHeader
	latestFetchedAt time.Time
}

// NewBlockRateEstimator creates an estimator that reads blocks through client.
func NewBlockRateEstimator(client rpc.Requester, window uint64, seed time.Duration, now func() time.Time, logger *zap.Logger) *BlockRateEstimator {
	if window == 0 {
		window = DefaultSampleWindow
	}
	if seed <= 0 {
		seed = DefaultBlockTime
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlockRateEstimator{
		client:       client,
		window:       window,
		now:          now,
		logger:       logger,
		avgBlockTime: seed.Seconds(),
	}
}

// AvgBlockTime returns the current average block interval.
func (e *BlockRateEstimator) AvgBlockTime() time.Duration {
	return time.Duration(e.avgBlockTime * float64(time.Second))
}

// SampleSize returns how many blocks the current average spans.
func (e *BlockRateEstimator) SampleSize() uint64 {
	return e.sampleSize
}

// Head returns the cached latest block, refreshing the average and the block
// itself as needed. Fetch errors are returned unchanged.
func (e *BlockRateEstimator) Head(ctx context.Context) (*rpc.BlockHeader, error) {
	now := e.now()

	if e.ageInBlocks(now) >= float64(e.sampleSize) {
		if err := e.recalibrate(ctx, now); err != nil {
			return nil, err
		}
	}

	if e.latest == nil || now.Sub(e.latestFetchedAt).Seconds() > e.avgBlockTime {
		latest, err := rpc.BlockByID(ctx, e.client, rpc.BlockLatest)
		if err != nil {
			return nil, err
		}
		e.latest = latest
		e.latestFetchedAt = now
	}
	return e.latest, nil
}

func (e *BlockRateEstimator) ageInBlocks(now time.Time) float64 {
	if e.avgBlockTime == 0 {
		return float64(e.sampleSize)
	}
	if e.updatedAt.IsZero() {
		return math.Inf(1)
	}
	return now.Sub(e.updatedAt).Seconds() / e.avgBlockTime
}

func (e *BlockRateEstimator) recalibrate(ctx context.Context, now time.Time) error {
	latest, err := rpc.BlockByID(ctx, e.client, rpc.BlockLatest)
	if err != nil {
		return err
	}
	var ancestorNum uint64
	if n := uint64(latest.Number); n > e.window {
		ancestorNum = n - e.window
	}
	ancestor, err := rpc.BlockByNumber(ctx, e.client, ancestorNum)
	if err != nil {
		return err
	}

	var sample uint64
	if latest.Number > ancestor.Number {
		sample = uint64(latest.Number - ancestor.Number)
	}
	if sample != 0 {
		elapsed := float64(latest.Timestamp) - float64(ancestor.Timestamp)
		e.avgBlockTime = elapsed / float64(sample)
	}
	e.sampleSize = sample
	e.updatedAt = now

	// The block just fetched is as fresh as a separate refresh would be.
	e.latest = latest
	e.latestFetchedAt = now

	e.logger.Info("block time recalibrated",
		zap.Float64("avg_block_time_s", e.avgBlockTime),
		zap.Uint64("sample_size", e.sampleSize),
		zap.Uint64("head", uint64(latest.Number)))
	return nil
}
