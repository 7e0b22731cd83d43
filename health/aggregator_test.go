package health

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func blocking(name string) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) Result {
		<-ctx.Done()
		return Healthy("too late")
	})
}

func TestAggregator_RegisterOrder(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("b", Healthy("")))
	agg.Register(fixed("a", Healthy("")))
	agg.Register(fixed("b", Degraded("")))
	assert.Equal(t, []string{"b", "a"}, agg.Names())

	agg.Unregister("b")
	agg.Unregister("missing")
	assert.Equal(t, []string{"a"}, agg.Names())
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("ok", Healthy("fine")))
	agg.Register(fixed("slow", Degraded("lagging")))

	results := agg.CheckAll(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, "fine", results["ok"].Message)
	assert.Equal(t, StatusDegraded, OverallStatus(results))
	assert.False(t, results["ok"].Timestamp.IsZero())
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 20 * time.Millisecond})
	agg.Register(fixed("ok", Healthy("")))
	agg.Register(blocking("hung"))

	results := agg.CheckAll(context.Background())
	assert.Equal(t, StatusHealthy, results["ok"].Status)
	assert.Equal(t, StatusUnhealthy, results["hung"].Status)
	assert.ErrorIs(t, results["hung"].Error, ErrCheckTimeout)
}

func TestAggregator_Parallel(t *testing.T) {
	var running, peak atomic.Int32
	probe := func(name string) Checker {
		return NewCheckerFunc(name, func(context.Context) Result {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
			return Healthy("")
		})
	}

	agg := NewAggregator(AggregatorConfig{Sequential: true})
	for _, n := range []string{"a", "b", "c"} {
		agg.Register(probe(n))
	}
	agg.CheckAll(context.Background())
	assert.Equal(t, int32(1), peak.Load())
}

func TestAggregator_Check(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("ok", Healthy("fine")))

	res, err := agg.Check(context.Background(), "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusHealthy, res.Status)

	_, err = agg.Check(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrCheckerNotFound)
}

func TestOverallStatus(t *testing.T) {
	assert.Equal(t, StatusHealthy, OverallStatus(nil))
	assert.Equal(t, StatusUnhealthy, OverallStatus(map[string]Result{
		"a": Degraded(""), "b": Unhealthy("", nil), "c": Healthy(""),
	}))
}

func TestAggregator_AsChecker(t *testing.T) {
	agg := NewAggregator()
	agg.Register(fixed("node", Healthy("")))
	agg.Register(fixed("sync", Degraded("")))

	c := agg.AsChecker()
	assert.Equal(t, "aggregate", c.Name())
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "degraded", res.Details["sync"])
}
