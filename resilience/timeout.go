package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/rpc"
)

// TimeoutConfig configures the timeout stage.
type TimeoutConfig struct {
	// Timeout is the maximum duration of one call attempt.
	// Default: 30 seconds
	Timeout time.Duration
}

// Timeout bounds calls with a deadline.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	return &Timeout{config: config}
}

// Execute runs op with a deadline. Expiry is reported as a transient
// timeout wrapping ErrTimeout, so an outer retry stage may try again.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
			return t.expired(ctx)
		}
		return err
	case <-ctx.Done():
		return t.expired(ctx)
	}
}

func (t *Timeout) expired(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &rpc.TransientError{Kind: rpc.KindTimeout, Err: ErrTimeout}
	}
	return ctx.Err()
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// TimeoutMiddleware returns a stage that bounds each call it sees.
func TimeoutMiddleware(config TimeoutConfig) onion.Middleware {
	return func(onion.Client) onion.Wrapper {
		t := NewTimeout(config)
		return func(next rpc.RequestFunc) rpc.RequestFunc {
			return func(ctx context.Context, method string, params []any) (*rpc.Response, error) {
				var resp *rpc.Response
				err := t.Execute(ctx, func(ctx context.Context) error {
					r, err := next(ctx, method, params)
					resp = r
					return err
				})
				if err != nil {
					return nil, err
				}
				return resp, nil
			}
		}
	}
}
