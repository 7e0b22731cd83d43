// Package client assembles the middleware onion in front of a node
// transport and exposes the result as a Manager.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jonwraymond/rpcops/abi"
	"github.com/jonwraymond/rpcops/onion"
	"github.com/jonwraymond/rpcops/resilience"
	"github.com/jonwraymond/rpcops/rpc"
	"github.com/jonwraymond/rpcops/txn"
)

// Layer names used by the default stack and Dial.
const (
	LayerObserve        = "observe"
	LayerGasPrice       = "gas_price_strategy"
	LayerABI            = "abi"
	LayerPoA            = "poa"
	LayerSigning        = "signing"
	LayerSimpleCache    = "simple_cache"
	LayerTTLCache       = "ttl_cache"
	LayerChainHeadCache = "chain_head_cache"
	LayerRetry          = resilience.LayerRetry
)

// Manager sends requests through an onion to one transport.
// It is safe for concurrent use.
type Manager struct {
	transport rpc.Transport
	onion     *onion.Onion
	logger    *zap.Logger

	closers   []func(context.Context) error
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

type options struct {
	logger   *zap.Logger
	layers   []onion.Layer
	strategy txn.GasPriceStrategy
	defaults bool
	closers  []func(context.Context) error
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger handed to the default stages.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLayers adds layers outside the default stack, outermost first.
func WithLayers(layers ...onion.Layer) Option {
	return func(o *options) { o.layers = append(o.layers, layers...) }
}

// WithGasPriceStrategy sets the strategy used by the gas_price_strategy stage.
func WithGasPriceStrategy(s txn.GasPriceStrategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithoutDefaultLayers drops the default stack, leaving only WithLayers.
func WithoutDefaultLayers() Option {
	return func(o *options) { o.defaults = false }
}

func withCloser(fn func(context.Context) error) Option {
	return func(o *options) { o.closers = append(o.closers, fn) }
}

// DefaultLayers is the stack New installs unless WithoutDefaultLayers is
// given: gas_price_strategy, abi, retry.
func DefaultLayers(strategy txn.GasPriceStrategy, logger *zap.Logger) []onion.Layer {
	return []onion.Layer{
		{Name: LayerGasPrice, Middleware: txn.GasPriceStrategyMiddleware(strategy)},
		{Name: LayerABI, Middleware: abi.RequestFormatter(nil, nil)},
		{Name: LayerRetry, Middleware: resilience.RetryMiddleware(resilience.RetryStageConfig{Logger: logger})},
	}
}

// New builds a Manager over transport.
func New(transport rpc.Transport, opts ...Option) (*Manager, error) {
	if transport == nil {
		return nil, rpc.Validationf("client", "transport is required")
	}
	o := options{defaults: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	layers := o.layers
	if o.defaults {
		layers = append(layers, DefaultLayers(o.strategy, o.logger)...)
	}
	on, err := onion.New(transport.Request, layers...)
	if err != nil {
		return nil, err
	}

	return &Manager{
		transport: transport,
		onion:     on,
		logger:    o.logger,
		closers:   o.closers,
	}, nil
}

// Request sends one call through the onion.
func (m *Manager) Request(ctx context.Context, method string, params []any) (*rpc.Response, error) {
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return m.onion.Request(ctx, method, params)
}

// RequestBlocking returns the call's result, or its JSON-RPC error as a
// *rpc.Error.
func (m *Manager) RequestBlocking(ctx context.Context, method string, params ...any) (any, error) {
	if params == nil {
		params = []any{}
	}
	resp, err := m.Request(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("client: empty response")
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// Call sends method and decodes the result into out.
func (m *Manager) Call(ctx context.Context, out any, method string, params ...any) error {
	return rpc.Call(ctx, m, out, method, params...)
}

// Onion exposes the pipeline for runtime layer changes.
func (m *Manager) Onion() *onion.Onion {
	return m.onion
}

// Close closes the transport and releases telemetry. Later calls return
// ErrClosed; Close itself is idempotent.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		m.transport.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		var errs []error
		for _, fn := range m.closers {
			if err := fn(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		m.closeErr = errors.Join(errs...)
		if m.closeErr != nil {
			m.logger.Warn("client close", zap.Error(m.closeErr))
		}
	})
	return m.closeErr
}
