package onion

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/jonwraymond/rpcops/rpc"
)

// ErrLayerNotFound is returned when a named layer does not exist in the onion.
var ErrLayerNotFound = errors.New("onion: layer not found")

// Client is the handle a middleware receives. It issues calls through the
// whole pipeline, including the calling middleware itself.
type Client = rpc.Requester

// Wrapper turns the next stage into this stage.
//
// A Wrapper may be applied again every time the onion is rebuilt, so it must
// not allocate per-client state. Keep that state in the Middleware closure.
type Wrapper func(next rpc.RequestFunc) rpc.RequestFunc

// Middleware constructs a stage for one client. It runs exactly once each
// time the layer is inserted into an onion.
type Middleware func(client Client) Wrapper

// Layer is a named middleware.
type Layer struct {
	Name       string
	Middleware Middleware
}

type entry struct {
	name string
	wrap Wrapper
}

type snapshot struct {
	layers []entry
	chain  rpc.RequestFunc
}

// Onion is an ordered stack of named middlewares around a transport.
// Index 0 is the outermost layer.
//
// Mutations are serialized and copy-on-write: a failed mutation leaves the
// onion unchanged, and Request always runs against one complete chain.
type Onion struct {
	mu        sync.Mutex
	transport rpc.RequestFunc
	current   atomic.Pointer[snapshot]
}

// New creates an onion over transport with layers given outermost first.
func New(transport rpc.RequestFunc, layers ...Layer) (*Onion, error) {
	if transport == nil {
		return nil, rpc.Validationf("new", "transport is required")
	}
	o := &Onion{transport: transport}
	o.current.Store(&snapshot{chain: transport})
	if len(layers) == 0 {
		return o, nil
	}

	seen := make(map[string]bool, len(layers))
	for _, l := range layers {
		if err := validateLayer("new", l.Name, l.Middleware); err != nil {
			return nil, err
		}
		if seen[l.Name] {
			return nil, rpc.Validationf("new", "duplicate layer %q", l.Name)
		}
		seen[l.Name] = true
	}

	entries := make([]entry, 0, len(layers))
	for _, l := range layers {
		e, err := o.construct("new", l.Name, l.Middleware)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	o.publish(entries)
	return o, nil
}

// Build composes layers around transport as L0(L1(...Ln(transport))),
// running each middleware constructor once with client.
func Build(layers []Layer, transport rpc.RequestFunc, client Client) rpc.RequestFunc {
	fn := transport
	wrappers := make([]Wrapper, len(layers))
	for i, l := range layers {
		wrappers[i] = l.Middleware(client)
	}
	for i := len(wrappers) - 1; i >= 0; i-- {
		fn = wrappers[i](fn)
	}
	return fn
}

// Request sends a call through the current chain.
func (o *Onion) Request(ctx context.Context, method string, params []any) (*rpc.Response, error) {
	return o.current.Load().chain(ctx, method, params)
}

// Add inserts mw as the new outermost layer.
func (o *Onion) Add(mw Middleware, name string) error {
	return o.Inject(mw, name, 0)
}

// Inject inserts mw at absolute index k, 0 being outermost and Len() innermost.
func (o *Onion) Inject(mw Middleware, name string, k int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	layers := o.current.Load().layers
	if err := o.checkInsert("inject", name, mw, layers); err != nil {
		return err
	}
	if k < 0 || k > len(layers) {
		return rpc.Validationf("inject", "index %d out of range [0, %d]", k, len(layers))
	}
	return o.insertAt("inject", layers, k, name, mw)
}

// AddBefore inserts mw immediately outside of ref.
func (o *Onion) AddBefore(ref string, mw Middleware, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	layers := o.current.Load().layers
	i := indexOf(layers, ref)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, ref)
	}
	if err := o.checkInsert("add_before", name, mw, layers); err != nil {
		return err
	}
	return o.insertAt("add_before", layers, i, name, mw)
}

// AddAfter inserts mw immediately inside of ref.
func (o *Onion) AddAfter(ref string, mw Middleware, name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	layers := o.current.Load().layers
	i := indexOf(layers, ref)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, ref)
	}
	if err := o.checkInsert("add_after", name, mw, layers); err != nil {
		return err
	}
	return o.insertAt("add_after", layers, i+1, name, mw)
}

// Replace swaps the middleware of an existing layer, keeping its position.
func (o *Onion) Replace(name string, mw Middleware) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	layers := o.current.Load().layers
	i := indexOf(layers, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	if err := validateLayer("replace", name, mw); err != nil {
		return err
	}
	e, err := o.construct("replace", name, mw)
	if err != nil {
		return err
	}
	next := slices.Clone(layers)
	next[i] = e
	o.publish(next)
	return nil
}

// Remove deletes a layer by name.
func (o *Onion) Remove(name string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	layers := o.current.Load().layers
	i := indexOf(layers, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, name)
	}
	o.publish(slices.Delete(slices.Clone(layers), i, i+1))
	return nil
}

// Clear removes every layer, leaving the bare transport.
func (o *Onion) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publish(nil)
}

// Names returns layer names, outermost first.
func (o *Onion) Names() []string {
	layers := o.current.Load().layers
	names := make([]string, len(layers))
	for i, e := range layers {
		names[i] = e.name
	}
	return names
}

// Len returns the number of layers.
func (o *Onion) Len() int {
	return len(o.current.Load().layers)
}

// Has reports whether a layer with name exists.
func (o *Onion) Has(name string) bool {
	return indexOf(o.current.Load().layers, name) >= 0
}

func (o *Onion) checkInsert(op, name string, mw Middleware, layers []entry) error {
	if err := validateLayer(op, name, mw); err != nil {
		return err
	}
	if indexOf(layers, name) >= 0 {
		return rpc.Validationf(op, "duplicate layer %q", name)
	}
	return nil
}

func (o *Onion) insertAt(op string, layers []entry, k int, name string, mw Middleware) error {
	e, err := o.construct(op, name, mw)
	if err != nil {
		return err
	}
	o.publish(slices.Insert(slices.Clone(layers), k, e))
	return nil
}

func (o *Onion) construct(op, name string, mw Middleware) (entry, error) {
	w := mw(o)
	if w == nil {
		return entry{}, rpc.Validationf(op, "middleware %q returned a nil wrapper", name)
	}
	return entry{name: name, wrap: w}, nil
}

// publish composes layers and swaps them in. Caller holds mu.
func (o *Onion) publish(layers []entry) {
	fn := o.transport
	for i := len(layers) - 1; i >= 0; i-- {
		fn = layers[i].wrap(fn)
	}
	o.current.Store(&snapshot{layers: layers, chain: fn})
}

func validateLayer(op, name string, mw Middleware) error {
	if name == "" {
		return rpc.Validationf(op, "layer name is required")
	}
	if mw == nil {
		return rpc.Validationf(op, "middleware %q is nil", name)
	}
	return nil
}

func indexOf(layers []entry, name string) int {
	return slices.IndexFunc(layers, func(e entry) bool { return e.name == name })
}
