package abi

import (
	"reflect"

	"github.com/jonwraymond/rpcops/rpc"
)

// Normalizer rewrites one typed value. It receives the node's type string
// and value and returns the (possibly changed) pair. A normalizer that does
// not recognise the pair must return it unchanged.
//
// Array and tuple nodes reach normalizers too, after their children, with a
// []Node value holding the normalized children.
type Normalizer func(abiType string, value any) (string, any, error)

// Node is a value annotated with its ABI type. Untyped nodes have an empty
// Type and are never passed to normalizers.
type Node struct {
	Type  string
	Value any

	t     *typeNode
	shape reflect.Type
}

// Typed reports whether the node carries a type.
func (n Node) Typed() bool { return n.Type != "" }

// MapData applies normalizers to data, pairing data[i] with types[i]. An
// empty type string marks a value that passes through untouched. The result
// has the same length and nesting as data.
func MapData(normalizers []Normalizer, types []string, data []any) ([]any, error) {
	if len(types) != len(data) {
		return nil, rpc.Validationf("abi", "%d types for %d values", len(types), len(data))
	}
	parsed := make([]*typeNode, len(types))
	for i, s := range types {
		if s == "" {
			continue
		}
		t, err := parseType(s)
		if err != nil {
			return nil, err
		}
		parsed[i] = t
	}
	return mapParsed(normalizers, parsed, data)
}

// MapArguments is MapData over named arguments. Tuple values may be given as
// map[string]any keyed by component name; they are aligned to the declared
// component order.
func MapArguments(normalizers []Normalizer, args []Argument, data []any) ([]any, error) {
	if len(args) != len(data) {
		return nil, rpc.Validationf("abi", "%d arguments for %d values", len(args), len(data))
	}
	parsed := make([]*typeNode, len(args))
	for i, a := range args {
		t, err := parseArgument(a)
		if err != nil {
			return nil, err
		}
		parsed[i] = t
	}
	return mapParsed(normalizers, parsed, data)
}

// Annotate pairs each value with its type, recursing into arrays and tuples.
func Annotate(types []string, data []any) ([]Node, error) {
	if len(types) != len(data) {
		return nil, rpc.Validationf("abi", "%d types for %d values", len(types), len(data))
	}
	nodes := make([]Node, len(data))
	for i, s := range types {
		if s == "" {
			nodes[i] = Node{Value: data[i]}
			continue
		}
		t, err := parseType(s)
		if err != nil {
			return nil, err
		}
		if nodes[i], err = annotate(t, data[i]); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// Strip removes annotations, rebuilding plain values.
func Strip(nodes []Node) []any {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		out[i] = strip(n)
	}
	return out
}

func mapParsed(normalizers []Normalizer, parsed []*typeNode, data []any) ([]any, error) {
	out := make([]any, len(data))
	for i, t := range parsed {
		if t == nil {
			out[i] = data[i]
			continue
		}
		n, err := annotate(t, data[i])
		if err != nil {
			return nil, err
		}
		if n, err = normalize(normalizers, n); err != nil {
			return nil, err
		}
		out[i] = strip(n)
	}
	return out, nil
}

func annotate(t *typeNode, v any) (Node, error) {
	n := Node{Type: t.name, Value: v, t: t}

	switch t.kind {
	case kindArray:
		items, shape, err := sequence(t, v)
		if err != nil {
			return Node{}, err
		}
		if t.length >= 0 && len(items) != t.length {
			return Node{}, rpc.Validationf("abi", "%s needs %d items, got %d", t.name, t.length, len(items))
		}
		children := make([]Node, len(items))
		for i, item := range items {
			if children[i], err = annotate(t.elem, item); err != nil {
				return Node{}, err
			}
		}
		n.Value, n.shape = children, shape

	case kindTuple:
		items, shape, err := tupleValues(t, v)
		if err != nil {
			return Node{}, err
		}
		children := make([]Node, len(items))
		for i, item := range items {
			if children[i], err = annotate(t.comps[i], item); err != nil {
				return Node{}, err
			}
		}
		n.Value, n.shape = children, shape
	}
	return n, nil
}

func tupleValues(t *typeNode, v any) ([]any, reflect.Type, error) {
	if m, ok := v.(map[string]any); ok {
		items := make([]any, len(t.comps))
		for i, name := range t.names {
			if name == "" {
				return nil, nil, rpc.Validationf("abi", "%s has unnamed components; pass a sequence", t.name)
			}
			val, ok := m[name]
			if !ok {
				return nil, nil, &MissingFieldError{Tuple: t.name, Field: name}
			}
			items[i] = val
		}
		return items, nil, nil
	}

	items, shape, err := sequence(t, v)
	if err != nil {
		return nil, nil, err
	}
	if len(items) != len(t.comps) {
		return nil, nil, rpc.Validationf("abi", "%s has %d components, got %d values", t.name, len(t.comps), len(items))
	}
	return items, shape, nil
}

// sequence unpacks a slice or array value, returning its concrete type so the
// container can be rebuilt after normalization.
func sequence(t *typeNode, v any) ([]any, reflect.Type, error) {
	if items, ok := v.([]any); ok {
		return items, reflect.TypeOf(items), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, nil, rpc.Validationf("abi", "%s needs a sequence, got %T", t.name, v)
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, rv.Type(), nil
}

func normalize(normalizers []Normalizer, n Node) (Node, error) {
	if children, ok := n.Value.([]Node); ok && n.t != nil && n.t.kind != kindElem {
		mapped := make([]Node, len(children))
		for i, c := range children {
			var err error
			if mapped[i], err = normalize(normalizers, c); err != nil {
				return Node{}, err
			}
		}
		n.Value = mapped
	}
	if !n.Typed() {
		return n, nil
	}

	typ := n.Type
	if n.t != nil && n.t.normalizeAs != "" {
		typ = n.t.normalizeAs
	}
	for _, norm := range normalizers {
		nt, nv, err := norm(typ, n.Value)
		if err != nil {
			return Node{}, err
		}
		typ, n.Value = nt, nv
	}
	if n.t == nil || typ != n.t.normalizeAs {
		n.Type = typ
	}
	return n, nil
}

func strip(n Node) any {
	children, ok := n.Value.([]Node)
	if !ok {
		return n.Value
	}
	values := make([]any, len(children))
	for i, c := range children {
		values[i] = strip(c)
	}
	return rebuild(n.shape, values)
}

// rebuild restores the container type of a sequence when every value still
// fits its element type, and falls back to []any otherwise.
func rebuild(shape reflect.Type, values []any) any {
	if shape == nil || shape == reflect.TypeOf(values) {
		return values
	}
	elem := shape.Elem()
	var out reflect.Value
	switch shape.Kind() {
	case reflect.Slice:
		out = reflect.MakeSlice(shape, len(values), len(values))
	case reflect.Array:
		if shape.Len() != len(values) {
			return values
		}
		out = reflect.New(shape).Elem()
	default:
		return values
	}
	for i, v := range values {
		if v == nil {
			switch elem.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map:
				continue
			}
			return values
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(elem) {
			return values
		}
		out.Index(i).Set(rv)
	}
	return out.Interface()
}
