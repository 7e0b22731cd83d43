package abi

import (
	"regexp"
	"strconv"
	"strings"

	gethabi "github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/jonwraymond/rpcops/rpc"
)

// Argument is a named ABI parameter in the JSON-ABI layout. Tuple arguments
// use Type "tuple" (optionally with array suffixes) and list their fields in
// Components.
type Argument struct {
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Type       string     `json:"type" yaml:"type"`
	Components []Argument `json:"components,omitempty" yaml:"components,omitempty"`
}

type kind int

const (
	kindElem kind = iota
	kindArray
	kindTuple
)

// typeNode is a parsed type string.
type typeNode struct {
	name string
	kind kind

	// normalizeAs is set for enum-shaped names.
	normalizeAs string

	elem   *typeNode
	length int // -1 for dynamic arrays

	comps []*typeNode
	names []string
}

var (
	enumPattern = regexp.MustCompile(`^[A-Za-z_]\w*\.[A-Za-z_]\w*$`)
	dimPattern  = regexp.MustCompile(`^\[(\d*)\]`)
)

var aliases = map[string]string{
	"uint": "uint256",
	"int":  "int256",
	"byte": "bytes1",
}

// CanonicalType parses s and returns its canonical spelling, with aliases
// such as uint expanded.
func CanonicalType(s string) (string, error) {
	t, err := parseType(s)
	if err != nil {
		return "", err
	}
	return t.name, nil
}

func parseType(s string) (*typeNode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, rpc.Validationf("abi", "empty type")
	}

	if strings.HasSuffix(s, "]") {
		i := strings.LastIndexByte(s, '[')
		if i <= 0 {
			return nil, rpc.Validationf("abi", "malformed array type %q", s)
		}
		elem, err := parseType(s[:i])
		if err != nil {
			return nil, err
		}
		return arrayOf(elem, s[i+1:len(s)-1], s)
	}

	if strings.HasPrefix(s, "(") {
		if !strings.HasSuffix(s, ")") {
			return nil, rpc.Validationf("abi", "malformed tuple type %q", s)
		}
		parts, err := splitTopLevel(s[1 : len(s)-1])
		if err != nil {
			return nil, rpc.Validationf("abi", "%s in %q", err.Error(), s)
		}
		t := &typeNode{kind: kindTuple}
		for _, p := range parts {
			c, err := parseType(p)
			if err != nil {
				return nil, err
			}
			t.comps = append(t.comps, c)
		}
		t.names = make([]string, len(t.comps))
		t.name = tupleName(t.comps)
		return t, nil
	}

	if enumPattern.MatchString(s) {
		return &typeNode{name: s, kind: kindElem, normalizeAs: "uint8"}, nil
	}

	if a, ok := aliases[s]; ok {
		s = a
	}
	typ, err := gethabi.NewType(s, "", nil)
	if err != nil {
		return nil, rpc.Validationf("abi", "unsupported type %q: %v", s, err)
	}
	switch typ.T {
	case gethabi.SliceTy, gethabi.ArrayTy, gethabi.TupleTy:
		return nil, rpc.Validationf("abi", "unexpected composite type %q", s)
	}
	return &typeNode{name: s, kind: kindElem}, nil
}

func arrayOf(elem *typeNode, dim, src string) (*typeNode, error) {
	t := &typeNode{kind: kindArray, elem: elem, length: -1}
	if dim != "" {
		n, err := strconv.Atoi(dim)
		if err != nil || n <= 0 {
			return nil, rpc.Validationf("abi", "bad array length in %q", src)
		}
		t.length = n
	}
	t.name = elem.name + "[" + dim + "]"
	return t, nil
}

func tupleName(comps []*typeNode) string {
	names := make([]string, len(comps))
	for i, c := range comps {
		names[i] = c.name
	}
	return "(" + strings.Join(names, ",") + ")"
}

// splitTopLevel splits a tuple body on commas outside nested parentheses.
func splitTopLevel(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var (
		parts []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, rpc.Validationf("abi", "unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, rpc.Validationf("abi", "unbalanced parentheses")
	}
	return append(parts, s[start:]), nil
}

func parseArgument(a Argument) (*typeNode, error) {
	if a.Type == "" {
		return nil, nil
	}
	if !strings.HasPrefix(a.Type, "tuple") {
		return parseType(a.Type)
	}

	t := &typeNode{kind: kindTuple}
	for _, c := range a.Components {
		ct, err := parseArgument(c)
		if err != nil {
			return nil, err
		}
		if ct == nil {
			return nil, rpc.Validationf("abi", "component %q of %s has no type", c.Name, a.Name)
		}
		t.comps = append(t.comps, ct)
		t.names = append(t.names, c.Name)
	}
	t.name = tupleName(t.comps)

	suffix := a.Type[len("tuple"):]
	for suffix != "" {
		m := dimPattern.FindStringSubmatch(suffix)
		if m == nil {
			return nil, rpc.Validationf("abi", "malformed tuple type %q", a.Type)
		}
		var err error
		if t, err = arrayOf(t, m[1], a.Type); err != nil {
			return nil, err
		}
		suffix = suffix[len(m[0]):]
	}
	return t, nil
}
