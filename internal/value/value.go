// Package value defines the typed value sum that flows through the
// expression evaluator and the scoped symbol table: integers, floats,
// booleans, text, opaque XML node references, and the small amount of
// list/dict structure needed by the exposed python-compatibility
// builtins (sorted, range, enumerate, zip, ...).
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies which arm of the Value sum is populated.
type Kind int

const (
	Int Kind = iota
	Float
	Bool
	Text
	NodeRef
	List
	Dict
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Text:
		return "str"
	case NodeRef:
		return "node"
	case List:
		return "list"
	case Dict:
		return "dict"
	default:
		return "unknown"
	}
}

// Value is a tagged union. Node carries an opaque handle (an
// *xmlnode.Node in practice) so that this package never needs to import
// the DOM package, avoiding an import cycle.
type Value struct {
	Kind Kind
	I    int64
	F    float64
	B    bool
	S    string
	Node any
	L    []Value
	D    map[string]Value
}

func NewInt(i int64) Value      { return Value{Kind: Int, I: i} }
func NewFloat(f float64) Value  { return Value{Kind: Float, F: f} }
func NewBool(b bool) Value      { return Value{Kind: Bool, B: b} }
func NewText(s string) Value    { return Value{Kind: Text, S: s} }
func NewNode(n any) Value       { return Value{Kind: NodeRef, Node: n} }
func NewList(l []Value) Value   { return Value{Kind: List, L: l} }
func NewDict(d map[string]Value) Value {
	return Value{Kind: Dict, D: d}
}

// IsNumeric reports whether the value is an Int or a Float.
func (v Value) IsNumeric() bool { return v.Kind == Int || v.Kind == Float }

// AsFloat coerces a numeric value to float64; a Bool converts to 1 or 0.
// It panics on every other kind; callers must check IsNumeric first or
// be certain of the kind.
func (v Value) AsFloat() float64 {
	switch v.Kind {
	case Int:
		return float64(v.I)
	case Float:
		return v.F
	case Bool:
		if v.B {
			return 1
		}
		return 0
	}
	panic(fmt.Sprintf("value: AsFloat on non-numeric kind %s", v.Kind))
}

// String renders the value the way text-evaluation joins and the
// $-extension resolver stringify results, matching the original's
// `unicode(value)` coercion.
func (v Value) String() string {
	switch v.Kind {
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Float:
		return formatFloat(v.F)
	case Bool:
		if v.B {
			return "True"
		}
		return "False"
	case Text:
		return v.S
	case NodeRef:
		return fmt.Sprintf("%v", v.Node)
	case List:
		parts := make([]string, len(v.L))
		for i, e := range v.L {
			parts[i] = e.pyRepr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Dict:
		keys := make([]string, 0, len(v.D))
		for k := range v.D {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%q: %s", k, v.D[k].pyRepr())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

// pyRepr is used when embedding a value inside a list/dict rendering,
// where strings need their quotes (Python repr semantics, approximated).
func (v Value) pyRepr() string {
	if v.Kind == Text {
		return fmt.Sprintf("%q", v.S)
	}
	return v.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Truthy implements Python-ish truthiness for use by boolean operators
// and conditionals that fall back to `bool(x)` rather than the stricter
// xacro if/unless coercion (see spec ``get_boolean_value``, implemented
// in package walker).
func (v Value) Truthy() bool {
	switch v.Kind {
	case Int:
		return v.I != 0
	case Float:
		return v.F != 0
	case Bool:
		return v.B
	case Text:
		return v.S != ""
	case List:
		return len(v.L) != 0
	case Dict:
		return len(v.D) != 0
	case NodeRef:
		return v.Node != nil
	}
	return false
}

// Equal reports value equality across compatible kinds, with numeric
// kinds compared by float value (so Int(1) == Float(1.0)).
func Equal(a, b Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		return a.AsFloat() == b.AsFloat()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Bool:
		return a.B == b.B
	case Text:
		return a.S == b.S
	case NodeRef:
		return a.Node == b.Node
	case List:
		if len(a.L) != len(b.L) {
			return false
		}
		for i := range a.L {
			if !Equal(a.L[i], b.L[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// CoerceLiteral implements the literal-coercion ladder from spec.md §3:
// int -> float -> bool -> keep-as-text, with the underscore exception
// (a numeric-looking literal containing an underscore is never coerced,
// matching the original, where Python 3 would otherwise silently accept
// "1_000" as a digit-grouped number). A value wrapped in single quotes
// is returned as text with the quotes removed.
func CoerceLiteral(raw string) Value {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return NewText(raw[1 : len(raw)-1])
	}
	if strings.Contains(raw, "_") {
		return NewText(raw)
	}
	if i, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64); err == nil {
		return NewInt(i)
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return NewFloat(f)
	}
	switch strings.TrimSpace(raw) {
	case "true", "True":
		return NewBool(true)
	case "false", "False":
		return NewBool(false)
	}
	return NewText(raw)
}
