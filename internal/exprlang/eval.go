// Package exprlang implements the ${...} expression language of
// spec.md §4.1: a small, sandboxed, Python-flavored arithmetic/boolean
// expression grammar evaluated directly against a *symtab.Scope,
// generalized from the teacher's Pratt parser (package parser) and
// tree-walking evaluator (package eval), with GoMixObject's dynamic
// dispatch replaced by the closed value.Value sum and a closed builtin
// table rather than reflection over arbitrary Go values.
package exprlang

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
)

// Eval parses and evaluates a single expression (the body of a ${...}
// block, with the delimiters already stripped by the lexer) against
// scope, using ctx for the xacro.* namespace's file-stack and
// substitution-argument access.
func Eval(expr string, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	node, err := parseExpr(expr)
	if err != nil {
		return value.Value{}, err
	}
	return evalNode(node, scope, ctx)
}

func evalNode(n Node, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	switch t := n.(type) {
	case numberLit:
		return parseNumber(t.lit)
	case stringLit:
		return value.NewText(t.s), nil
	case identNode:
		return evalIdent(t.name, scope)
	case unaryNode:
		return evalUnary(t, scope, ctx)
	case binaryNode:
		return evalBinary(t, scope, ctx)
	case ternaryNode:
		cond, err := evalNode(t.cond, scope, ctx)
		if err != nil {
			return value.Value{}, err
		}
		if cond.Truthy() {
			return evalNode(t.then, scope, ctx)
		}
		return evalNode(t.els, scope, ctx)
	case listNode:
		items := make([]value.Value, len(t.items))
		for i, it := range t.items {
			v, err := evalNode(it, scope, ctx)
			if err != nil {
				return value.Value{}, err
			}
			items[i] = v
		}
		return value.NewList(items), nil
	case dictNode:
		out := make(map[string]value.Value, len(t.entries))
		for _, e := range t.entries {
			k, err := evalNode(e.key, scope, ctx)
			if err != nil {
				return value.Value{}, err
			}
			v, err := evalNode(e.val, scope, ctx)
			if err != nil {
				return value.Value{}, err
			}
			out[k.String()] = v
		}
		return value.NewDict(out), nil
	case indexNode:
		return evalIndex(t, scope, ctx)
	case attrNode:
		return evalAttrAsValue(t, scope, ctx)
	case callNode:
		return evalCall(t, scope, ctx)
	}
	return value.Value{}, fmt.Errorf("exprlang: unhandled node type %T", n)
}

func parseNumber(lit string) (value.Value, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return value.NewInt(i), nil
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return value.Value{}, fmt.Errorf("exprlang: invalid numeric literal %q", lit)
	}
	return value.NewFloat(f), nil
}

// rejectDunder enforces spec.md §4.1.G's "identifiers starting with __
// are rejected before evaluation" sandboxing rule.
func rejectDunder(name string) error {
	if strings.HasPrefix(name, "__") {
		return fmt.Errorf("exprlang: access to dunder identifier %q is not permitted", name)
	}
	return nil
}

func evalIdent(name string, scope *symtab.Scope) (value.Value, error) {
	if err := rejectDunder(name); err != nil {
		return value.Value{}, err
	}
	if scope.Has(name) {
		return scope.Get(name)
	}
	if c, ok := constants[name]; ok {
		return c, nil
	}
	return value.Value{}, &symtab.UnknownSymbolError{Name: name}
}

// evalAttrAsValue handles a bare attribute expression (not immediately
// called). Where the whole chain of receivers is itself identifiers/
// attributes (no call or index in between), it first tries the
// combined dotted name as a property inside an `xacro:include
// ns="..."` namespace (spec.md §3's "attribute-style access ns.name"),
// falling back to dict-key access, which is the only other thing a
// bare attribute expression makes sense for; the math/python/xacro
// namespaces are callable-only and are special-cased in evalCall
// instead.
func evalAttrAsValue(n attrNode, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	if dotted, ok := dottedPath(n); ok {
		if v, err := scope.Lookup(dotted); err == nil {
			return v, nil
		}
	}
	recv, err := evalNode(n.recv, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}
	if recv.Kind == value.Dict {
		if v, ok := recv.D[n.name]; ok {
			return v, nil
		}
		return value.Value{}, fmt.Errorf("exprlang: no key %q in dict", n.name)
	}
	return value.Value{}, fmt.Errorf("exprlang: %q has no attribute %q", recv.Kind, n.name)
}

// dottedPath renders n as a "a.b.c" name when every receiver in its
// chain is itself a bare identifier or attribute access, so namespace
// lookup can be attempted with a single combined key; any call, index,
// or other expression node in the chain means it is not a namespace
// path.
func dottedPath(n attrNode) (string, bool) {
	switch recv := n.recv.(type) {
	case identNode:
		return recv.name + "." + n.name, true
	case attrNode:
		base, ok := dottedPath(recv)
		if !ok {
			return "", false
		}
		return base + "." + n.name, true
	}
	return "", false
}

func evalIndex(n indexNode, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	recv, err := evalNode(n.recv, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := evalNode(n.idx, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}
	switch recv.Kind {
	case value.List:
		if !idx.IsNumeric() {
			return value.Value{}, fmt.Errorf("exprlang: list index must be numeric")
		}
		i := int(idx.AsFloat())
		if i < 0 {
			i += len(recv.L)
		}
		if i < 0 || i >= len(recv.L) {
			return value.Value{}, fmt.Errorf("exprlang: list index out of range")
		}
		return recv.L[i], nil
	case value.Dict:
		key := idx.String()
		if v, ok := recv.D[key]; ok {
			return v, nil
		}
		return value.Value{}, fmt.Errorf("exprlang: no key %q in dict", key)
	case value.Text:
		if !idx.IsNumeric() {
			return value.Value{}, fmt.Errorf("exprlang: string index must be numeric")
		}
		runes := []rune(recv.S)
		i := int(idx.AsFloat())
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return value.Value{}, fmt.Errorf("exprlang: string index out of range")
		}
		return value.NewText(string(runes[i])), nil
	}
	return value.Value{}, fmt.Errorf("exprlang: %s is not subscriptable", recv.Kind)
}

func evalUnary(n unaryNode, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	v, err := evalNode(n.expr, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}
	switch n.op {
	case tMinus:
		if !v.IsNumeric() {
			return value.Value{}, fmt.Errorf("exprlang: unary '-' requires a numeric operand")
		}
		if v.Kind == value.Int {
			return value.NewInt(-v.I), nil
		}
		return value.NewFloat(-v.AsFloat()), nil
	case tPlus:
		if !v.IsNumeric() {
			return value.Value{}, fmt.Errorf("exprlang: unary '+' requires a numeric operand")
		}
		return v, nil
	case tNot:
		return value.NewBool(!v.Truthy()), nil
	}
	return value.Value{}, fmt.Errorf("exprlang: unknown unary operator")
}

func evalBinary(n binaryNode, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	// Short-circuit boolean operators evaluate the right side lazily.
	if n.op == tAnd {
		left, err := evalNode(n.left, scope, ctx)
		if err != nil {
			return value.Value{}, err
		}
		if !left.Truthy() {
			return left, nil
		}
		return evalNode(n.right, scope, ctx)
	}
	if n.op == tOr {
		left, err := evalNode(n.left, scope, ctx)
		if err != nil {
			return value.Value{}, err
		}
		if left.Truthy() {
			return left, nil
		}
		return evalNode(n.right, scope, ctx)
	}

	left, err := evalNode(n.left, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}
	right, err := evalNode(n.right, scope, ctx)
	if err != nil {
		return value.Value{}, err
	}

	switch n.op {
	case tPlus:
		return evalAdd(left, right)
	case tMinus:
		return evalArith(left, right, "-", func(a, b float64) float64 { return a - b })
	case tStar:
		return evalMul(left, right)
	case tSlash:
		return evalDiv(left, right)
	case tSlashSlash:
		return evalFloorDiv(left, right)
	case tPercent:
		return evalMod(left, right)
	case tPow:
		return evalPowOp(left, right)
	case tEq:
		return value.NewBool(value.Equal(left, right)), nil
	case tNe:
		return value.NewBool(!value.Equal(left, right)), nil
	case tLt, tLe, tGt, tGe:
		return evalCompare(n.op, left, right)
	case tIn:
		return evalIn(left, right)
	}
	return value.Value{}, fmt.Errorf("exprlang: unknown binary operator")
}

func evalAdd(left, right value.Value) (value.Value, error) {
	if left.Kind == value.Text || right.Kind == value.Text {
		if left.Kind != value.Text || right.Kind != value.Text {
			return value.Value{}, fmt.Errorf("exprlang: cannot concatenate %s and %s", left.Kind, right.Kind)
		}
		return value.NewText(left.S + right.S), nil
	}
	if left.Kind == value.List && right.Kind == value.List {
		out := append(append([]value.Value{}, left.L...), right.L...)
		return value.NewList(out), nil
	}
	return evalArith(left, right, "+", func(a, b float64) float64 { return a + b })
}

func evalMul(left, right value.Value) (value.Value, error) {
	if left.Kind == value.Text && right.Kind == value.Int {
		return value.NewText(strings.Repeat(left.S, int(right.I))), nil
	}
	if right.Kind == value.Text && left.Kind == value.Int {
		return value.NewText(strings.Repeat(right.S, int(left.I))), nil
	}
	return evalArith(left, right, "*", func(a, b float64) float64 { return a * b })
}

func evalArith(left, right value.Value, op string, f func(a, b float64) float64) (value.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("exprlang: operator %q requires numeric operands, got %s and %s", op, left.Kind, right.Kind)
	}
	if left.Kind == value.Int && right.Kind == value.Int {
		switch op {
		case "+":
			return value.NewInt(left.I + right.I), nil
		case "-":
			return value.NewInt(left.I - right.I), nil
		case "*":
			return value.NewInt(left.I * right.I), nil
		}
	}
	return value.NewFloat(f(left.AsFloat(), right.AsFloat())), nil
}

func evalDiv(left, right value.Value) (value.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("exprlang: '/' requires numeric operands")
	}
	if right.AsFloat() == 0 {
		return value.Value{}, fmt.Errorf("exprlang: division by zero")
	}
	return value.NewFloat(left.AsFloat() / right.AsFloat()), nil
}

func evalFloorDiv(left, right value.Value) (value.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("exprlang: '//' requires numeric operands")
	}
	if right.AsFloat() == 0 {
		return value.Value{}, fmt.Errorf("exprlang: division by zero")
	}
	q := left.AsFloat() / right.AsFloat()
	fl := float64(int64(q))
	if q < 0 && fl != q {
		fl--
	}
	if left.Kind == value.Int && right.Kind == value.Int {
		return value.NewInt(int64(fl)), nil
	}
	return value.NewFloat(fl), nil
}

func evalMod(left, right value.Value) (value.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("exprlang: '%%' requires numeric operands")
	}
	if right.AsFloat() == 0 {
		return value.Value{}, fmt.Errorf("exprlang: modulo by zero")
	}
	if left.Kind == value.Int && right.Kind == value.Int {
		m := left.I % right.I
		if (m < 0) != (right.I < 0) && m != 0 {
			m += right.I
		}
		return value.NewInt(m), nil
	}
	a, b := left.AsFloat(), right.AsFloat()
	m := a - b*float64(int64(a/b))
	if (m < 0) != (b < 0) && m != 0 {
		m += b
	}
	return value.NewFloat(m), nil
}

func evalPowOp(left, right value.Value) (value.Value, error) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return value.Value{}, fmt.Errorf("exprlang: '**' requires numeric operands")
	}
	if left.Kind == value.Int && right.Kind == value.Int && right.I >= 0 {
		var out int64 = 1
		for i := int64(0); i < right.I; i++ {
			out *= left.I
		}
		return value.NewInt(out), nil
	}
	return value.NewFloat(math.Pow(left.AsFloat(), right.AsFloat())), nil
}

func evalCompare(op tokenType, left, right value.Value) (value.Value, error) {
	if left.IsNumeric() && right.IsNumeric() {
		a, b := left.AsFloat(), right.AsFloat()
		switch op {
		case tLt:
			return value.NewBool(a < b), nil
		case tLe:
			return value.NewBool(a <= b), nil
		case tGt:
			return value.NewBool(a > b), nil
		case tGe:
			return value.NewBool(a >= b), nil
		}
	}
	if left.Kind == value.Text && right.Kind == value.Text {
		switch op {
		case tLt:
			return value.NewBool(left.S < right.S), nil
		case tLe:
			return value.NewBool(left.S <= right.S), nil
		case tGt:
			return value.NewBool(left.S > right.S), nil
		case tGe:
			return value.NewBool(left.S >= right.S), nil
		}
	}
	return value.Value{}, fmt.Errorf("exprlang: cannot compare %s and %s", left.Kind, right.Kind)
}

func evalIn(left, right value.Value) (value.Value, error) {
	switch right.Kind {
	case value.List:
		for _, item := range right.L {
			if value.Equal(left, item) {
				return value.NewBool(true), nil
			}
		}
		return value.NewBool(false), nil
	case value.Dict:
		_, ok := right.D[left.String()]
		return value.NewBool(ok), nil
	case value.Text:
		return value.NewBool(strings.Contains(right.S, left.String())), nil
	}
	return value.Value{}, fmt.Errorf("exprlang: 'in' requires a list, dict, or string on the right")
}

func evalCall(n callNode, scope *symtab.Scope, ctx *xctx.Context) (value.Value, error) {
	args := make([]value.Value, len(n.args))
	for i, a := range n.args {
		v, err := evalNode(a, scope, ctx)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}

	switch fn := n.fn.(type) {
	case identNode:
		if err := rejectDunder(fn.name); err != nil {
			return value.Value{}, err
		}
		if f, ok := builtins[fn.name]; ok {
			return f(ctx, args)
		}
		return value.Value{}, fmt.Errorf("exprlang: unknown function %q", fn.name)
	case attrNode:
		recvIdent, ok := fn.recv.(identNode)
		if !ok {
			return value.Value{}, fmt.Errorf("exprlang: unsupported call target")
		}
		if err := rejectDunder(fn.name); err != nil {
			return value.Value{}, err
		}
		switch recvIdent.name {
		case "math":
			if f, ok := builtins[fn.name]; ok {
				return f(ctx, args)
			}
		case "python":
			if f, ok := pythonNamespace[fn.name]; ok {
				return f(ctx, args)
			}
		case "xacro":
			if f, ok := xacroNamespace[fn.name]; ok {
				return f(ctx, args)
			}
		}
		return value.Value{}, fmt.Errorf("exprlang: unknown function %s.%s", recvIdent.name, fn.name)
	}
	return value.Value{}, fmt.Errorf("exprlang: expression is not callable")
}
