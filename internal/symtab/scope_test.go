package symtab_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/value"
)

// echoEvaluator evaluates raw text of the form "${name}" by looking name
// up as a bare identifier reference, and returns any other text
// unchanged, enough to exercise laziness and cycle detection without
// pulling in the real text/expr evaluator.
type echoEvaluator struct{}

func (echoEvaluator) EvalText(text string, scope *symtab.Scope) (value.Value, error) {
	if !strings.HasPrefix(text, "${") || !strings.HasSuffix(text, "}") {
		return value.NewText(text), nil
	}
	name := text[2 : len(text)-1] // strip "${" "}"
	return scope.Get(name)
}

func TestLazyEvaluationOnFirstRead(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	root.SetRaw("a", "5")
	v, err := root.Get("a")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(5), v)
}

func TestCycleDetection(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	root.SetRaw("a", "${b}")
	root.SetRaw("b", "${a}")
	_, err := root.Get("a")
	require.Error(t, err)
	var cyc *symtab.CircularDefinitionError
	require.ErrorAs(t, err, &cyc)
}

func TestUnknownSymbol(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	_, err := root.Get("nope")
	require.Error(t, err)
	var unk *symtab.UnknownSymbolError
	require.ErrorAs(t, err, &unk)
}

func TestDeleteStopsAtRoot(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	root.Set("x", value.NewInt(1), false)
	child := symtab.NewChild(root)
	child.Set("x", value.NewInt(2), false)
	child.Delete("x")
	v, err := child.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(1), v, "delete must not reach past the root binding")
}

func TestUnderscoreLiteralStaysText(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	root.SetRaw("n", "1_000")
	v, err := root.Get("n")
	require.NoError(t, err)
	require.Equal(t, value.Text, v.Kind)
	require.Equal(t, "1_000", v.S)
}

func TestTopSkipsToDirectChildOfRoot(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	a := symtab.NewChild(root)
	b := symtab.NewChild(a)
	c := symtab.NewChild(b)
	require.Same(t, a, c.Top())
}

func TestNamespaceSkippedByParentScope(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	caller := symtab.NewChild(root)
	ns := caller.NewNamespace("common")
	inner := symtab.NewChild(ns)
	p, ok := inner.ParentSkippingNamespaces()
	require.True(t, ok)
	require.Same(t, caller, p, "scope=\"parent\" must skip namespace scopes to reach the real caller scope")
}

func TestLookupResolvesDottedNamespaceProperty(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	ns := root.NewNamespace("common")
	ns.Set("wheelRadius", value.NewInt(5), false)

	v, err := root.Lookup("common.wheelRadius")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(5), v)
}

func TestLookupUnknownNamespaceErrors(t *testing.T) {
	root := symtab.NewRoot(echoEvaluator{}, nil)
	_, err := root.Lookup("missing.wheelRadius")
	require.Error(t, err)
}
