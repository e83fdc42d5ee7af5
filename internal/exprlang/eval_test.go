package exprlang_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/exprlang"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
)

type nopEvaluator struct{}

func (nopEvaluator) EvalText(text string, scope *symtab.Scope) (value.Value, error) {
	return value.NewText(text), nil
}

func newScope() *symtab.Scope {
	return symtab.NewRoot(nopEvaluator{}, nil)
}

func TestEvalArithmetic(t *testing.T) {
	v, err := exprlang.Eval("1 + 2 * 3", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(7), v)
}

func TestEvalFloatPromotion(t *testing.T) {
	v, err := exprlang.Eval("1 / 2", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewFloat(0.5), v)
}

func TestEvalIdentifierLookup(t *testing.T) {
	s := newScope()
	s.Set("x", value.NewInt(10), false)
	v, err := exprlang.Eval("x * 2", s, nil)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(20), v)
}

func TestEvalBooleanShortCircuit(t *testing.T) {
	v, err := exprlang.Eval("True or 1/0", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewBool(true), v)
}

func TestEvalTernary(t *testing.T) {
	v, err := exprlang.Eval("1 if True else 2", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(1), v)
}

func TestEvalComparison(t *testing.T) {
	v, err := exprlang.Eval("3 > 2 and 2 >= 2", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewBool(true), v)
}

func TestEvalStringConcat(t *testing.T) {
	v, err := exprlang.Eval("'a' + 'b'", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewText("ab"), v)
}

func TestEvalMathNamespace(t *testing.T) {
	v, err := exprlang.Eval("math.sqrt(4)", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewFloat(2), v)
}

func TestEvalFlattenedMathFunc(t *testing.T) {
	v, err := exprlang.Eval("sqrt(9)", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewFloat(3), v)
}

func TestEvalDunderRejected(t *testing.T) {
	_, err := exprlang.Eval("__import__('os')", newScope(), nil)
	require.Error(t, err)
}

func TestEvalUnknownSymbol(t *testing.T) {
	_, err := exprlang.Eval("nonexistent", newScope(), nil)
	require.Error(t, err)
	var unknown *symtab.UnknownSymbolError
	require.ErrorAs(t, err, &unknown)
}

func TestEvalListAndIndex(t *testing.T) {
	v, err := exprlang.Eval("[1, 2, 3][1]", newScope(), nil)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(2), v)
}

func TestEvalXacroArg(t *testing.T) {
	ctx := xctx.New("robot.xacro", map[string]string{"prefix": "left"})
	v, err := exprlang.Eval("xacro.arg('prefix')", newScope(), ctx)
	require.NoError(t, err)
	require.Equal(t, value.NewText("left"), v)
}
