package value_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/value"
)

func TestCoerceLiteralLadder(t *testing.T) {
	require.Equal(t, value.NewInt(42), value.CoerceLiteral("42"))
	require.Equal(t, value.NewFloat(1.5), value.CoerceLiteral("1.5"))
	require.Equal(t, value.NewBool(true), value.CoerceLiteral("true"))
	require.Equal(t, value.NewBool(false), value.CoerceLiteral("False"))
	require.Equal(t, value.NewText("hello"), value.CoerceLiteral("hello"))
}

func TestCoerceLiteralUnderscoreNeverCoerced(t *testing.T) {
	v := value.CoerceLiteral("1_000")
	require.Equal(t, value.Text, v.Kind)
	require.Equal(t, "1_000", v.S)
}

func TestCoerceLiteralQuotedString(t *testing.T) {
	v := value.CoerceLiteral("'42'")
	require.Equal(t, value.Text, v.Kind)
	require.Equal(t, "42", v.S)
}

func TestEqualComparesNumericKindsAcrossIntFloat(t *testing.T) {
	require.True(t, value.Equal(value.NewInt(1), value.NewFloat(1.0)))
	require.False(t, value.Equal(value.NewInt(1), value.NewFloat(1.1)))
}

func TestTruthyMatchesPythonLikeCoercion(t *testing.T) {
	require.False(t, value.NewInt(0).Truthy())
	require.True(t, value.NewInt(1).Truthy())
	require.False(t, value.NewText("").Truthy())
	require.True(t, value.NewText("x").Truthy())
	require.False(t, value.NewList(nil).Truthy())
}

func TestStringFormatsFloatWithTrailingZero(t *testing.T) {
	require.Equal(t, "2.0", value.NewFloat(2).String())
	require.Equal(t, "2.5", value.NewFloat(2.5).String())
}

func TestStringRendersListWithQuotedText(t *testing.T) {
	l := value.NewList([]value.Value{value.NewText("a"), value.NewInt(1)})
	require.Equal(t, `["a", 1]`, l.String())
}
