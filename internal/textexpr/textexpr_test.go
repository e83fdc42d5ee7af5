package textexpr_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/textexpr"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
)

func newScope(ev *textexpr.Evaluator) *symtab.Scope {
	return symtab.NewRoot(ev, nil)
}

func TestEvalTextSingleTokenTyped(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("${1+2}", s)
	require.NoError(t, err)
	require.Equal(t, value.NewInt(3), v)
}

func TestEvalTextMultiTokenJoins(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("pre-${1+2}-post", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("pre-3-post"), v)
}

func TestEvalTextPlainText(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("hello", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("hello"), v)
}

func TestEvalTextArgExtension(t *testing.T) {
	ctx := xctx.New("robot.xacro", map[string]string{"name": "bob"})
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("$(arg name)", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("bob"), v)
}

func TestEvalTextArgExtensionUndefined(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	_, err := ev.EvalText("$(arg missing)", s)
	require.Error(t, err)
}

func TestEvalTextLaunchModePassthrough(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ctx.LaunchMode = true
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("$(arg name)", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("$(arg name)"), v)
}

func TestEvalTextOptenvDefault(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("$(optenv XACRO_TEST_UNSET_VAR fallback)", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("fallback"), v)
}

func TestEvalTextDollarEscape(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	v, err := ev.EvalText("$${x}", s)
	require.NoError(t, err)
	require.Equal(t, value.NewText("${x}"), v)
}

func TestEvalTextPropertyLazyEval(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	s := newScope(ev)
	s.SetRaw("width", "${2*3}")
	v, err := s.Get("width")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(6), v)
}
