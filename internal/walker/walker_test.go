package walker_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/macrotab"
	"github.com/xacro-go/xacro/internal/symtab"
	"github.com/xacro-go/xacro/internal/textexpr"
	"github.com/xacro-go/xacro/internal/walker"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

func parseNS(t *testing.T, xmlSrc string) *xmlnode.Node {
	t.Helper()
	wrapped := strings.Replace(xmlSrc, "<robot", `<robot xmlns:xacro="`+walker.Namespace+`"`, 1)
	node, err := xmlnode.Parse(strings.NewReader(wrapped))
	require.NoError(t, err)
	return node
}

func newEnv(t *testing.T) (*textexpr.Evaluator, *symtab.Scope, *macrotab.Table) {
	t.Helper()
	ctx := xctx.New("robot.xacro", nil)
	ev := textexpr.New(ctx)
	scope := symtab.NewRoot(ev, nil)
	macros := macrotab.NewRoot()
	return ev, scope, macros
}

func render(t *testing.T, n *xmlnode.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, xmlnode.Write(&b, n))
	return b.String()
}

func TestWalkPropertySubstitution(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:property name="width" value="2"/>
  <link length="${width*3}"/>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, `length="6"`)
	require.NotContains(t, out, "xacro:property")
}

func TestWalkMacroDefaultsAndForwarding(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:property name="side" value="front"/>
  <xacro:macro name="wheel" params="radius:=1 prefix side:=^">
    <link name="${prefix}_wheel" radius="${radius}" side="${side}"/>
  </xacro:macro>
  <xacro:wheel prefix="left"/>
  <xacro:wheel prefix="right" radius="2"/>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, `name="left_wheel" radius="1"`)
	require.Contains(t, out, `name="right_wheel" radius="2"`)
	require.Contains(t, out, `side="front"`)
	require.NotContains(t, out, "xacro:macro")
	require.NotContains(t, out, "xacro:wheel")
}

func TestWalkBlockParameter(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:macro name="wrap" params="*content">
    <group><xacro:insert_block name="content"/></group>
  </xacro:macro>
  <xacro:wrap><link name="base"/></xacro:wrap>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, "<group>")
	require.Contains(t, out, `<link name="base">`)
}

func TestWalkConditionalOnInteger(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:property name="has_sensor" value="1"/>
  <xacro:if value="${has_sensor}"><sensor/></xacro:if>
  <xacro:unless value="${has_sensor}"><no_sensor/></xacro:unless>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, "<sensor>")
	require.NotContains(t, out, "no_sensor")
}

func TestWalkSubstitutionArgWithDefault(t *testing.T) {
	ctx := xctx.New("robot.xacro", map[string]string{})
	ev := textexpr.New(ctx)
	scope := symtab.NewRoot(ev, nil)
	macros := macrotab.NewRoot()
	doc := parseNS(t, `<robot>
  <xacro:arg name="prefix" default="robot1"/>
  <link name="$(arg prefix)_base"/>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, `name="robot1_base"`)
}

func TestWalkCycleDetection(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:property name="a" value="${b}"/>
  <xacro:property name="b" value="${a}"/>
  <link length="${a}"/>
</robot>`)
	err := walker.Walk(ev, doc, scope, macros)
	require.Error(t, err)
}

func TestWalkIncludeNamespacedPropertyReachableByDottedName(t *testing.T) {
	ev, scope, macros := newEnv(t)
	dir := t.TempDir()
	included := filepath.Join(dir, "wheel.xacro")
	require.NoError(t, os.WriteFile(included, []byte(
		`<robot xmlns:xacro="`+walker.Namespace+`"><xacro:property name="radius" value="5"/></robot>`), 0o644))

	doc := parseNS(t, `<robot>
  <xacro:include filename="`+included+`" ns="wheel"/>
  <link radius="${wheel.radius}"/>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, `radius="5"`)
}

func TestWalkIncludeOptionalMissingFileIsSkipped(t *testing.T) {
	ev, scope, macros := newEnv(t)
	doc := parseNS(t, `<robot>
  <xacro:include filename="/definitely/missing/thing.xacro" optional="true"/>
  <link name="base"/>
</robot>`)
	require.NoError(t, walker.Walk(ev, doc, scope, macros))
	out := render(t, doc)
	require.Contains(t, out, `name="base"`)
}
