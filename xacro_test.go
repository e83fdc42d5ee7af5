package xacro_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

func wrap(body string) string {
	return `<robot xmlns:xacro="http://www.ros.org/wiki/xacro">` + body + `</robot>`
}

func renderResult(t *testing.T, r *xacro.Result) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, xmlnode.Write(&b, r.Document))
	return b.String()
}

func TestProcessPropertySubstitution(t *testing.T) {
	src := wrap(`
		<xacro:property name="width" value="2"/>
		<link length="${width*3}"/>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.Contains(t, renderResult(t, r), `length="6"`)
}

func TestProcessMacroDefaultsAndForwarding(t *testing.T) {
	src := wrap(`
		<xacro:property name="side" value="front"/>
		<xacro:macro name="wheel" params="radius:=1 prefix side:=^">
			<link name="${prefix}_wheel" radius="${radius}" side="${side}"/>
		</xacro:macro>
		<xacro:wheel prefix="left"/>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	out := renderResult(t, r)
	require.Contains(t, out, `name="left_wheel" radius="1"`)
	require.Contains(t, out, `side="front"`)
}

func TestProcessBlockParameter(t *testing.T) {
	src := wrap(`
		<xacro:macro name="wrap" params="*content">
			<group><xacro:insert_block name="content"/></group>
		</xacro:macro>
		<xacro:wrap><link name="base"/></xacro:wrap>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	out := renderResult(t, r)
	require.Contains(t, out, "<group>")
	require.Contains(t, out, `<link name="base">`)
}

func TestProcessConditionalOnInteger(t *testing.T) {
	src := wrap(`
		<xacro:property name="flag" value="0"/>
		<xacro:if value="${flag}"><yes/></xacro:if>
		<xacro:unless value="${flag}"><no/></xacro:unless>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	out := renderResult(t, r)
	require.NotContains(t, out, "<yes>")
	require.Contains(t, out, "<no>")
}

func TestProcessCycleDetection(t *testing.T) {
	src := wrap(`
		<xacro:property name="a" value="${b}"/>
		<xacro:property name="b" value="${a}"/>
		<link length="${a}"/>
	`)
	_, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.Error(t, err)
}

func TestProcessSubstitutionArgWithDefault(t *testing.T) {
	src := wrap(`
		<xacro:arg name="prefix" default="robot1"/>
		<link name="$(arg prefix)_base"/>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.Contains(t, renderResult(t, r), `name="robot1_base"`)
}

func TestProcessMappingOverridesArgDefault(t *testing.T) {
	src := wrap(`
		<xacro:arg name="prefix" default="robot1"/>
		<link name="$(arg prefix)_base"/>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{
		InputName: "robot.xacro",
		Mappings:  map[string]string{"prefix": "robot2"},
	})
	require.NoError(t, err)
	require.Contains(t, renderResult(t, r), `name="robot2_base"`)
}

func TestProcessDeterministicOrderAcrossRuns(t *testing.T) {
	src := wrap(`
		<xacro:property name="a" value="1"/>
		<xacro:property name="b" value="${a+1}"/>
		<link x="${a}" y="${b}"/>
	`)
	r1, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	r2, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.Equal(t, renderResult(t, r1), renderResult(t, r2))
}

func TestProcessUnderscoreDigitGroupingInExpressionLiteral(t *testing.T) {
	src := wrap(`<link v="${1_000}"/>`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.Contains(t, renderResult(t, r), `v="1000"`)
}

func TestProcessAutogenBannerPrependedWhenRequested(t *testing.T) {
	src := wrap(`<link name="base"/>`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro", AutogenBanner: true})
	require.NoError(t, err)
	out := renderResult(t, r)
	require.Contains(t, out, "autogenerated by xacro from robot.xacro")
	require.Contains(t, out, `name="base"`)
}

func TestProcessNoBannerByDefault(t *testing.T) {
	src := wrap(`<link name="base"/>`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.NotContains(t, renderResult(t, r), "autogenerated")
}

func TestProcessUnderscorePropertyTextIsNeverCoerced(t *testing.T) {
	src := wrap(`
		<xacro:property name="x" value="1_000"/>
		<link v="${x}"/>
	`)
	r, err := xacro.Process(strings.NewReader(src), xacro.Options{InputName: "robot.xacro"})
	require.NoError(t, err)
	require.Contains(t, renderResult(t, r), `v="1_000"`)
}
