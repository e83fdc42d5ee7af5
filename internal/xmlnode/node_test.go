package xmlnode_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/xmlnode"
)

func TestParsePreservesAttributesAndNamespace(t *testing.T) {
	src := `<robot xmlns:xacro="http://www.ros.org/wiki/xacro" name="r2d2"><xacro:property name="x" value="1"/></robot>`
	root, err := xmlnode.Parse(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, "robot", root.Name.Local)
	require.Equal(t, "http://www.ros.org/wiki/xacro", root.NSDecls["xacro"])
	name, ok := root.Attr("name")
	require.True(t, ok)
	require.Equal(t, "r2d2", name)

	child := root.FirstChildElement()
	require.NotNil(t, child)
	require.Equal(t, "property", child.Name.Local)
	require.Equal(t, "http://www.ros.org/wiki/xacro", child.Name.Space)
}

func TestParseRejectsEmptyDocument(t *testing.T) {
	_, err := xmlnode.Parse(strings.NewReader(""))
	require.Error(t, err)
}

func TestSetAttrOverwritesInPlace(t *testing.T) {
	n := xmlnode.NewElement(xmlname("link"))
	n.SetAttr("length", "1")
	n.SetAttr("width", "2")
	n.SetAttr("length", "3")
	require.Len(t, n.Attrs, 2)
	v, ok := n.Attr("length")
	require.True(t, ok)
	require.Equal(t, "3", v)
}

func TestRemoveAttrDeletesOnlyMatch(t *testing.T) {
	n := xmlnode.NewElement(xmlname("link"))
	n.SetAttr("a", "1")
	n.SetAttr("b", "2")
	n.RemoveAttr("a")
	_, ok := n.Attr("a")
	require.False(t, ok)
	v, ok := n.Attr("b")
	require.True(t, ok)
	require.Equal(t, "2", v)
}

func TestReplaceWithSpliceInPlace(t *testing.T) {
	parent := xmlnode.NewElement(xmlname("group"))
	a := xmlnode.NewElement(xmlname("a"))
	target := xmlnode.NewElement(xmlname("target"))
	b := xmlnode.NewElement(xmlname("b"))
	parent.AppendChild(a)
	parent.AppendChild(target)
	parent.AppendChild(b)

	r1 := xmlnode.NewElement(xmlname("r1"))
	r2 := xmlnode.NewElement(xmlname("r2"))
	target.ReplaceWith([]*xmlnode.Node{r1, r2})

	require.Len(t, parent.Children, 4)
	require.Equal(t, []string{"a", "r1", "r2", "b"}, names(parent.Children))
	require.Same(t, parent, r1.Parent)
	require.Nil(t, target.Parent)
}

func TestRemoveDetachesFromParent(t *testing.T) {
	parent := xmlnode.NewElement(xmlname("group"))
	child := xmlnode.NewElement(xmlname("child"))
	parent.AppendChild(child)
	child.Remove()
	require.Empty(t, parent.Children)
	require.Nil(t, child.Parent)
}

func TestCloneIsDeepAndDetached(t *testing.T) {
	parent := xmlnode.NewElement(xmlname("group"))
	parent.SetAttr("id", "1")
	child := xmlnode.NewElement(xmlname("child"))
	parent.AppendChild(child)

	clone := parent.Clone()
	require.Nil(t, clone.Parent)
	require.Len(t, clone.Children, 1)
	require.NotSame(t, child, clone.Children[0])

	clone.SetAttr("id", "2")
	v, _ := parent.Attr("id")
	require.Equal(t, "1", v)
}

func TestWriteRoundTripsNamespaceAndText(t *testing.T) {
	src := `<robot xmlns:xacro="http://www.ros.org/wiki/xacro"><link name="base"></link></robot>`
	root, err := xmlnode.Parse(strings.NewReader(src))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, xmlnode.Write(&b, root))
	out := b.String()
	require.Contains(t, out, `xmlns:xacro="http://www.ros.org/wiki/xacro"`)
	require.Contains(t, out, `<link name="base">`)
}

func names(nodes []*xmlnode.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name.Local
	}
	return out
}

func xmlname(local string) xml.Name {
	return xml.Name{Local: local}
}
