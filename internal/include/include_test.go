package include_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/include"
)

func TestResolveSingleFile(t *testing.T) {
	files, err := include.Resolve("robot.xacro")
	require.NoError(t, err)
	require.Equal(t, []string{"robot.xacro"}, files)
}

func TestResolveGlobSortedOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.xacro", "a.xacro", "b.xacro"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("<robot/>"), 0o644))
	}
	files, err := include.Resolve(filepath.Join(dir, "*.xacro"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "a.xacro"),
		filepath.Join(dir, "b.xacro"),
		filepath.Join(dir, "c.xacro"),
	}, files)
}

func TestResolveGlobNoMatches(t *testing.T) {
	dir := t.TempDir()
	files, err := include.Resolve(filepath.Join(dir, "*.xacro"))
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestLoadParsesXML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.xacro")
	require.NoError(t, os.WriteFile(path, []byte(`<robot name="r1"><link name="base"/></robot>`), 0o644))
	node, err := include.Load(path)
	require.NoError(t, err)
	require.Equal(t, "robot", node.Name.Local)
	require.Len(t, node.Children, 1)
}

func TestLoadMissingFileIsNotExist(t *testing.T) {
	_, err := include.Load("/definitely/missing/robot.xacro")
	require.Error(t, err)
	require.True(t, include.IsNotExist(err))
}
