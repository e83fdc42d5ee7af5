package yamlext_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xacro-go/xacro/internal/value"
	"github.com/xacro-go/xacro/internal/xctx"
	"github.com/xacro-go/xacro/internal/yamlext"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadScalarMapping(t *testing.T) {
	path := writeTemp(t, "name: arm\ncount: 3\n")
	ctx := xctx.New("robot.xacro", nil)
	v, err := yamlext.Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, value.Dict, v.Kind)
	require.Equal(t, value.NewText("arm"), v.D["name"])
	require.Equal(t, value.NewInt(3), v.D["count"])
}

func TestLoadDegreesUnitTag(t *testing.T) {
	path := writeTemp(t, "angle: !degrees 180\n")
	ctx := xctx.New("robot.xacro", nil)
	v, err := yamlext.Load(ctx, path)
	require.NoError(t, err)
	require.InDelta(t, 3.14159265, v.D["angle"].AsFloat(), 1e-6)
}

func TestLoadMillimetersUnitTag(t *testing.T) {
	path := writeTemp(t, "length: !millimeters 500\n")
	ctx := xctx.New("robot.xacro", nil)
	v, err := yamlext.Load(ctx, path)
	require.NoError(t, err)
	require.InDelta(t, 0.5, v.D["length"].AsFloat(), 1e-9)
}

func TestLoadRecordsInclude(t *testing.T) {
	path := writeTemp(t, "x: 1\n")
	ctx := xctx.New("robot.xacro", nil)
	_, err := yamlext.Load(ctx, path)
	require.NoError(t, err)
	require.Contains(t, ctx.SortedIncludes(), path)
}

func TestLoadMissingFile(t *testing.T) {
	ctx := xctx.New("robot.xacro", nil)
	_, err := yamlext.Load(ctx, "/nonexistent/path.yaml")
	require.Error(t, err)
}

func TestLoadSequence(t *testing.T) {
	path := writeTemp(t, "- 1\n- 2\n- 3\n")
	ctx := xctx.New("robot.xacro", nil)
	v, err := yamlext.Load(ctx, path)
	require.NoError(t, err)
	require.Equal(t, value.List, v.Kind)
	require.Len(t, v.L, 3)
}
