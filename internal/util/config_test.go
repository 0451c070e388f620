package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigurationMissingFile(t *testing.T) {
	base := DefaultConfiguration()
	base.RootPath = t.TempDir()

	cfg, err := LoadConfiguration(base, "")
	require.NoError(t, err)
	if diff := cmp.Diff(base, cfg); diff != "" {
		t.Errorf("config changed without a file (-want +got):\n%s", diff)
	}

	_, err = LoadConfiguration(base, filepath.Join(base.RootPath, "nope.toml"))
	require.Error(t, err)
}

func TestLoadConfigurationOverlay(t *testing.T) {
	dir := t.TempDir()
	src := `
home = "/opt/mika"
debug_ast = true
log_level = "debug"
module_extensions = [".mika"]
lookup_scan_depth = 8
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(src), 0o644))

	base := DefaultConfiguration()
	base.RootPath = dir
	base.Version = "1.0"

	cfg, err := LoadConfiguration(base, "")
	require.NoError(t, err)

	want := base
	want.MikaHome = "/opt/mika"
	want.DebugAST = true
	want.LogLevel = "debug"
	want.ModuleExtensions = []string{".mika"}
	want.LookupScanDepth = 8
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestGetContextLines(t *testing.T) {
	src := "var a = 1;\nvar b = 2;\nprint c;"
	out := GetContextLines(src, 3, 7)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)
	require.Contains(t, lines[0], "1 | var a = 1;")
	require.Contains(t, lines[2], ">    3 | print c;")
	require.True(t, strings.HasSuffix(lines[3], "^ here"))
	require.Equal(t, strings.Index(lines[2], "c;"), strings.Index(lines[3], "^"))

	require.Empty(t, GetContextLines(src, 9, 1))
}
