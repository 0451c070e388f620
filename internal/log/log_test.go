package log

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace": LevelTrace,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"none":  LevelNone,
		"bogus": LevelNone,
	}
	for in, want := range tests {
		require.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitLoggerWritesJSONToFile(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	path := filepath.Join(t.TempDir(), "nested", "dir", "mika.log")
	l := InitLogger("info", path)

	slog.Debug("dropped")
	slog.Info("module loaded", slog.String("name", "lib.util"))
	l.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, records, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(records[0]), &rec))
	require.Equal(t, "module loaded", rec["msg"])
	require.Equal(t, "lib.util", rec["name"])
}
