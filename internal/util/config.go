package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileName         = "mika.toml"
	DefaultLookupScanDepth = 64
)

var DefaultModuleExtensions = []string{".ymk", ".yumika", ".mika"}

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	RootPath         string   `toml:"root"`
	MikaHome         string   `toml:"home"`
	DebugAST         bool     `toml:"debug_ast"`
	LogLevel         string   `toml:"log_level"`
	LogFile          string   `toml:"log_file"`
	ModuleExtensions []string `toml:"module_extensions"`
	// LookupScanDepth bounds the upward frame scan for resolved names.
	LookupScanDepth int `toml:"lookup_scan_depth"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		RootPath:         ".",
		MikaHome:         os.Getenv("MIKA_HOME"),
		LogLevel:         "none",
		ModuleExtensions: append([]string(nil), DefaultModuleExtensions...),
		LookupScanDepth:  DefaultLookupScanDepth,
	}
}

// LoadConfiguration overlays the TOML file at path onto base. An empty path
// looks for mika.toml in base.RootPath and is not an error when missing.
func LoadConfiguration(base Configuration, path string) (Configuration, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(base.RootPath, ConfigFileName)
	}

	cfg := base
	_, err := toml.DecodeFile(path, &cfg)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return base, nil
	default:
		return base, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if len(cfg.ModuleExtensions) == 0 {
		cfg.ModuleExtensions = append([]string(nil), DefaultModuleExtensions...)
	}
	if cfg.LookupScanDepth <= 0 {
		cfg.LookupScanDepth = DefaultLookupScanDepth
	}
	return cfg, nil
}
