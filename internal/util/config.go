package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const DefaultMaxCallDepth = 1000

type Configuration struct {
	Version     string `toml:"-" yaml:"-"`
	BuildDate   string `toml:"-" yaml:"-"`
	Commit      string `toml:"-" yaml:"-"`
	RootPath    string `toml:"root_path" yaml:"root_path"`
	HemlockHome string `toml:"hemlock_home" yaml:"hemlock_home"`
	DebugAST    bool   `toml:"debug_ast" yaml:"debug_ast"`
	LogLevel    string `toml:"log_level" yaml:"log_level"`
	LogFile     string `toml:"log_file" yaml:"log_file"`
	// MaxCallDepth bounds user function recursion; zero means DefaultMaxCallDepth.
	MaxCallDepth int      `toml:"max_call_depth" yaml:"max_call_depth"`
	Args         []string `toml:"-" yaml:"-"`
}

// CallDepth is the effective recursion limit.
func (c Configuration) CallDepth() int {
	if c.MaxCallDepth <= 0 {
		return DefaultMaxCallDepth
	}
	return c.MaxCallDepth
}

// LoadConfigFile merges the settings of a TOML or YAML file into base.
// Fields absent from the file keep their base values.
func LoadConfigFile(path string, base Configuration) (Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := base
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return base, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return base, fmt.Errorf("parsing config %s: %w", path, err)
		}
	default:
		return base, fmt.Errorf("unsupported config format %q (want .toml, .yaml or .yml)", filepath.Ext(path))
	}
	return cfg, nil
}
