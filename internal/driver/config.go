package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cinder-lang/cinder/internal/emit"
)

// DefaultConfigName is the manifest filename looked up next to a source
// file when no explicit path is given.
const DefaultConfigName = "cinder.yml"

// Config is the parsed project manifest. Every field is optional; zero
// values fall back to defaults.
type Config struct {
	Path   string       `yaml:"-"`
	Name   string       `yaml:"name"`
	Target string       `yaml:"target"`
	Output string       `yaml:"output"`
	Memory MemoryConfig `yaml:"memory"`
}

// MemoryConfig tunes the bytecode target's linear-memory declaration.
type MemoryConfig struct {
	// FloorPages is the minimum declared memory size in 64KiB pages.
	// Emission grows past it when the computed footprint demands more.
	FloorPages int `yaml:"floor_pages"`
}

// DefaultConfig returns the configuration used when no manifest exists.
func DefaultConfig() Config {
	return Config{Target: string(emit.TargetHighLevel)}
}

// DefaultTarget resolves the manifest's target, falling back to the
// high-level target.
func (c Config) DefaultTarget() emit.Target {
	if c.Target == "" {
		return emit.TargetHighLevel
	}
	target, _ := emit.ParseTarget(c.Target)
	return target
}

// EmitOptions converts manifest tuning into emitter options.
func (c Config) EmitOptions() emit.Options {
	return emit.Options{MemoryFloorPages: c.Memory.FloorPages}
}

// OutputPath resolves the artifact path for a source file: the manifest's
// explicit output when set, otherwise the source path with the target's
// extension.
func (c Config) OutputPath(sourcePath string, target emit.Target) string {
	if c.Output != "" {
		return c.Output
	}
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	return base + "." + target.Extension()
}

// LoadConfig parses a manifest from disk and validates it.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("config: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", absPath, err)
	}
	defer file.Close()

	cfg, err := parseConfig(file)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", absPath, err)
	}
	cfg.Path = absPath
	return cfg, nil
}

// FindConfig walks from the source file's directory upward looking for a
// manifest. A missing manifest is not an error; the defaults apply.
func FindConfig(sourcePath string) (Config, error) {
	dir, err := filepath.Abs(filepath.Dir(sourcePath))
	if err != nil {
		return DefaultConfig(), err
	}
	for {
		candidate := filepath.Join(dir, DefaultConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return LoadConfig(candidate)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig(), nil
		}
		dir = parent
	}
}

func parseConfig(r io.Reader) (Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultConfig(), nil
		}
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Target != "" {
		if _, ok := emit.ParseTarget(c.Target); !ok {
			return fmt.Errorf("unknown target %q", c.Target)
		}
	}
	if c.Memory.FloorPages < 0 {
		return fmt.Errorf("memory floor_pages must not be negative")
	}
	return nil
}
