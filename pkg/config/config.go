package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for bugsight.
type Config struct {
	// Metrics engine settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis" json:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude" json:"exclude"`

	// Cache settings
	Cache CacheConfig `koanf:"cache" toml:"cache" json:"cache"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output" json:"output"`

	// Logging settings
	Log LogConfig `koanf:"log" toml:"log" json:"log"`
}

// AnalysisConfig controls the metrics engine.
type AnalysisConfig struct {
	// Receiver names treated as the instance in self.attr
	SelfNames []string `koanf:"self_names" toml:"self_names" json:"self_names"`
	// cap or error
	CyclePolicy  string `koanf:"cycle_policy" toml:"cycle_policy" json:"cycle_policy"`
	IncludeTests bool   `koanf:"include_tests" toml:"include_tests" json:"include_tests"`
	// Files larger than this many bytes are skipped (0 = no limit)
	MaxFileSize int64 `koanf:"max_file_size" toml:"max_file_size" json:"max_file_size"`
	// Worker count (0 = 2x NumCPU)
	Workers int `koanf:"workers" toml:"workers" json:"workers"`
}

// ExcludeConfig defines file exclusion patterns.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns" json:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs" json:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore" json:"gitignore"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled bool   `koanf:"enabled" toml:"enabled" json:"enabled"`
	Dir     string `koanf:"dir" toml:"dir" json:"dir"`
	TTL     int    `koanf:"ttl" toml:"ttl" json:"ttl"` // TTL in hours
}

// OutputConfig controls output formatting.
type OutputConfig struct {
	Format string `koanf:"format" toml:"format" json:"format"` // text, json, markdown, toon
	Color  bool   `koanf:"color" toml:"color" json:"color"`
	SortBy string `koanf:"sort_by" toml:"sort_by" json:"sort_by"`
	Top    int    `koanf:"top" toml:"top" json:"top"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `koanf:"level" toml:"level" json:"level"`   // debug, info, warn, error
	Format string `koanf:"format" toml:"format" json:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			SelfNames:    []string{"self", "cls"},
			CyclePolicy:  "cap",
			IncludeTests: false,
			MaxFileSize:  1 << 20,
			Workers:      0,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{
				"*_pb2.py",
				"*_pb2_grpc.py",
			},
			Dirs: []string{
				".git",
				".bugsight",
				".venv",
				"venv",
				"__pycache__",
				"site-packages",
				"build",
				"dist",
				".tox",
				".mypy_cache",
			},
			Gitignore: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".bugsight/cache",
			TTL:     24,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
			SortBy: "",
			Top:    0,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// ConfigNames are the file names searched for by LoadConfig, in order.
var ConfigNames = []string{
	"bugsight.toml",
	"bugsight.yaml",
	"bugsight.yml",
	"bugsight.json",
	".bugsight.toml",
	".bugsight.yaml",
	".bugsight.yml",
	".bugsight.json",
}

// searchDirs are searched relative to the working directory.
var searchDirs = []string{".", ".bugsight"}

// LoadResult is a loaded configuration and where it came from.
type LoadResult struct {
	Config *Config
	// Source is the file the config was read from, empty for defaults.
	Source string
}

type loadOptions struct {
	path string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads an explicit file instead of searching standard locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// LoadConfig loads an explicit file, or the first config found in the
// standard locations, or the defaults. Unlike LoadOrDefault it reports
// invalid files.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if o.path != "" {
		cfg, err := Load(o.path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: o.path}, nil
	}

	if path := findConfig(); path != "" {
		cfg, err := Load(path)
		if err != nil {
			return nil, err
		}
		return &LoadResult{Config: cfg, Source: path}, nil
	}

	return &LoadResult{Config: DefaultConfig()}, nil
}

func findConfig() string {
	for _, dir := range searchDirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Load loads configuration from a file on top of the defaults. The file is
// checked against the config schema before it is applied.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	// Determine parser based on extension
	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	if err := validateDocument(k.Raw()); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	return cfg, nil
}

// LoadOrDefault tries to load config from standard locations or returns defaults.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks the effective configuration against the config schema.
func (c *Config) Validate() error {
	doc, err := toDocument(c)
	if err != nil {
		return err
	}
	return validateDocument(doc)
}

// IsTestFile reports whether path looks like a Python test module.
func IsTestFile(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	return strings.HasPrefix(base, "test_") ||
		strings.HasSuffix(base, "_test.py") ||
		base == "conftest.py" ||
		strings.Contains(slashed, "/tests/") ||
		strings.HasPrefix(slashed, "tests/")
}
