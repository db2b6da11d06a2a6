// Package config loads dupcheck configuration from TOML, YAML, or JSON.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration options for dupcheck.
type Config struct {
	// Source directory to analyze.
	SourceDir string `koanf:"source_dir"`

	// Analysis strategy settings.
	Analysis AnalysisConfig `koanf:"analysis"`

	// Duplication thresholds.
	Thresholds ThresholdConfig `koanf:"thresholds"`

	// File exclusion patterns.
	Ignore IgnoreConfig `koanf:"ignore"`

	// Output settings.
	Output OutputConfig `koanf:"output"`
}

// AnalysisConfig selects the detection strategy.
type AnalysisConfig struct {
	// Mode is "structural" (syntax-tree fingerprints) or "line"
	// (per-line fingerprints).
	Mode string `koanf:"mode"`

	// MaxFileSize skips files larger than this many bytes (0 = no limit).
	MaxFileSize int64 `koanf:"max_file_size"`

	// MinChars is the minimum trimmed line length considered in line mode.
	MinChars int `koanf:"min_chars"`
}

// ThresholdConfig defines duplication thresholds.
type ThresholdConfig struct {
	// MinLines is the minimum span for a structural code unit.
	MinLines int `koanf:"min_lines"`

	// MinTokens is carried for report metadata; the exact-match
	// algorithm does not consult it.
	MinTokens int `koanf:"min_tokens"`

	// MaxPercentage is the maximum allowed duplication percentage.
	// A run passes when the measured percentage is at or below it.
	MaxPercentage float64 `koanf:"max_percentage"`
}

// IgnoreConfig defines file exclusion behavior.
type IgnoreConfig struct {
	// Patterns are matched as substrings of the relative path or as
	// globs against the bare filename.
	Patterns []string `koanf:"patterns"`

	// Gitignore additionally applies .gitignore rules when the source
	// tree is inside a git repository.
	Gitignore bool `koanf:"gitignore"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format     string `koanf:"format"` // text, json, markdown
	ReportFile string `koanf:"report_file"`
	Verbose    bool   `koanf:"verbose"`
	Quiet      bool   `koanf:"quiet"`

	// Top is the number of most-repeated previews shown in verbose mode.
	Top int `koanf:"top"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceDir: "src",
		Analysis: AnalysisConfig{
			Mode:        "structural",
			MaxFileSize: 0,
			MinChars:    20,
		},
		Thresholds: ThresholdConfig{
			MinLines:      5,
			MinTokens:     50,
			MaxPercentage: 10.0,
		},
		Ignore: IgnoreConfig{
			Patterns: []string{
				"__pycache__",
				".pytest_cache",
				".mypy_cache",
				"node_modules",
				"venv",
				".venv",
				"htmlcov",
				"coverage",
				"dist",
				"build",
				"vendor",
				"*.egg-info",
				"*.min.js",
				"tests",
				"*_test.py",
				"test_*.py",
				"*_test.go",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:  "text",
			Verbose: false,
			Quiet:   false,
			Top:     5,
		},
	}
}

// Load loads configuration from a file, layered over defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault tries standard config locations, falling back to defaults.
func LoadOrDefault() *Config {
	names := []string{
		"dupcheck.toml",
		"dupcheck.yaml",
		"dupcheck.yml",
		"dupcheck.json",
		".dupcheck.toml",
		".dupcheck.yaml",
		".dupcheck.yml",
		".dupcheck.json",
	}

	for _, name := range names {
		if _, err := os.Stat(name); err == nil {
			if cfg, err := Load(name); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}
