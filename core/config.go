package core

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config file read from the working directory when
// no path is given.
const DefaultConfigFile = ".histscan.yaml"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Color modes for text output.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// ErrInvalidConfig is wrapped by every validation error from
// LoadScanConfig.
var ErrInvalidConfig = errors.New("invalid config")

// ScanConfig holds project-level configuration loaded from .histscan.yaml.
type ScanConfig struct {
	Scan   ScanSettings   `yaml:"scan"`
	Output OutputSettings `yaml:"output"`
	Log    LogSettings    `yaml:"log"`
}

// ScanSettings controls which changed files are examined.
type ScanSettings struct {
	// Exclude patterns are applied after those of the ignore file.
	Exclude    []string `yaml:"exclude"`
	IgnoreFile string   `yaml:"ignore_file"`
}

// OutputSettings controls how findings are rendered.
type OutputSettings struct {
	Format string `yaml:"format"` // text or json
	Color  string `yaml:"color"`  // auto, always or never
}

// LogSettings controls diagnostic logging on stderr.
type LogSettings struct {
	Level string `yaml:"level"` // debug, info, warn or error
}

// LoadScanConfig reads the config file at path. If the file does not exist,
// a zero-value ScanConfig is returned with no error.
func LoadScanConfig(path string) (*ScanConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ScanConfig{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg ScanConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

func (c *ScanConfig) validate() error {
	switch c.Output.Format {
	case "", FormatText, FormatJSON:
	default:
		return fmt.Errorf("%w: output.format %q", ErrInvalidConfig, c.Output.Format)
	}
	switch c.Output.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: output.color %q", ErrInvalidConfig, c.Output.Color)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}
