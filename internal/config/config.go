package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcncl/jyt/internal/errors"
)

// Line ending names accepted in input.line_ending
const (
	LineEndingNative = "native"
	LineEndingLF     = "lf"
	LineEndingCRLF   = "crlf"
)

// Config represents the complete configuration for jyt
type Config struct {
	Input  InputConfig  `yaml:"input"`
	Output OutputConfig `yaml:"output"`
	Dev    DevConfig    `yaml:"dev"`
}

// InputConfig controls how documents are read from stdin
type InputConfig struct {
	LineEnding string `yaml:"line_ending"`
}

// OutputConfig controls how converted documents are printed
type OutputConfig struct {
	TrimTrailingNewline bool `yaml:"trim_trailing_newline"`
}

// DevConfig contains development/debug options
type DevConfig struct {
	Debug bool `yaml:"debug"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Input: InputConfig{
			LineEnding: LineEndingNative,
		},
		Output: OutputConfig{
			TrimTrailingNewline: true,
		},
		Dev: DevConfig{
			Debug: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("failed to read config file", err)
	}

	// Start with defaults
	cfg := NewConfig()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.NewConfigError("failed to parse config file", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that YAML decoding cannot
func (c *Config) Validate() error {
	switch strings.ToLower(c.Input.LineEnding) {
	case LineEndingNative, LineEndingLF, LineEndingCRLF:
		return nil
	default:
		return errors.NewConfigError(
			fmt.Sprintf("invalid input.line_ending %q", c.Input.LineEnding),
			errors.ErrInvalidLineEnding,
		)
	}
}

// Newline returns the separator used to join stdin lines
func (c *Config) Newline() string {
	switch strings.ToLower(c.Input.LineEnding) {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	default:
		return NativeNewline()
	}
}

// NativeNewline returns the platform's line separator
func NativeNewline() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// FindConfigFile searches for a config file in current directory and parents
func FindConfigFile() string {
	configNames := []string{".jyt.yml", ".jyt.yaml", "jyt.yml", "jyt.yaml"}

	currentDir, err := os.Getwd()
	if err != nil {
		return ""
	}

	// Search up the directory tree
	for {
		for _, name := range configNames {
			configPath := filepath.Join(currentDir, name)
			if _, err := os.Stat(configPath); err == nil {
				return configPath
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root directory
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Overrides holds values passed on the command line. Nil fields were not set.
type Overrides struct {
	LineEnding *string
	NoTrim     *bool
	Debug      *bool
}

// LoadConfigWithCLI loads config with CLI argument precedence
func LoadConfigWithCLI(configPath string, overrides Overrides) (*Config, error) {
	cfg := NewConfig()

	if configPath != "" {
		fileConfig, err := LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = fileConfig
	}

	if overrides.LineEnding != nil {
		cfg.Input.LineEnding = *overrides.LineEnding
	}
	if overrides.NoTrim != nil && *overrides.NoTrim {
		cfg.Output.TrimTrailingNewline = false
	}
	if overrides.Debug != nil && *overrides.Debug {
		cfg.Dev.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
