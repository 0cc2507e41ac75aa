package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dhcgn/emlbox/filter"
)

// Config captures all options shared by the conversion commands.
type Config struct {
	LogLevel   string         `yaml:"log_level"`
	LogDir     string         `yaml:"log_dir"`
	NoProgress bool           `yaml:"no_progress"`
	Overwrite  bool           `yaml:"overwrite"`
	Filter     filter.Options `yaml:"filter"`
}

// Default returns the configuration used when neither a file nor flags say otherwise.
func Default() Config {
	return Config{LogLevel: "info"}
}

// ProgressEnabled reports whether an interactive progress display should be shown.
func (c Config) ProgressEnabled() bool {
	return !c.NoProgress && c.LogLevel == "info"
}

// RegisterPersistentFlags attaches the flags every subcommand inherits.
func RegisterPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("config", "", "Optional YAML file with default settings")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Also write logs to a timestamped file in this directory")
	flags.Bool("no-progress", false, "Disable the interactive progress display")
}

// RegisterConversionFlags attaches the flags of the eml-to-mbox and mbox-to-eml commands.
func RegisterConversionFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.Bool("overwrite", false, "Replace an existing output file or write into an existing output directory")
	RegisterFilterFlags(cmd)
}

// RegisterFilterFlags attaches the include/exclude regex flags.
func RegisterFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringArray("include-header", nil, "Regex allow-list applied to message headers (mutually exclusive with exclude flags)")
	flags.StringArray("include-body", nil, "Regex allow-list applied to message bodies (mutually exclusive with exclude flags)")
	flags.StringArray("exclude-header", nil, "Regex block-list applied to message headers (mutually exclusive with include flags)")
	flags.StringArray("exclude-body", nil, "Regex block-list applied to message bodies (mutually exclusive with include flags)")
}

// LoadConfig builds a Config from the optional --config file and the parsed
// Cobra flags. Flags set on the command line win over file values.
func LoadConfig(cmd *cobra.Command) (Config, error) {
	flags := cmd.Flags()
	cfg := Default()

	if path, err := flags.GetString("config"); err == nil && path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = merge(cfg, fileCfg)
	}

	if flags.Changed("log-level") || cfg.LogLevel == "" {
		logLevel, err := flags.GetString("log-level")
		if err != nil {
			return Config{}, err
		}
		cfg.LogLevel = logLevel
	}
	if flags.Changed("log-dir") {
		logDir, err := flags.GetString("log-dir")
		if err != nil {
			return Config{}, err
		}
		cfg.LogDir = logDir
	}
	if flags.Changed("no-progress") {
		noProgress, err := flags.GetBool("no-progress")
		if err != nil {
			return Config{}, err
		}
		cfg.NoProgress = noProgress
	}
	if flags.Lookup("overwrite") != nil && flags.Changed("overwrite") {
		overwrite, err := flags.GetBool("overwrite")
		if err != nil {
			return Config{}, err
		}
		cfg.Overwrite = overwrite
	}

	for name, target := range map[string]*[]string{
		"include-header": &cfg.Filter.IncludeHeader,
		"include-body":   &cfg.Filter.IncludeBody,
		"exclude-header": &cfg.Filter.ExcludeHeader,
		"exclude-body":   &cfg.Filter.ExcludeBody,
	} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		values, err := flags.GetStringArray(name)
		if err != nil {
			return Config{}, err
		}
		*target = values
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	if cfg.LogDir != "" {
		cfg.LogDir = filepath.Clean(cfg.LogDir)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFile reads a YAML configuration file. Environment variables in the
// file are expanded before parsing.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("config file %s does not exist: %w", path, err)
		case errors.Is(err, os.ErrPermission):
			return Config{}, fmt.Errorf("permission denied reading config file %s: %w", path, err)
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func merge(base, override Config) Config {
	if override.LogLevel != "" {
		base.LogLevel = override.LogLevel
	}
	if override.LogDir != "" {
		base.LogDir = override.LogDir
	}
	base.NoProgress = base.NoProgress || override.NoProgress
	base.Overwrite = base.Overwrite || override.Overwrite
	if override.Filter.Active() {
		base.Filter = override.Filter
	}
	return base
}

func validateConfig(cfg Config) error {
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	if err := cfg.Filter.Validate(); err != nil {
		return err
	}

	return nil
}
