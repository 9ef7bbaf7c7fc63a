// Package config loads omd2gpx settings from defaults, an optional YAML file
// and OMD_ prefixed environment variables, in increasing precedence.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every key when reading the environment.
const EnvPrefix = "OMD"

// Config is the effective omd2gpx configuration after defaults, file and
// environment have been merged.
type Config struct {
	InputDir     string   `mapstructure:"input_dir" yaml:"input_dir"`
	OutputDir    string   `mapstructure:"output_dir" yaml:"output_dir"`
	UTCOffset    string   `mapstructure:"utc_offset" yaml:"utc_offset"`
	Housekeeping string   `mapstructure:"housekeeping" yaml:"housekeeping"`
	ArchiveDir   string   `mapstructure:"archive_dir" yaml:"archive_dir"`
	Formats      []string `mapstructure:"-" yaml:"formats"`
	Creator      string   `mapstructure:"creator" yaml:"creator"`
	Verify       bool     `mapstructure:"verify" yaml:"verify"`
	CatalogPath  string   `mapstructure:"catalog_path" yaml:"catalog_path"`
	SkipExported bool     `mapstructure:"skip_exported" yaml:"skip_exported"`
	LogLevel     string   `mapstructure:"log_level" yaml:"log_level"`
}

var defaults = map[string]any{
	"input_dir":     ".",
	"output_dir":    "",
	"utc_offset":    "+02:00",
	"housekeeping":  "archive",
	"archive_dir":   "",
	"formats":       "gpx",
	"creator":       "onmove-export",
	"verify":        true,
	"catalog_path":  "",
	"skip_exported": false,
	"log_level":     "info",
}

// Load resolves the effective configuration. path may be empty.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Formats = splitList(v.Get("formats"))
	return cfg, nil
}

// splitList accepts a YAML list or a comma separated string.
func splitList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Write renders cfg as YAML.
func Write(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
