// Package config loads objsplit settings from a YAML file and turns them
// into batch options.
//
// Invalid values never abort a run: a numeric setting that does not parse,
// or a negative one, falls back to its documented default and a warning is
// logged. The same applies to unknown mode and resample names.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/setanarut/objsplit"
)

// DefaultFile is looked up in the working directory when --config is not given.
const DefaultFile = "objsplit.yaml"

// Config mirrors the YAML file.
type Config struct {
	OutputDir string     `yaml:"output_dir"`
	Padding   LenientInt `yaml:"padding"`
	MinSize   LenientInt `yaml:"min_size"`
	Unify     bool       `yaml:"unify"`
	Resample  string     `yaml:"resample"`
	Mode      string     `yaml:"mode"`
	Workers   LenientInt `yaml:"workers"`
	LogLevel  string     `yaml:"log_level"`
}

// LenientInt decodes a YAML scalar as an int. A value that is not an
// integer leaves the previous (default) value untouched and is kept in
// Invalid for reporting.
type LenientInt struct {
	Value   int
	Invalid string
}

func (l *LenientInt) UnmarshalYAML(node *yaml.Node) error {
	var v int
	if err := node.Decode(&v); err != nil {
		// Quoted numbers ("12") are accepted too.
		parsed, ok := ParseIntOr(node.Value, 0)
		if node.Kind != yaml.ScalarNode || !ok {
			l.Invalid = node.Value
			if l.Invalid == "" {
				l.Invalid = "<" + node.ShortTag() + ">"
			}
			return nil
		}
		v = parsed
	}
	l.Value = v
	l.Invalid = ""
	return nil
}

func (l LenientInt) MarshalYAML() (any, error) { return l.Value, nil }

func Default() Config {
	return Config{
		OutputDir: objsplit.DefaultOutputDir,
		Padding:   LenientInt{Value: objsplit.DefaultPadding},
		MinSize:   LenientInt{Value: objsplit.DefaultMinSize},
		Resample:  objsplit.Lanczos.String(),
		Mode:      objsplit.ModeBox.String(),
		LogLevel:  "info",
	}
}

// Load reads path over the defaults. When optional is set a missing file is
// not an error and the defaults are returned.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ParseIntOr parses s as an int. On failure it returns def and false.
func ParseIntOr(s string, def int) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def, false
	}
	return v, true
}

// BatchConfig converts the file settings into batch options, substituting
// defaults for anything invalid and logging each substitution.
func (c Config) BatchConfig(log *zerolog.Logger) objsplit.BatchConfig {
	bc := objsplit.DefaultBatchConfig()
	if c.OutputDir != "" {
		bc.OutputDir = c.OutputDir
	}
	bc.Padding = c.intOr(log, "padding", c.Padding, objsplit.DefaultPadding)
	bc.MinSize = c.intOr(log, "min_size", c.MinSize, objsplit.DefaultMinSize)
	bc.Workers = c.intOr(log, "workers", c.Workers, 0)
	bc.Unify = c.Unify

	mode, err := objsplit.ParseMode(c.Mode)
	if err != nil {
		log.Warn().Err(err).Str("default", mode.String()).Msg("invalid config value")
	}
	bc.Mode = mode

	rs, err := objsplit.ParseResample(c.Resample)
	if err != nil {
		log.Warn().Err(err).Str("default", rs.String()).Msg("invalid config value")
	}
	bc.Resample = rs
	return bc
}

func (c Config) intOr(log *zerolog.Logger, key string, v LenientInt, def int) int {
	if v.Invalid != "" {
		log.Warn().Str("key", key).Str("value", v.Invalid).Int("default", def).Msg("non-numeric config value")
		return def
	}
	if v.Value < 0 {
		log.Warn().Str("key", key).Int("value", v.Value).Int("default", def).Msg("negative config value")
		return def
	}
	return v.Value
}
