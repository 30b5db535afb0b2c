// Package config loads the optional qflow-migrate user configuration.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/wizzomafizzo/qflow-migrate/internal/constants"
	"gopkg.in/yaml.v3"
)

// DefaultVersionTimeout bounds the "qflow -v" query.
const DefaultVersionTimeout = time.Second

// EnvPrefix prefixes environment overrides, e.g. QFLOW_MIGRATE_QFLOW_BIN.
const EnvPrefix = "QFLOW_MIGRATE"

type Config struct {
	QflowPath      string        `yaml:"qflow_path,omitempty"      mapstructure:"qflow_path"`
	QflowBinary    string        `yaml:"qflow_bin,omitempty"       mapstructure:"qflow_bin"`
	Files          []string      `yaml:"files,omitempty"           mapstructure:"files"`
	VersionTimeout time.Duration `yaml:"version_timeout,omitempty" mapstructure:"version_timeout"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		QflowPath:      constants.DefaultQflowPath,
		QflowBinary:    constants.DefaultQflowBinary,
		Files:          constants.DefaultTargetFiles(),
		VersionTimeout: DefaultVersionTimeout,
	}
}

// Load reads the configuration at path, then applies QFLOW_MIGRATE_*
// environment overrides. A missing file yields the defaults.
func Load(afs afero.Fs, path string) (*Config, error) {
	def := Default()

	v := viper.New()
	v.SetFs(afs)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault("qflow_path", def.QflowPath)
	v.SetDefault("qflow_bin", def.QflowBinary)
	v.SetDefault("files", def.Files)
	v.SetDefault("version_timeout", def.VersionTimeout)

	exists, err := afero.Exists(afs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromYAML loads config from YAML bytes, filling unset fields with
// defaults. Environment overrides are not applied.
func LoadFromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.QflowPath == "" {
		c.QflowPath = def.QflowPath
	}
	if c.QflowBinary == "" {
		c.QflowBinary = def.QflowBinary
	}
	if len(c.Files) == 0 {
		c.Files = def.Files
	}
	if c.VersionTimeout == 0 {
		c.VersionTimeout = def.VersionTimeout
	}
}

// Validate checks that the configured target files stay inside the project root.
func (c *Config) Validate() error {
	if c.VersionTimeout < 0 {
		return fmt.Errorf("version_timeout must be positive, got %s", c.VersionTimeout)
	}

	for i, name := range c.Files {
		if name == "" {
			return fmt.Errorf("file %d is empty", i+1)
		}
		if filepath.IsAbs(name) || !filepath.IsLocal(name) {
			return fmt.Errorf("file %d (%q) must be relative to the project root", i+1, name)
		}
	}

	return nil
}
