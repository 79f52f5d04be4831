// Package config loads process settings for the dsmodel tools. Values come
// from defaults, then DSMODEL_* environment variables, then the YAML config
// file, each layer overriding the one before.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dsmodel/internal/paths"
	"github.com/mesh-intelligence/dsmodel/pkg/types"
)

// Settings is the merged process configuration. The data directory is
// resolved separately by paths.ResolveDataDir, which owns DSMODEL_DATA_DIR.
type Settings struct {
	Backend     string `env:"DSMODEL_BACKEND" envDefault:"sqlite" mapstructure:"backend" yaml:"backend"`
	DataDir     string `mapstructure:"data_dir" yaml:"data_dir,omitempty"`
	Dataset     string `env:"DSMODEL_DATASET" mapstructure:"dataset" yaml:"dataset,omitempty"`
	Namespace   string `env:"DSMODEL_NAMESPACE" mapstructure:"namespace" yaml:"namespace,omitempty"`
	IDPolicy    string `env:"DSMODEL_ID_POLICY" envDefault:"sequence" mapstructure:"id_policy" yaml:"id_policy"`
	SyncOnClose bool   `env:"DSMODEL_SYNC_ON_CLOSE" mapstructure:"sync_on_close" yaml:"sync_on_close"`
	LogLevel    string `env:"DSMODEL_LOG_LEVEL" envDefault:"info" mapstructure:"log_level" yaml:"log_level"`
	LogFile     string `env:"DSMODEL_LOG_FILE" mapstructure:"log_file" yaml:"log_file,omitempty"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load builds Settings for configDir. A missing config file is not an
// error.
func Load(configDir string) (Settings, error) {
	var s Settings
	if err := ParseEnv(&s); err != nil {
		return s, err
	}

	v := viper.New()
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("decode config: %w", err)
	}
	return s, nil
}

// StoreConfig returns the backend configuration for dataDir.
func (s Settings) StoreConfig(dataDir string) types.Config {
	return types.Config{
		Backend:     s.Backend,
		DataDir:     dataDir,
		Dataset:     s.Dataset,
		Namespace:   s.Namespace,
		IDPolicy:    s.IDPolicy,
		SyncOnClose: s.SyncOnClose,
	}
}

// WriteDefault writes s to the config file in configDir unless one already
// exists. It reports whether a file was written.
func WriteDefault(configDir string, s Settings) (bool, error) {
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
