// Package config resolves CLI settings from flags, environment, .env and an
// optional YAML config file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// AppName is used for the config file name and directory.
	AppName = "get-papers-list"
	// EnvPrefix prefixes environment overrides, e.g. GET_PAPERS_LIMIT.
	EnvPrefix = "GET_PAPERS"

	DefaultLimit   = 50
	DefaultWorkers = 4
)

// Settings is the resolved configuration.
type Settings struct {
	APIKey  string `mapstructure:"api-key"`
	Email   string `mapstructure:"email"`
	Limit   int    `mapstructure:"limit"`
	Workers int    `mapstructure:"workers"`
	Lexicon string `mapstructure:"lexicon"`
	Debug   bool   `mapstructure:"debug"`
	File    string `mapstructure:"file"`

	// ConfigFile is the config file that was read, if any.
	ConfigFile string `mapstructure:"-"`
}

// Validate rejects settings the pipeline cannot run with.
func (s Settings) Validate() error {
	if s.Limit < 1 {
		return fmt.Errorf("limit must be >= 1 (got %d)", s.Limit)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be >= 1 (got %d)", s.Workers)
	}
	return nil
}

// Load resolves settings. Precedence, highest first: changed flags,
// environment (GET_PAPERS_*, NCBI_API_KEY), the config file, defaults.
// A .env file in the working directory is loaded into the environment first.
// cfgFile selects an explicit config file; it must exist.
func Load(cfgFile string, flags *pflag.FlagSet) (*Settings, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("workers", DefaultWorkers)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api-key", EnvPrefix+"_API_KEY", "NCBI_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding api key env: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	s.ConfigFile = v.ConfigFileUsed()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
