// Package config loads the scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every configurable value for the scraper.
type Config struct {
	SourceURL      string        `mapstructure:"source_url"`
	DBPath         string        `mapstructure:"db_path"`
	TableName      string        `mapstructure:"table_name"`
	Timezone       string        `mapstructure:"timezone"`
	UserAgent      string        `mapstructure:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogLevel       string        `mapstructure:"log_level"`
	LogDevelopment bool          `mapstructure:"log_development"`
}

// Load reads configuration from (in decreasing priority):
//  1. environment variables (e.g. RESERVOIR_SOURCE_URL)
//  2. a yaml file (./configs/config.yaml) if it exists
//  3. built-in defaults
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESERVOIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_url", "")
	v.SetDefault("db_path", "data/vran.sqlite")
	v.SetDefault("table_name", "vranov")
	v.SetDefault("timezone", "Local")
	v.SetDefault("user_agent", "")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.SourceURL == "" {
		return errors.New("source_url must not be empty (set RESERVOIR_SOURCE_URL)")
	}
	if c.DBPath == "" {
		return errors.New("db_path must not be empty")
	}
	if c.TableName == "" {
		return errors.New("table_name must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the timezone the page timestamps are written in.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
