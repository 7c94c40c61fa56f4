// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the configuration for the gci tool.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Logins configures the stored login-profile files.
	Logins LoginsConfig `yaml:"logins"`

	// Gem configures connection defaults applied to every login.
	Gem GemConfig `yaml:"gem"`

	// Log configures structured logging output.
	Log LogConfig `yaml:"log"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Logins *LoginsConfig `yaml:"logins,omitempty"`
	Gem    *GemConfig    `yaml:"gem,omitempty"`
	Log    *LogConfig    `yaml:"log,omitempty"`
}

// LoginsConfig configures the stored login-profile files.
type LoginsConfig struct {
	// File is the path of the login-profile store. JSON with comments
	// is accepted.
	File string `yaml:"file"`

	// IdentityFile is the path of the age identity used to seal
	// profile passwords. Generated on first use when absent.
	IdentityFile string `yaml:"identity_file"`

	// DefaultProfile is the profile label used when a command names
	// none.
	DefaultProfile string `yaml:"default_profile"`
}

// GemConfig configures connection defaults.
type GemConfig struct {
	// Compression is the preferred payload codec requested at login:
	// "none", "lz4", or "zstd".
	Compression string `yaml:"compression"`

	// LoginTimeout bounds blocking logins, as a Go duration string.
	LoginTimeout string `yaml:"login_timeout"`

	// Quiet suppresses the gem's login banner.
	Quiet bool `yaml:"quiet"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is "debug", "info", "warn", or "error".
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the default configuration. It is the base every
// loaded file merges into, and the whole configuration when no file is
// given.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	root := filepath.Join(homeDir, ".config", "gemstone")

	return &Config{
		Environment: Development,
		Logins: LoginsConfig{
			File:         filepath.Join(root, "logins.jsonc"),
			IdentityFile: filepath.Join(root, "identity.txt"),
		},
		Gem: GemConfig{
			Compression:  "zstd",
			LoginTimeout: "30s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the file named by GEMSTONE_CONFIG.
// An unset variable is an error; callers that treat the file as
// optional should check the variable themselves and fall back to
// [Default].
func Load() (*Config, error) {
	configPath := os.Getenv("GEMSTONE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("GEMSTONE_CONFIG environment variable not set; " +
			"set it to the path of your gemstone.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth: environment variables do not override
// values, and the only expansion performed is ${HOME} and similar path
// variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Logins != nil {
		if overrides.Logins.File != "" {
			c.Logins.File = overrides.Logins.File
		}
		if overrides.Logins.IdentityFile != "" {
			c.Logins.IdentityFile = overrides.Logins.IdentityFile
		}
		if overrides.Logins.DefaultProfile != "" {
			c.Logins.DefaultProfile = overrides.Logins.DefaultProfile
		}
	}
	if overrides.Gem != nil {
		if overrides.Gem.Compression != "" {
			c.Gem.Compression = overrides.Gem.Compression
		}
		if overrides.Gem.LoginTimeout != "" {
			c.Gem.LoginTimeout = overrides.Gem.LoginTimeout
		}
		// Quiet is a bool, so overrides always apply it.
		c.Gem.Quiet = overrides.Gem.Quiet
	}
	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Logins.File = expandVars(c.Logins.File, vars)
	c.Logins.IdentityFile = expandVars(c.Logins.IdentityFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}
	if c.Logins.File == "" {
		errs = append(errs, fmt.Errorf("logins.file is required"))
	}
	if c.Logins.IdentityFile == "" {
		errs = append(errs, fmt.Errorf("logins.identity_file is required"))
	}
	if _, err := gci.ParseCompression(c.Gem.Compression); err != nil {
		errs = append(errs, fmt.Errorf("gem.compression: %w", err))
	}
	if _, err := time.ParseDuration(c.Gem.LoginTimeout); err != nil {
		errs = append(errs, fmt.Errorf("gem.login_timeout: %w", err))
	}
	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Compression returns the parsed payload codec preference. Call
// Validate first; an invalid name degrades to no compression here.
func (c *Config) Compression() gci.Compression {
	compression, err := gci.ParseCompression(c.Gem.Compression)
	if err != nil {
		return gci.CompressionNone
	}
	return compression
}

// LoginTimeout returns the parsed login timeout. Call Validate first;
// an invalid duration degrades to zero (no client-side bound).
func (c *Config) LoginTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Gem.LoginTimeout)
	if err != nil {
		return 0
	}
	return timeout
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
