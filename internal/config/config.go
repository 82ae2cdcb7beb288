// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete fitplan configuration.
type Config struct {
	// DefaultModel is used when the host reports no preferred model
	DefaultModel string `toml:"default_model"`

	// Local (Ollama) host configuration
	Local LocalConfig `toml:"local"`

	// Chat behavior configuration
	Chat ChatConfig `toml:"chat"`

	// Export configuration
	Export ExportConfig `toml:"export"`
}

// LocalConfig contains local Ollama host configuration.
type LocalConfig struct {
	// Host is the base URL of the model host
	Host string `toml:"host"`
	// APIKey is sent as a bearer token when set (remote providers)
	APIKey string `toml:"api_key"`
	// PreferredModel is preselected when the host offers it
	PreferredModel string `toml:"preferred_model"`
	// ProbeTimeoutSecs bounds reachability checks and model listing
	ProbeTimeoutSecs int `toml:"probe_timeout_secs"`
	// StreamTimeoutSecs bounds an entire streaming response
	StreamTimeoutSecs int `toml:"stream_timeout_secs"`
}

// ChatConfig contains chat behavior configuration.
type ChatConfig struct {
	// MaxHistory is the number of transcript messages sent per request.
	// Values below 1 are clamped to 1; the window always holds at least
	// the newest message.
	MaxHistory int `toml:"max_history"`
	// SystemPrompt is prepended per generation when non-blank
	SystemPrompt string `toml:"system_prompt"`
	// Stream enables progressive display of responses
	Stream bool `toml:"stream"`
}

// ExportConfig contains plan export configuration.
type ExportConfig struct {
	// OutputDir is where saved plans are written (empty = current directory)
	OutputDir string `toml:"output_dir"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		DefaultModel: "gemma3:1b",

		Local: LocalConfig{
			Host:              "http://localhost:11434",
			PreferredModel:    "gemma3:1b",
			ProbeTimeoutSecs:  3,
			StreamTimeoutSecs: 300,
		},

		Chat: ChatConfig{
			MaxHistory: 10,
			SystemPrompt: "You are a careful fitness coach. Tailor advice to the " +
				"user's stated constraints and never recommend exercises that " +
				"conflict with their health problems.",
			Stream: true,
		},

		Export: ExportConfig{
			OutputDir: "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the fitplan configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".fitplan"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults
// when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# fitplan configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Local.Host != "" {
		u, err := url.Parse(c.Local.Host)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "local.host",
				Message: fmt.Sprintf("invalid URL '%s', must start with http:// or https://", c.Local.Host),
			})
		}
	}

	if c.Local.ProbeTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "local.probe_timeout_secs",
			Message: "must be non-negative",
		})
	}
	if c.Local.StreamTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "local.stream_timeout_secs",
			Message: "must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in defaults for any missing or out-of-range fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.Local.Host == "" {
		c.Local.Host = defaults.Local.Host
	}
	if c.Local.PreferredModel == "" {
		c.Local.PreferredModel = c.DefaultModel
	}
	if c.Local.ProbeTimeoutSecs == 0 {
		c.Local.ProbeTimeoutSecs = defaults.Local.ProbeTimeoutSecs
	}
	if c.Local.StreamTimeoutSecs == 0 {
		c.Local.StreamTimeoutSecs = defaults.Local.StreamTimeoutSecs
	}

	// The context window always keeps at least the newest message
	if c.Chat.MaxHistory < 1 {
		c.Chat.MaxHistory = defaults.Chat.MaxHistory
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - OLLAMA_HOST: overrides local.host
//   - FITPLAN_HOST: overrides local.host, wins over OLLAMA_HOST
//   - FITPLAN_MODEL: overrides default_model and local.preferred_model
//   - FITPLAN_API_KEY: overrides local.api_key
//   - FITPLAN_NO_STREAM: set to "1" or "true" to disable streaming
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Local.Host = host
	}
	// The app-specific variable beats the ecosystem-wide one
	if host := os.Getenv("FITPLAN_HOST"); host != "" {
		c.Local.Host = host
	}

	if model := os.Getenv("FITPLAN_MODEL"); model != "" {
		c.DefaultModel = model
		c.Local.PreferredModel = model
	}

	if key := os.Getenv("FITPLAN_API_KEY"); key != "" {
		c.Local.APIKey = key
	}

	if noStream := os.Getenv("FITPLAN_NO_STREAM"); noStream != "" {
		c.Chat.Stream = !(noStream == "1" || strings.ToLower(noStream) == "true")
	}
}
