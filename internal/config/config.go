// Package config handles configuration loading and management for fable.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/ShayCichocki/fable/pkg/models"
)

// Config holds all configuration for fable.
type Config struct {
	Anthropic  AnthropicConfig   `mapstructure:"anthropic"`
	Thresholds models.Thresholds `mapstructure:"thresholds"`
	Generation GenerationConfig  `mapstructure:"generation"`
	Phases     PhasesConfig      `mapstructure:"phases"`
	Retry      RetryConfig       `mapstructure:"retry"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	// UseBedrock routes calls through AWS Bedrock instead of the direct API.
	UseBedrock bool   `mapstructure:"use_bedrock"`
	AWSRegion  string `mapstructure:"aws_region"`
	AWSProfile string `mapstructure:"aws_profile"`
}

// GenerationConfig holds tree-shape and assembly settings.
type GenerationConfig struct {
	// MaxDepth is the maximum task tree depth.
	MaxDepth int `mapstructure:"max_depth"`
	// Separator joins sections in the assembled document.
	Separator string `mapstructure:"separator"`
	// Workers bounds concurrent calls in the outline and write phases.
	Workers int `mapstructure:"workers"`
}

// PhasesConfig holds per-phase model selection.
type PhasesConfig struct {
	Plan    models.PhaseConfig `mapstructure:"plan"`
	Outline models.PhaseConfig `mapstructure:"outline"`
	Write   models.PhaseConfig `mapstructure:"write"`
}

// RetryConfig holds completion retry settings.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY)
// 2. Project config (.fable.yaml in current directory or parent)
// 3. User config (~/.config/fable/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			// Merge project config (takes precedence)
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	// Environment variable overrides
	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Expand ${VAR} references
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// LoadFromPath loads configuration from a specific path (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)

	return cfg, nil
}

// Save writes the current configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("anthropic.api_key", cfg.Anthropic.APIKey)
	v.Set("anthropic.use_bedrock", cfg.Anthropic.UseBedrock)
	v.Set("anthropic.aws_region", cfg.Anthropic.AWSRegion)
	v.Set("anthropic.aws_profile", cfg.Anthropic.AWSProfile)
	v.Set("thresholds.min_word_count", cfg.Thresholds.MinWordCount)
	v.Set("thresholds.max_word_count", cfg.Thresholds.MaxWordCount)
	v.Set("thresholds.min_children", cfg.Thresholds.MinChildren)
	v.Set("thresholds.max_children", cfg.Thresholds.MaxChildren)
	v.Set("generation.max_depth", cfg.Generation.MaxDepth)
	v.Set("generation.separator", cfg.Generation.Separator)
	v.Set("generation.workers", cfg.Generation.Workers)
	savePhase(v, "plan", cfg.Phases.Plan)
	savePhase(v, "outline", cfg.Phases.Outline)
	savePhase(v, "write", cfg.Phases.Write)
	v.Set("retry.max_attempts", cfg.Retry.MaxAttempts)
	v.Set("retry.base_delay", cfg.Retry.BaseDelay.String())

	return v.WriteConfig()
}

func savePhase(v *viper.Viper, name string, phase models.PhaseConfig) {
	v.Set("phases."+name+".model", phase.Model)
	v.Set("phases."+name+".temperature", phase.Sampling.Temperature)
	v.Set("phases."+name+".top_p", phase.Sampling.TopP)
	v.Set("phases."+name+".max_tokens", phase.Sampling.MaxTokens)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.use_bedrock", false)
	v.SetDefault("anthropic.aws_region", "")
	v.SetDefault("anthropic.aws_profile", "")

	// Decomposition thresholds
	defaults := models.DefaultThresholds()
	v.SetDefault("thresholds.min_word_count", defaults.MinWordCount)
	v.SetDefault("thresholds.max_word_count", defaults.MaxWordCount)
	v.SetDefault("thresholds.min_children", defaults.MinChildren)
	v.SetDefault("thresholds.max_children", defaults.MaxChildren)

	// Generation defaults
	v.SetDefault("generation.max_depth", models.DefaultMaxDepth)
	v.SetDefault("generation.separator", models.DefaultSeparator)
	v.SetDefault("generation.workers", 4)

	// Phase defaults: planning runs cooler than prose
	v.SetDefault("phases.plan.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("phases.plan.temperature", 0.3)
	v.SetDefault("phases.plan.top_p", 0.0)
	v.SetDefault("phases.plan.max_tokens", 4096)
	v.SetDefault("phases.outline.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("phases.outline.temperature", 0.7)
	v.SetDefault("phases.outline.top_p", 0.0)
	v.SetDefault("phases.outline.max_tokens", 4096)
	v.SetDefault("phases.write.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("phases.write.temperature", 1.0)
	v.SetDefault("phases.write.top_p", 0.0)
	v.SetDefault("phases.write.max_tokens", 16384)

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "2s")
}

// getUserConfigDir returns the XDG config directory for fable.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fable")
	}

	// Fall back to ~/.config/fable
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "fable")
	}
	return filepath.Join(home, ".config", "fable")
}

// findProjectConfig searches for .fable.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".fable.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// expandEnv expands ${VAR} references in a string.
func expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Anthropic:  AnthropicConfig{},
		Thresholds: models.DefaultThresholds(),
		Generation: GenerationConfig{
			MaxDepth:  models.DefaultMaxDepth,
			Separator: models.DefaultSeparator,
			Workers:   4,
		},
		Phases: PhasesConfig{
			Plan: models.PhaseConfig{
				Model:    "claude-sonnet-4-5-20250929",
				Sampling: models.SamplingParams{Temperature: 0.3, MaxTokens: 4096},
			},
			Outline: models.PhaseConfig{
				Model:    "claude-sonnet-4-5-20250929",
				Sampling: models.SamplingParams{Temperature: 0.7, MaxTokens: 4096},
			},
			Write: models.PhaseConfig{
				Model:    "claude-sonnet-4-5-20250929",
				Sampling: models.SamplingParams{Temperature: 1.0, MaxTokens: 16384},
			},
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseDelay:   2 * time.Second,
		},
	}
}

// Validate checks the loaded configuration before a run starts.
func (c *Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if c.Generation.MaxDepth < 1 {
		return fmt.Errorf("generation.max_depth must be at least 1, got %d", c.Generation.MaxDepth)
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("generation.workers must be at least 1, got %d", c.Generation.Workers)
	}
	for name, phase := range map[string]models.PhaseConfig{
		"plan":    c.Phases.Plan,
		"outline": c.Phases.Outline,
		"write":   c.Phases.Write,
	} {
		if err := phase.Validate(); err != nil {
			return fmt.Errorf("phases.%s: %w", name, err)
		}
	}
	return nil
}
