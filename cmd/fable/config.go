package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/fable/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Manage configuration",
	Long: `View or modify fable configuration.

Without arguments, displays current configuration.
With one argument (key), displays the value for that key.
With two arguments (key value), sets the configuration value.

Configuration is stored at ~/.config/fable/config.yaml
Project-specific overrides can be placed in .fable.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		switch len(args) {
		case 0:
			displayAllConfig(cfg)
		case 1:
			displayConfigKey(cfg, args[0])
		default:
			setConfigKey(cfg, args[0], args[1])
		}
	},
}

// displayAllConfig prints all configuration values.
func displayAllConfig(cfg *config.Config) {
	// Mask API key if set
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
	fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	fmt.Printf("thresholds.min_word_count: %d\n", cfg.Thresholds.MinWordCount)
	fmt.Printf("thresholds.max_word_count: %d\n", cfg.Thresholds.MaxWordCount)
	fmt.Printf("thresholds.min_children: %d\n", cfg.Thresholds.MinChildren)
	fmt.Printf("thresholds.max_children: %d\n", cfg.Thresholds.MaxChildren)
	fmt.Printf("generation.max_depth: %d\n", cfg.Generation.MaxDepth)
	fmt.Printf("generation.separator: %q\n", cfg.Generation.Separator)
	fmt.Printf("generation.workers: %d\n", cfg.Generation.Workers)
	fmt.Printf("phases.plan.model: %s\n", cfg.Phases.Plan.Model)
	fmt.Printf("phases.outline.model: %s\n", cfg.Phases.Outline.Model)
	fmt.Printf("phases.write.model: %s\n", cfg.Phases.Write.Model)
	fmt.Printf("retry.max_attempts: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("retry.base_delay: %s\n", cfg.Retry.BaseDelay)
}

// displayConfigKey prints a single configuration value.
func displayConfigKey(cfg *config.Config, key string) {
	value, err := getConfigValue(cfg, key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(value)
}

// setConfigKey sets a configuration value and saves the config.
func setConfigKey(cfg *config.Config, key, value string) {
	if err := setConfigValue(cfg, key, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Set %s = %s\n", key, value)
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		if cfg.Anthropic.APIKey == "" {
			return "(not set)", nil
		}
		return "****", nil
	case "anthropic.use_bedrock":
		return strconv.FormatBool(cfg.Anthropic.UseBedrock), nil
	case "anthropic.aws_region":
		return cfg.Anthropic.AWSRegion, nil
	case "anthropic.aws_profile":
		return cfg.Anthropic.AWSProfile, nil
	case "thresholds.min_word_count":
		return strconv.Itoa(cfg.Thresholds.MinWordCount), nil
	case "thresholds.max_word_count":
		return strconv.Itoa(cfg.Thresholds.MaxWordCount), nil
	case "thresholds.min_children":
		return strconv.Itoa(cfg.Thresholds.MinChildren), nil
	case "thresholds.max_children":
		return strconv.Itoa(cfg.Thresholds.MaxChildren), nil
	case "generation.max_depth":
		return strconv.Itoa(cfg.Generation.MaxDepth), nil
	case "generation.separator":
		return strconv.Quote(cfg.Generation.Separator), nil
	case "generation.workers":
		return strconv.Itoa(cfg.Generation.Workers), nil
	case "phases.plan.model":
		return cfg.Phases.Plan.Model, nil
	case "phases.outline.model":
		return cfg.Phases.Outline.Model, nil
	case "phases.write.model":
		return cfg.Phases.Write.Model, nil
	case "retry.max_attempts":
		return strconv.Itoa(cfg.Retry.MaxAttempts), nil
	case "retry.base_delay":
		return cfg.Retry.BaseDelay.String(), nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "anthropic.api_key":
		cfg.Anthropic.APIKey = value
	case "anthropic.use_bedrock":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		cfg.Anthropic.UseBedrock = b
	case "anthropic.aws_region":
		cfg.Anthropic.AWSRegion = value
	case "anthropic.aws_profile":
		cfg.Anthropic.AWSProfile = value
	case "thresholds.min_word_count":
		return setIntField(&cfg.Thresholds.MinWordCount, value)
	case "thresholds.max_word_count":
		return setIntField(&cfg.Thresholds.MaxWordCount, value)
	case "thresholds.min_children":
		return setIntField(&cfg.Thresholds.MinChildren, value)
	case "thresholds.max_children":
		return setIntField(&cfg.Thresholds.MaxChildren, value)
	case "generation.max_depth":
		return setIntField(&cfg.Generation.MaxDepth, value)
	case "generation.workers":
		return setIntField(&cfg.Generation.Workers, value)
	case "generation.separator":
		cfg.Generation.Separator = value
	case "phases.plan.model":
		cfg.Phases.Plan.Model = value
	case "phases.outline.model":
		cfg.Phases.Outline.Model = value
	case "phases.write.model":
		cfg.Phases.Write.Model = value
	case "retry.max_attempts":
		return setIntField(&cfg.Retry.MaxAttempts, value)
	case "retry.base_delay":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q", value)
		}
		cfg.Retry.BaseDelay = d
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func setIntField(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer %q", value)
	}
	*dst = n
	return nil
}
