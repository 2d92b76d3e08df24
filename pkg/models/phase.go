package models

import "fmt"

// Phase identifies one stage of the generation pipeline.
type Phase string

const (
	// PhasePlan builds the task tree via recursive decomposition.
	PhasePlan Phase = "plan"
	// PhaseOutline produces a writing outline for each leaf.
	PhaseOutline Phase = "outline"
	// PhaseWrite produces final prose for each leaf.
	PhaseWrite Phase = "write"
	// PhaseAssemble concatenates leaf content into the final document.
	PhaseAssemble Phase = "assemble"
)

// Valid returns true if the phase is a known value.
func (p Phase) Valid() bool {
	switch p {
	case PhasePlan, PhaseOutline, PhaseWrite, PhaseAssemble:
		return true
	default:
		return false
	}
}

// SamplingParams holds generation sampling settings for one model call.
type SamplingParams struct {
	// Temperature is the sampling temperature (0-2).
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// TopP is the nucleus sampling parameter (0-1).
	TopP float64 `mapstructure:"top_p" yaml:"top_p"`
	// MaxTokens is the maximum output length per call.
	MaxTokens int64 `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Validate checks the sampling parameters.
func (s SamplingParams) Validate() error {
	if s.Temperature < 0 || s.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2, got %g", s.Temperature)
	}
	if s.TopP < 0 || s.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1, got %g", s.TopP)
	}
	if s.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", s.MaxTokens)
	}
	return nil
}

// PhaseConfig selects the model and sampling parameters for one phase.
// The three phases may run against different models.
type PhaseConfig struct {
	// Model is the model identifier passed to the completion service.
	Model string `mapstructure:"model" yaml:"model"`
	// Sampling holds the sampling parameters for this phase.
	Sampling SamplingParams `mapstructure:",squash" yaml:",inline"`
}

// Validate checks the phase configuration.
func (c PhaseConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	return c.Sampling.Validate()
}
