// Package models defines the shared types for fable generation requests.
package models

import (
	"fmt"
	"strings"
)

// Metadata carries the descriptive context for a writing task. All fields are
// optional free-form strings; they are attached to the root of the task tree
// and visible to every descendant. Never mutated after root creation.
type Metadata struct {
	// Setting describes the story setting and background.
	Setting string `mapstructure:"setting" yaml:"setting,omitempty"`
	// Characters lists the main characters.
	Characters []string `mapstructure:"characters" yaml:"characters,omitempty"`
	// Theme is the core theme.
	Theme string `mapstructure:"theme" yaml:"theme,omitempty"`
	// Tone is the writing tone or mood.
	Tone string `mapstructure:"tone" yaml:"tone,omitempty"`
	// Style is the language style.
	Style string `mapstructure:"style" yaml:"style,omitempty"`
	// Structure describes the story structure.
	Structure string `mapstructure:"structure" yaml:"structure,omitempty"`
	// Plot holds plot development notes.
	Plot string `mapstructure:"plot" yaml:"plot,omitempty"`
	// Worldbuilding holds world-building details.
	Worldbuilding string `mapstructure:"worldbuilding" yaml:"worldbuilding,omitempty"`
	// Goals lists specific writing goals.
	Goals string `mapstructure:"goals" yaml:"goals,omitempty"`
}

// IsZero returns true if no metadata field is set.
func (m Metadata) IsZero() bool {
	return m.Setting == "" && len(m.Characters) == 0 && m.Theme == "" &&
		m.Tone == "" && m.Style == "" && m.Structure == "" &&
		m.Plot == "" && m.Worldbuilding == "" && m.Goals == ""
}

// Thresholds controls the decomposition stopping rule.
type Thresholds struct {
	// MinWordCount: nodes at or below this budget are always leaves.
	MinWordCount int `mapstructure:"min_word_count" yaml:"min_word_count"`
	// MaxWordCount: nodes at or above this budget are always expanded.
	MaxWordCount int `mapstructure:"max_word_count" yaml:"max_word_count"`
	// MinChildren is the minimum number of children per decomposition.
	MinChildren int `mapstructure:"min_children" yaml:"min_children"`
	// MaxChildren is the maximum number of children per decomposition.
	MaxChildren int `mapstructure:"max_children" yaml:"max_children"`
}

// DefaultThresholds returns the standard decomposition thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinWordCount: 1000,
		MaxWordCount: 5000,
		MinChildren:  2,
		MaxChildren:  5,
	}
}

// Validate checks threshold consistency. Inconsistent thresholds are a
// configuration failure and must never reach the recursion.
func (t Thresholds) Validate() error {
	if t.MinWordCount <= 0 {
		return fmt.Errorf("min_word_count must be positive, got %d", t.MinWordCount)
	}
	if t.MaxWordCount <= t.MinWordCount {
		return fmt.Errorf("max_word_count (%d) must be greater than min_word_count (%d)",
			t.MaxWordCount, t.MinWordCount)
	}
	if t.MinChildren < 2 {
		return fmt.Errorf("min_children must be at least 2, got %d", t.MinChildren)
	}
	if t.MaxChildren < t.MinChildren {
		return fmt.Errorf("max_children (%d) must be >= min_children (%d)",
			t.MaxChildren, t.MinChildren)
	}
	return nil
}

// DefaultMaxDepth is the default maximum tree depth.
const DefaultMaxDepth = 10

// DefaultSeparator joins leaf sections in the assembled document.
const DefaultSeparator = "\n\n"

// Request describes one complete generation request.
type Request struct {
	// Task is the overall writing task description.
	Task string
	// WordCount is the target word count for the whole document.
	WordCount int
	// Meta is the optional descriptive metadata, shared tree-wide.
	Meta Metadata
	// Thresholds controls the decomposition stopping rule.
	Thresholds Thresholds
	// MaxDepth is the maximum tree depth; nodes at this depth are forced
	// to leaf status.
	MaxDepth int
	// Separator joins leaf sections during assembly. Empty means the
	// default blank line.
	Separator string
}

// Validate checks the request. Failures here are configuration failures:
// fatal immediately, before any service call is made.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Task) == "" {
		return fmt.Errorf("task description is required")
	}
	if r.WordCount <= 0 {
		return fmt.Errorf("word count must be positive, got %d", r.WordCount)
	}
	if r.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", r.MaxDepth)
	}
	return r.Thresholds.Validate()
}

// SeparatorOrDefault returns the configured separator, or the default blank
// line when unset.
func (r Request) SeparatorOrDefault() string {
	if r.Separator == "" {
		return DefaultSeparator
	}
	return r.Separator
}

// CountWords counts whitespace-separated words in text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
