// Package writer produces final prose for each outlined leaf.
package writer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ShayCichocki/fable/internal/api"
	"github.com/ShayCichocki/fable/internal/prompts"
	"github.com/ShayCichocki/fable/internal/tree"
	"github.com/ShayCichocki/fable/pkg/models"
)

// budgetTolerance is the accepted relative deviation from a leaf's word
// budget. Content outside the band is kept as-is and logged; re-generating
// for length tends to hurt the prose more than the deviation does.
const budgetTolerance = 0.2

// Writer runs the writing phase: one completion call per outlined leaf.
type Writer struct {
	completer api.Completer
	phase     models.PhaseConfig
}

// New creates a section writer.
func New(completer api.Completer, phase models.PhaseConfig) *Writer {
	return &Writer{completer: completer, phase: phase}
}

// WriteLeaf generates and stores the prose for one leaf from its outline.
// The content is stored verbatim; an empty response is an error.
func (w *Writer) WriteLeaf(ctx context.Context, t *tree.Tree, leaf *tree.Node) error {
	if !leaf.IsLeaf() {
		return fmt.Errorf("node %s is not a leaf", leaf.ID)
	}
	if strings.TrimSpace(leaf.Outline) == "" {
		return fmt.Errorf("node %s has no outline", leaf.ID)
	}

	prompt := prompts.Write(prompts.NodeContext{
		Task:       leaf.Task,
		WordBudget: leaf.WordBudget,
		Meta:       t.Meta(),
	}, leaf.Outline)

	response, err := w.completer.Complete(ctx, api.CompletionRequest{
		Prompt:   prompt,
		Model:    w.phase.Model,
		Sampling: w.phase.Sampling,
	})
	if err != nil {
		return fmt.Errorf("writing node %s: %w", leaf.ID, err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("writing node %s: %w", leaf.ID, api.ErrEmptyCompletion)
	}

	leaf.Content = response

	words := models.CountWords(response)
	if outsideBudget(words, leaf.WordBudget) {
		log.Printf("[writer] node %s came in at %d words against a %d-word budget",
			leaf.ID, words, leaf.WordBudget)
	}
	return nil
}

func outsideBudget(words, budget int) bool {
	deviation := float64(words-budget) / float64(budget)
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > budgetTolerance
}
