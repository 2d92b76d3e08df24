// Package outline produces a writing outline for each leaf of a planned tree.
package outline

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

// Synthesizer runs the outline phase: one completion call per leaf.
type Synthesizer struct {
	completer api.Completer
	phase     models.PhaseConfig
}

// New creates an outline synthesizer.
func New(completer api.Completer, phase models.PhaseConfig) *Synthesizer {
	return &Synthesizer{completer: completer, phase: phase}
}

// OutlineLeaf generates and stores the outline for one leaf. The outline is
// stored verbatim; an empty or whitespace-only response is an error because
// the writing phase has nothing to work from.
func (s *Synthesizer) OutlineLeaf(ctx context.Context, t *tree.Tree, leaf *tree.Node) error {
	if !leaf.IsLeaf() {
		return fmt.Errorf("node %s is not a leaf", leaf.ID)
	}

	ancestors := leaf.Ancestors()
	tasks := make([]string, len(ancestors))
	for i, a := range ancestors {
		tasks[i] = a.Task
	}

	prompt := prompts.Outline(prompts.NodeContext{
		Task:       leaf.Task,
		WordBudget: leaf.WordBudget,
		Meta:       t.Meta(),
		Ancestors:  tasks,
	})

	response, err := s.completer.Complete(ctx, api.CompletionRequest{
		Prompt:   prompt,
		Model:    s.phase.Model,
		Sampling: s.phase.Sampling,
	})
	if err != nil {
		return fmt.Errorf("outline for node %s: %w", leaf.ID, err)
	}
	if strings.TrimSpace(response) == "" {
		return fmt.Errorf("outline for node %s: %w", leaf.ID, api.ErrEmptyCompletion)
	}

	leaf.Outline = response
	log.Printf("[outline] node %s outlined (%d words budgeted)", leaf.ID, leaf.WordBudget)
	return nil
}
