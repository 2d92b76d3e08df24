// Package planner builds the task tree by recursive decomposition. Each node
// passes through a dual check: a cheap word-count threshold first, then an AI
// complexity judgment for budgets in the ambiguous middle band.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ShayCichocki/fable/internal/api"
	"github.com/ShayCichocki/fable/internal/prompts"
	"github.com/ShayCichocki/fable/internal/tree"
	"github.com/ShayCichocki/fable/pkg/models"
)

// Threshold outcomes recorded on each node for diagnostics.
const (
	// OutcomeLeafByBudget marks a node whose budget was at or below the
	// minimum word count.
	OutcomeLeafByBudget = "leaf-by-budget"
	// OutcomeExpandByBudget marks a node whose budget was at or above the
	// maximum word count.
	OutcomeExpandByBudget = "expand-by-budget"
	// OutcomeJudged marks a node in the middle band, decided by the AI judge.
	OutcomeJudged = "judged"
	// OutcomeLeafByDepth marks a node forced to leaf status by the depth
	// limit, regardless of budget.
	OutcomeLeafByDepth = "leaf-by-depth"
	// OutcomeLeafByFallback marks a node kept as a leaf because decomposition
	// failed twice.
	OutcomeLeafByFallback = "leaf-by-fallback"
)

// Planner runs the planning phase.
type Planner struct {
	completer  api.Completer
	thresholds models.Thresholds
	phase      models.PhaseConfig
}

// New creates a planner using the given completion service and thresholds.
func New(completer api.Completer, thresholds models.Thresholds, phase models.PhaseConfig) *Planner {
	return &Planner{
		completer:  completer,
		thresholds: thresholds,
		phase:      phase,
	}
}

// BuildTree plans the full task tree for the request and freezes it. The
// returned tree's structure never changes afterwards; the later phases only
// fill per-leaf fields.
func (p *Planner) BuildTree(ctx context.Context, req models.Request) (*tree.Tree, error) {
	t := tree.New(req.Task, req.WordCount, req.Meta, tree.Limits{
		MaxDepth:    req.MaxDepth,
		MinChildren: p.thresholds.MinChildren,
	})

	if err := p.expand(ctx, t, t.Root()); err != nil {
		return nil, err
	}

	t.Freeze()
	log.Printf("[planner] tree complete: %d nodes, %d leaves", t.NodeCount(), t.LeafCount())
	return t, nil
}

// expand decides whether node becomes a leaf or is decomposed, then recurses
// into any children depth-first, left to right.
func (p *Planner) expand(ctx context.Context, t *tree.Tree, node *tree.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// The depth limit overrides everything, including budgets that would
	// otherwise force expansion.
	if node.Depth >= t.MaxDepth() {
		node.ThresholdOutcome = OutcomeLeafByDepth
		if node.WordBudget >= p.thresholds.MaxWordCount {
			log.Printf("[planner] node %s at max depth %d kept as leaf despite %d-word budget",
				node.ID, node.Depth, node.WordBudget)
		}
		return nil
	}

	decompose, err := p.shouldDecompose(ctx, t, node)
	if err != nil {
		return err
	}
	if !decompose {
		return nil
	}

	children, err := p.decompose(ctx, t, node)
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := p.expand(ctx, t, child); err != nil {
			return err
		}
	}
	return nil
}

// shouldDecompose applies the dual check. The thresholds settle the clear
// cases without a service call; only the middle band consults the judge.
func (p *Planner) shouldDecompose(ctx context.Context, t *tree.Tree, node *tree.Node) (bool, error) {
	if node.WordBudget <= p.thresholds.MinWordCount {
		node.ThresholdOutcome = OutcomeLeafByBudget
		return false, nil
	}
	if node.WordBudget >= p.thresholds.MaxWordCount {
		node.ThresholdOutcome = OutcomeExpandByBudget
		return true, nil
	}

	node.ThresholdOutcome = OutcomeJudged
	response, err := p.complete(ctx, prompts.Judge(p.nodeContext(t, node)))
	if err != nil {
		return false, fmt.Errorf("complexity judgment for node %s: %w", node.ID, err)
	}

	verdict, err := parseJudge(response)
	if err != nil {
		// An unreadable verdict fails toward structure: decomposing a simple
		// task costs extra calls, skipping a needed decomposition costs
		// coherence.
		log.Printf("[planner] judge response for node %s unparseable, decomposing: %v", node.ID, err)
		node.JudgeDecision = "decompose"
		node.JudgeReasoning = "judge response unparseable; defaulted to decompose"
		return true, nil
	}

	if verdict.Decompose {
		node.JudgeDecision = "decompose"
	} else {
		node.JudgeDecision = "write"
	}
	node.JudgeReasoning = verdict.Reasoning
	return verdict.Decompose, nil
}

// malformedDecomposition marks a response that arrived but did not yield
// enough usable sub-tasks. Only these degrade to a leaf; completion failures
// propagate like any other service error.
type malformedDecomposition struct {
	err error
}

func (e *malformedDecomposition) Error() string { return e.err.Error() }
func (e *malformedDecomposition) Unwrap() error { return e.err }

// decompose asks the model to split the node's task, attaching the resulting
// children. A malformed response is retried once with a reformulated prompt;
// a second malformed response keeps the node as a leaf rather than failing
// the run. Service failures are fatal for the subtree.
func (p *Planner) decompose(ctx context.Context, t *tree.Tree, node *tree.Node) ([]*tree.Node, error) {
	nc := p.nodeContext(t, node)
	min, max := p.thresholds.MinChildren, p.thresholds.MaxChildren

	children, err := p.requestChildren(ctx, prompts.Decompose(nc, min, max))
	var malformed *malformedDecomposition
	if err != nil {
		if !errors.As(err, &malformed) {
			return nil, fmt.Errorf("decomposing node %s: %w", node.ID, err)
		}
		log.Printf("[planner] decomposition of node %s unusable, retrying with reformulated prompt: %v",
			node.ID, err)
		children, err = p.requestChildren(ctx, prompts.DecomposeRetry(nc, min, max))
	}
	if err != nil {
		if !errors.As(err, &malformed) {
			return nil, fmt.Errorf("decomposing node %s: %w", node.ID, err)
		}
		// Both responses were unusable: keep the node as a leaf. The section
		// will be longer than ideal but the run still produces a document.
		log.Printf("[planner] decomposition of node %s unusable twice, keeping as leaf: %v",
			node.ID, err)
		node.ThresholdOutcome = OutcomeLeafByFallback
		return nil, nil
	}

	if len(children) > max {
		log.Printf("[planner] node %s: %d sub-tasks returned, truncating to %d",
			node.ID, len(children), max)
		children = truncateChildren(children, max)
	}

	shares := make([]float64, len(children))
	for i, c := range children {
		shares[i] = c.Share
	}
	budgets := splitBudget(node.WordBudget, shares)

	specs := make([]tree.ChildSpec, len(children))
	for i, c := range children {
		specs[i] = tree.ChildSpec{Task: c.Task, WordBudget: budgets[i]}
	}

	attached, err := t.AttachChildren(node, specs)
	if err != nil {
		return nil, fmt.Errorf("attaching children to node %s: %w", node.ID, err)
	}
	return attached, nil
}

// requestChildren issues one decomposition call and validates the result
// against the minimum child count. Unparseable or too-small responses come
// back as malformedDecomposition; completion errors pass through unchanged.
func (p *Planner) requestChildren(ctx context.Context, prompt string) ([]decomposedChild, error) {
	response, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	children, err := parseChildren(response)
	if err != nil {
		return nil, &malformedDecomposition{err}
	}
	if len(children) < p.thresholds.MinChildren {
		return nil, &malformedDecomposition{fmt.Errorf("%d sub-tasks returned, need at least %d",
			len(children), p.thresholds.MinChildren)}
	}
	return children, nil
}

func (p *Planner) complete(ctx context.Context, prompt string) (string, error) {
	return p.completer.Complete(ctx, api.CompletionRequest{
		Prompt:   prompt,
		Model:    p.phase.Model,
		Sampling: p.phase.Sampling,
	})
}

func (p *Planner) nodeContext(t *tree.Tree, node *tree.Node) prompts.NodeContext {
	ancestors := node.Ancestors()
	tasks := make([]string, len(ancestors))
	for i, a := range ancestors {
		tasks[i] = a.Task
	}
	return prompts.NodeContext{
		Task:       node.Task,
		WordBudget: node.WordBudget,
		Meta:       t.Meta(),
		Ancestors:  tasks,
	}
}
