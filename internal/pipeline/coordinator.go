// Package pipeline coordinates the plan, outline, write, and assemble phases
// of a generation run.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/ShayCichocki/fable/internal/outline"
	"github.com/ShayCichocki/fable/internal/planner"
	"github.com/ShayCichocki/fable/internal/tree"
	"github.com/ShayCichocki/fable/internal/writer"
	"github.com/ShayCichocki/fable/pkg/models"
)

// DefaultWorkers is the per-phase worker count used when none is configured.
// Planning is always sequential; only the per-leaf phases parallelize.
const DefaultWorkers = 4

// Coordinator drives a full generation run across the three phase engines.
type Coordinator struct {
	planner  *planner.Planner
	outliner *outline.Synthesizer
	writer   *writer.Writer
	workers  int
	events   chan<- Event
}

// Options configures a coordinator.
type Options struct {
	// Workers bounds the concurrent per-leaf calls in the outline and write
	// phases. Values below 1 fall back to DefaultWorkers; use 1 for fully
	// sequential generation.
	Workers int
	// Events receives progress events, if non-nil. The channel is never
	// blocked on; under-buffered listeners miss events rather than stall
	// the run.
	Events chan<- Event
}

// New creates a coordinator over the given phase engines.
func New(p *planner.Planner, o *outline.Synthesizer, w *writer.Writer, opts Options) *Coordinator {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Coordinator{
		planner:  p,
		outliner: o,
		writer:   w,
		workers:  workers,
		events:   opts.Events,
	}
}

// Result is a completed generation run.
type Result struct {
	// Document is the assembled text, leaf content in reading order.
	Document string
	// Tree is the frozen task tree, with outlines and content filled in.
	Tree *tree.Tree
	// WordCount is the word count of the assembled document.
	WordCount int
}

// Generate runs the full pipeline for one request. Any failure aborts the
// run with no partial document: the caller gets either a complete Result or
// an error.
func (c *Coordinator) Generate(ctx context.Context, req models.Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	emit(c.events, Event{Phase: models.PhasePlan, Message: "planning task tree"})
	t, err := c.planner.BuildTree(ctx, req)
	if err != nil {
		return nil, phaseErr(models.PhasePlan, "", err)
	}

	var leaves []*tree.Node
	for leaf := range t.Leaves() {
		leaves = append(leaves, leaf)
	}
	log.Printf("[pipeline] plan complete: %d sections to write", len(leaves))

	err = c.runPhase(ctx, models.PhaseOutline, leaves, func(ctx context.Context, leaf *tree.Node) error {
		return c.outliner.OutlineLeaf(ctx, t, leaf)
	})
	if err != nil {
		return nil, err
	}

	err = c.runPhase(ctx, models.PhaseWrite, leaves, func(ctx context.Context, leaf *tree.Node) error {
		return c.writer.WriteLeaf(ctx, t, leaf)
	})
	if err != nil {
		return nil, err
	}

	emit(c.events, Event{Phase: models.PhaseAssemble, Message: "assembling document"})
	doc, err := assemble(t, req.SeparatorOrDefault())
	if err != nil {
		return nil, err
	}

	return &Result{
		Document:  doc,
		Tree:      t,
		WordCount: models.CountWords(doc),
	}, nil
}

// runPhase applies fn to every leaf using a bounded worker pool. The first
// failure cancels the remaining work and is returned as a PhaseError.
func (c *Coordinator) runPhase(ctx context.Context, phase models.Phase, leaves []*tree.Node,
	fn func(context.Context, *tree.Node) error) error {

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan *tree.Node)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error
	done := 0

	workers := c.workers
	if workers > len(leaves) {
		workers = len(leaves)
	}
	if workers < 1 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for leaf := range jobs {
				if ctx.Err() != nil {
					continue
				}
				if err := fn(ctx, leaf); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = phaseErr(phase, leaf.ID, err)
					}
					mu.Unlock()
					cancel()
					continue
				}
				mu.Lock()
				done++
				progress := done
				mu.Unlock()
				emit(c.events, Event{
					Phase:  phase,
					NodeID: leaf.ID,
					Done:   progress,
					Total:  len(leaves),
				})
			}
		}()
	}

	for _, leaf := range leaves {
		jobs <- leaf
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return phaseErr(phase, "", err)
	}
	return nil
}

// assemble joins leaf content in reading order. Every leaf must have content;
// a gap here means a phase reported success without filling its field, which
// is a bug, not a service failure.
func assemble(t *tree.Tree, separator string) (string, error) {
	var parts []string
	for leaf := range t.Leaves() {
		if strings.TrimSpace(leaf.Content) == "" {
			return "", phaseErr(models.PhaseAssemble, leaf.ID,
				fmt.Errorf("leaf has no content"))
		}
		parts = append(parts, leaf.Content)
	}
	return strings.Join(parts, separator), nil
}
