package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ShayCichocki/fable/internal/api"
	"github.com/ShayCichocki/fable/internal/outline"
	"github.com/ShayCichocki/fable/internal/planner"
	"github.com/ShayCichocki/fable/internal/writer"
	"github.com/ShayCichocki/fable/pkg/models"
)

// phaseCompleter answers each phase's prompts deterministically, keyed off
// prompt markers. Safe for concurrent use.
type phaseCompleter struct {
	mu    sync.Mutex
	calls int

	onDecompose func(prompt string) (string, error)
	onJudge     func(prompt string) (string, error)
	onOutline   func(prompt string) (string, error)
	onWrite     func(prompt string) (string, error)
}

func (p *phaseCompleter) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	prompt := req.Prompt
	switch {
	case strings.Contains(prompt, "JSON array"):
		return p.onDecompose(prompt)
	case strings.Contains(prompt, "JSON object"):
		return p.onJudge(prompt)
	case strings.Contains(prompt, "structured writing outline"):
		return p.onOutline(prompt)
	case strings.Contains(prompt, "following the outline below"):
		return p.onWrite(prompt)
	default:
		return "", fmt.Errorf("unrecognized prompt: %.60s", prompt)
	}
}

func (p *phaseCompleter) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// sectionFor extracts the quoted section name ("section N") embedded in a
// prompt by the fake decomposition.
func sectionFor(prompt string) string {
	for i := 1; i <= 9; i++ {
		if strings.Contains(prompt, fmt.Sprintf("section %d", i)) {
			return fmt.Sprintf("section %d", i)
		}
	}
	return "unknown"
}

// happyCompleter decomposes the root into three sections and echoes the
// section name into outlines and content.
func happyCompleter() *phaseCompleter {
	return &phaseCompleter{
		onDecompose: func(prompt string) (string, error) {
			return `[{"task": "section 1", "share": 0.3}, {"task": "section 2", "share": 0.3}, {"task": "section 3", "share": 0.4}]`, nil
		},
		onJudge: func(prompt string) (string, error) {
			return `{"decompose": false, "reasoning": "fits in one pass"}`, nil
		},
		onOutline: func(prompt string) (string, error) {
			return "outline for " + sectionFor(prompt), nil
		},
		onWrite: func(prompt string) (string, error) {
			return "content of " + sectionFor(prompt), nil
		},
	}
}

func newCoordinator(pc *phaseCompleter, workers int) *Coordinator {
	phase := models.PhaseConfig{Model: "m", Sampling: models.SamplingParams{Temperature: 0.7, MaxTokens: 4096}}
	return New(
		planner.New(pc, models.DefaultThresholds(), phase),
		outline.New(pc, phase),
		writer.New(pc, phase),
		Options{Workers: workers},
	)
}

func docRequest() models.Request {
	return models.Request{
		Task:       "write a travel essay",
		WordCount:  6000,
		Thresholds: models.DefaultThresholds(),
		MaxDepth:   models.DefaultMaxDepth,
	}
}

func TestGenerate_AssemblesLeavesInOrder(t *testing.T) {
	c := newCoordinator(happyCompleter(), 2)

	res, err := c.Generate(context.Background(), docRequest())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := "content of section 1\n\ncontent of section 2\n\ncontent of section 3"
	if res.Document != want {
		t.Errorf("document = %q, want %q", res.Document, want)
	}
	if res.WordCount != models.CountWords(want) {
		t.Errorf("word count = %d", res.WordCount)
	}
	if !res.Tree.Frozen() {
		t.Error("result tree should be frozen")
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	// Same request, same scripted service: identical documents, even with a
	// concurrent worker pool.
	first, err := newCoordinator(happyCompleter(), 4).Generate(context.Background(), docRequest())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := newCoordinator(happyCompleter(), 4).Generate(context.Background(), docRequest())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if first.Document != second.Document {
		t.Error("identical runs should produce identical documents")
	}
}

func TestGenerate_CustomSeparator(t *testing.T) {
	req := docRequest()
	req.Separator = "\n\n---\n\n"

	res, err := newCoordinator(happyCompleter(), 1).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !strings.Contains(res.Document, "---") {
		t.Error("document should use the configured separator")
	}
}

func TestGenerate_InvalidRequest_NoServiceCall(t *testing.T) {
	pc := happyCompleter()
	c := newCoordinator(pc, 1)

	req := docRequest()
	req.WordCount = 0

	if _, err := c.Generate(context.Background(), req); err == nil {
		t.Fatal("expected error for invalid request")
	}
	if pc.callCount() != 0 {
		t.Errorf("invalid request should fail before any service call, got %d calls", pc.callCount())
	}
}

func TestGenerate_EmptyWriteIsFatal(t *testing.T) {
	pc := happyCompleter()
	pc.onWrite = func(prompt string) (string, error) {
		return "   ", nil
	}
	c := newCoordinator(pc, 2)

	res, err := c.Generate(context.Background(), docRequest())
	if err == nil {
		t.Fatal("expected error when the writer returns empty content")
	}
	if res != nil {
		t.Error("no document should be produced on failure")
	}

	var pe *PhaseError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %T, want *PhaseError", err)
	}
	if pe.Phase != models.PhaseWrite {
		t.Errorf("phase = %q, want %q", pe.Phase, models.PhaseWrite)
	}
	if pe.NodeID == "" {
		t.Error("phase error should carry the failing node ID")
	}
	if !errors.Is(err, api.ErrEmptyCompletion) {
		t.Errorf("err chain should include ErrEmptyCompletion, got %v", err)
	}
}

func TestGenerate_OutlineFailureSkipsWritePhase(t *testing.T) {
	pc := happyCompleter()
	pc.onOutline = func(prompt string) (string, error) {
		return "", fmt.Errorf("service unavailable")
	}
	wroteAnything := false
	pc.onWrite = func(prompt string) (string, error) {
		wroteAnything = true
		return "content", nil
	}
	c := newCoordinator(pc, 1)

	_, err := c.Generate(context.Background(), docRequest())
	var pe *PhaseError
	if !errors.As(err, &pe) || pe.Phase != models.PhaseOutline {
		t.Fatalf("err = %v, want outline phase error", err)
	}
	if wroteAnything {
		t.Error("write phase must not run after an outline failure")
	}
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newCoordinator(happyCompleter(), 2).Generate(ctx, docRequest())
	if err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if res != nil {
		t.Error("cancellation must not yield a partial document")
	}
}

func TestGenerate_SingleLeafDocument(t *testing.T) {
	// A request at the minimum threshold never decomposes: the document is
	// the single leaf's content with no separators.
	pc := happyCompleter()
	pc.onOutline = func(prompt string) (string, error) { return "the outline", nil }
	pc.onWrite = func(prompt string) (string, error) { return "the whole piece", nil }

	req := docRequest()
	req.WordCount = 900

	res, err := newCoordinator(pc, 4).Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Document != "the whole piece" {
		t.Errorf("document = %q", res.Document)
	}
	if res.Tree.LeafCount() != 1 {
		t.Errorf("leaf count = %d, want 1", res.Tree.LeafCount())
	}
}

func TestGenerate_EmitsProgressEvents(t *testing.T) {
	events := make(chan Event, 64)
	phase := models.PhaseConfig{Model: "m", Sampling: models.SamplingParams{MaxTokens: 1024}}
	pc := happyCompleter()
	c := New(
		planner.New(pc, models.DefaultThresholds(), phase),
		outline.New(pc, phase),
		writer.New(pc, phase),
		Options{Workers: 1, Events: events},
	)

	if _, err := c.Generate(context.Background(), docRequest()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	close(events)

	seen := map[models.Phase]bool{}
	for ev := range events {
		seen[ev.Phase] = true
	}
	for _, phase := range []models.Phase{models.PhasePlan, models.PhaseOutline, models.PhaseWrite, models.PhaseAssemble} {
		if !seen[phase] {
			t.Errorf("no event emitted for %s phase", phase)
		}
	}
}

func TestEmit_NeverBlocks(t *testing.T) {
	full := make(chan Event, 1)
	full <- Event{}

	// Both a full channel and a nil channel are dropped silently.
	emit(full, Event{Message: "dropped"})
	emit(nil, Event{Message: "dropped"})
}
