package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ShayCichocki/fable/internal/api"
	"github.com/ShayCichocki/fable/internal/pipeline"
	"github.com/ShayCichocki/fable/internal/tui"
	"github.com/ShayCichocki/fable/pkg/models"
)

// runTUIMode runs the pipeline behind the progress TUI. The TUI is
// display-only: generation runs in the background and the only interaction
// is cancelling with q.
func runTUIMode(ctx context.Context, cancel context.CancelFunc, coord *pipeline.Coordinator,
	client *api.Client, req models.Request, events chan pipeline.Event) (*pipeline.Result, error) {

	p, _ := tui.NewGenerateProgram(req.Task, req.WordCount)

	// Forward pipeline events into the TUI.
	go func() {
		state := tui.GenerateState{
			Task:         req.Task,
			TargetWords:  req.WordCount,
			CurrentPhase: models.PhasePlan,
		}
		for ev := range events {
			state.CurrentPhase = ev.Phase
			if ev.Total > 0 {
				state.SectionsDone = ev.Done
				state.SectionsTotal = ev.Total
			}
			state.Cost = client.Tracker().Cost()
			p.Send(tui.GenerateUpdateMsg{State: state})
			if ev.Message != "" {
				p.Send(tui.GenerateLogMsg{
					Timestamp: time.Now(),
					Phase:     ev.Phase,
					Message:   ev.Message,
				})
			}
		}
	}()

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	resCh := make(chan outcome, 1)
	go func() {
		result, err := coord.Generate(ctx, req)
		close(events)
		words := 0
		if result != nil {
			words = result.WordCount
		}
		p.Send(tui.GenerateDoneMsg{WordCount: words, Err: err})
		resCh <- outcome{result: result, err: err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-resCh
		return nil, fmt.Errorf("running TUI: %w", err)
	}

	// The user quit the TUI; if generation is still running this cancels it.
	cancel()
	out := <-resCh
	if out.err != nil {
		return nil, out.err
	}
	return out.result, nil
}
