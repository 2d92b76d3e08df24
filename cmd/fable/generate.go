package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ShayCichocki/fable/internal/api"
	"github.com/ShayCichocki/fable/internal/config"
	"github.com/ShayCichocki/fable/internal/history"
	"github.com/ShayCichocki/fable/internal/outline"
	"github.com/ShayCichocki/fable/internal/pipeline"
	"github.com/ShayCichocki/fable/internal/planner"
	"github.com/ShayCichocki/fable/internal/writer"
	"github.com/ShayCichocki/fable/pkg/models"
)

var (
	genWords     int
	genOutput    string
	genDumpTree  string
	genHeadless  bool
	genWorkers   int
	genMaxDepth  int
	genSeparator string

	genMinWords    int
	genMaxWords    int
	genMinChildren int
	genMaxChildren int

	genPlanModel    string
	genOutlineModel string
	genWriteModel   string

	genSetting       string
	genCharacters    []string
	genTheme         string
	genTone          string
	genStyle         string
	genStructure     string
	genPlot          string
	genWorldbuilding string
	genGoals         string
)

var generateCmd = &cobra.Command{
	Use:   "generate <task>",
	Short: "Generate a long-form text for a writing task",
	Long: `Generate a complete text for the given writing task.

The task is planned into a tree of sections, each section is outlined and
written, and the results are concatenated in reading order. Progress is
shown in a TUI unless --headless is set.

Examples:
  fable generate "a short story about a lighthouse keeper" --words 3000
  fable generate "a field guide to urban birds" --words 20000 --output guide.md
  fable generate "a novella" --words 40000 --tone melancholic --setting "1920s Lisbon"

A run can be stopped from another terminal by creating .fable/signals/kill
in the working directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVarP(&genWords, "words", "w", 0, "Target word count (required)")
	generateCmd.MarkFlagRequired("words")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the document to a file instead of stdout")
	generateCmd.Flags().StringVar(&genDumpTree, "dump-tree", "", "Write the planned task tree as YAML to a file")
	generateCmd.Flags().BoolVar(&genHeadless, "headless", false, "Run without TUI (headless mode)")
	generateCmd.Flags().IntVar(&genWorkers, "workers", 0, "Concurrent sections in the outline and write phases")
	generateCmd.Flags().IntVar(&genMaxDepth, "max-depth", 0, "Maximum task tree depth")
	generateCmd.Flags().StringVar(&genSeparator, "separator", "", "Separator between sections in the assembled document")

	generateCmd.Flags().IntVar(&genMinWords, "min-words", 0, "Sections at or below this budget are never split")
	generateCmd.Flags().IntVar(&genMaxWords, "max-words", 0, "Sections at or above this budget are always split")
	generateCmd.Flags().IntVar(&genMinChildren, "min-children", 0, "Minimum sub-sections per split")
	generateCmd.Flags().IntVar(&genMaxChildren, "max-children", 0, "Maximum sub-sections per split")

	generateCmd.Flags().StringVar(&genPlanModel, "plan-model", "", "Model for the planning phase")
	generateCmd.Flags().StringVar(&genOutlineModel, "outline-model", "", "Model for the outline phase")
	generateCmd.Flags().StringVar(&genWriteModel, "write-model", "", "Model for the writing phase")

	generateCmd.Flags().StringVar(&genSetting, "setting", "", "Story setting and background")
	generateCmd.Flags().StringSliceVar(&genCharacters, "characters", nil, "Main characters")
	generateCmd.Flags().StringVar(&genTheme, "theme", "", "Core theme")
	generateCmd.Flags().StringVar(&genTone, "tone", "", "Writing tone or mood")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "Language style")
	generateCmd.Flags().StringVar(&genStructure, "structure", "", "Story structure notes")
	generateCmd.Flags().StringVar(&genPlot, "plot", "", "Plot development notes")
	generateCmd.Flags().StringVar(&genWorldbuilding, "worldbuilding", "", "World-building details")
	generateCmd.Flags().StringVar(&genGoals, "goals", "", "Specific writing goals")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlagOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	req := models.Request{
		Task:      task,
		WordCount: genWords,
		Meta: models.Metadata{
			Setting:       genSetting,
			Characters:    genCharacters,
			Theme:         genTheme,
			Tone:          genTone,
			Style:         genStyle,
			Structure:     genStructure,
			Plot:          genPlot,
			Worldbuilding: genWorldbuilding,
			Goals:         genGoals,
		},
		Thresholds: cfg.Thresholds,
		MaxDepth:   cfg.Generation.MaxDepth,
		Separator:  cfg.Generation.Separator,
	}
	if err := req.Validate(); err != nil {
		return err
	}

	client, err := api.NewClient(api.ClientConfig{
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return err
	}
	completer := api.NewRetryingCompleter(client, cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay)

	events := make(chan pipeline.Event, 256)
	coord := pipeline.New(
		planner.New(completer, cfg.Thresholds, cfg.Phases.Plan),
		outline.New(completer, cfg.Phases.Outline),
		writer.New(completer, cfg.Phases.Write),
		pipeline.Options{Workers: cfg.Generation.Workers, Events: events},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown on interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	// Out-of-band stop: another terminal can create .fable/signals/kill.
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	watcher, err := api.NewStopWatcher(cwd)
	if err != nil {
		return fmt.Errorf("starting stop watcher: %w", err)
	}
	defer watcher.Close()
	defer watcher.Clear()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if watcher.ShouldStop() {
					fmt.Fprintln(os.Stderr, "\nKill signal received, shutting down...")
					cancel()
					return
				}
			}
		}
	}()

	start := time.Now()
	var result *pipeline.Result
	var runErr error
	if genHeadless {
		result, runErr = runHeadlessMode(ctx, coord, req, events)
	} else {
		result, runErr = runTUIMode(ctx, cancel, coord, client, req, events)
	}
	if runErr != nil {
		return runErr
	}

	if err := writeOutputs(result); err != nil {
		return err
	}

	recordRun(client, req, result, time.Since(start))
	printSummary(client, req, result, time.Since(start))
	return nil
}

// applyFlagOverrides layers explicit command-line flags over the loaded
// configuration.
func applyFlagOverrides(cfg *config.Config) {
	if genMinWords > 0 {
		cfg.Thresholds.MinWordCount = genMinWords
	}
	if genMaxWords > 0 {
		cfg.Thresholds.MaxWordCount = genMaxWords
	}
	if genMinChildren > 0 {
		cfg.Thresholds.MinChildren = genMinChildren
	}
	if genMaxChildren > 0 {
		cfg.Thresholds.MaxChildren = genMaxChildren
	}
	if genMaxDepth > 0 {
		cfg.Generation.MaxDepth = genMaxDepth
	}
	if genWorkers > 0 {
		cfg.Generation.Workers = genWorkers
	}
	if genSeparator != "" {
		cfg.Generation.Separator = genSeparator
	}
	if genPlanModel != "" {
		cfg.Phases.Plan.Model = genPlanModel
	}
	if genOutlineModel != "" {
		cfg.Phases.Outline.Model = genOutlineModel
	}
	if genWriteModel != "" {
		cfg.Phases.Write.Model = genWriteModel
	}
}

// runHeadlessMode runs the pipeline with plain log output.
func runHeadlessMode(ctx context.Context, coord *pipeline.Coordinator, req models.Request,
	events chan pipeline.Event) (*pipeline.Result, error) {

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if ev.Total > 0 {
				fmt.Fprintf(os.Stderr, "[%s] %d/%d sections\n", ev.Phase, ev.Done, ev.Total)
			} else if ev.Message != "" {
				fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Phase, ev.Message)
			}
		}
	}()

	result, err := coord.Generate(ctx, req)
	close(events)
	<-done
	return result, err
}

// writeOutputs writes the document and, if requested, the tree dump.
func writeOutputs(result *pipeline.Result) error {
	if genDumpTree != "" {
		f, err := os.Create(genDumpTree)
		if err != nil {
			return fmt.Errorf("creating tree dump file: %w", err)
		}
		dumpErr := result.Tree.DumpYAML(f)
		if closeErr := f.Close(); dumpErr == nil {
			dumpErr = closeErr
		}
		if dumpErr != nil {
			return fmt.Errorf("dumping tree: %w", dumpErr)
		}
	}

	if genOutput != "" {
		if err := os.WriteFile(genOutput, []byte(result.Document), 0644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
		return nil
	}

	fmt.Println(result.Document)
	return nil
}

// recordRun appends the run to the history ledger. Ledger failures are
// reported but never fail a run that produced a document.
func recordRun(client *api.Client, req models.Request, result *pipeline.Result, elapsed time.Duration) {
	db, err := history.OpenGlobal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not open history db: %v\n", err)
		return
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not migrate history db: %v\n", err)
		return
	}

	in, out := client.Tracker().Total()
	run := history.Run{
		ID:           uuid.New().String(),
		Task:         req.Task,
		TargetWords:  req.WordCount,
		ActualWords:  result.WordCount,
		Nodes:        result.Tree.NodeCount(),
		Leaves:       result.Tree.LeafCount(),
		InputTokens:  in,
		OutputTokens: out,
		OutputPath:   genOutput,
		Duration:     elapsed,
	}
	if err := db.RecordRun(run); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", err)
	}
}

// printSummary prints the run summary to stderr so it never mixes with a
// document going to stdout.
func printSummary(client *api.Client, req models.Request, result *pipeline.Result, elapsed time.Duration) {
	green := color.New(color.FgGreen).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	in, out := client.Tracker().Total()
	fmt.Fprintf(os.Stderr, "\n%s %d words across %d sections (target %d)\n",
		green("Done:"), result.WordCount, result.Tree.LeafCount(), req.WordCount)
	fmt.Fprintf(os.Stderr, "%s\n", dim(fmt.Sprintf("%d calls, %d in / %d out tokens, ~$%.2f, %s",
		client.Tracker().Calls(), in, out, client.Tracker().Cost(), elapsed.Round(time.Second))))
}
