package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ShayCichocki/fable/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past generation runs",
	Long: `List past generation runs from the ledger at
~/.local/share/fable/fable.db, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := history.OpenGlobal()
		if err != nil {
			return fmt.Errorf("opening history db: %w", err)
		}
		defer db.Close()

		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrating history db: %w", err)
		}

		runs, err := db.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tTASK\tWORDS\tSECTIONS\tTOKENS\tDURATION")
		for _, r := range runs {
			task := r.Task
			if rn := []rune(task); len(rn) > 40 {
				task = string(rn[:37]) + "..."
			}
			fmt.Fprintf(w, "%s\t%s\t%d/%d\t%d\t%d\t%s\n",
				r.CreatedAt.Local().Format("2006-01-02 15:04"),
				task, r.ActualWords, r.TargetWords, r.Leaves,
				r.InputTokens+r.OutputTokens,
				r.Duration.Round(time.Second))
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
}
