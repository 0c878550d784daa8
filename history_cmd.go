package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sdprompt/core"
	"sdprompt/core/validation"
	"sdprompt/db"
)

const maxPromptColumn = 48

func newHistoryCmd(cfg *core.Config) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent runs",
		Long:  "List the most recent runs recorded in the history database, newest first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cfg.HistoryEnabled() {
				return core.ErrMissingConfig("SDPROMPT_HISTORY_DB")
			}
			out := cmd.OutOrStdout()

			if err := validation.CheckFileExists(cfg.HistoryDB); err != nil {
				fmt.Fprintf(out, "no runs recorded yet (%s)\n", cfg.HistoryDB)
				return nil
			}

			database, err := db.Open(cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer database.Close()

			repo := db.NewRepository(database)
			ctx := cmd.Context()

			runs, err := repo.QueryRecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			total, err := repo.CountRuns(ctx, "")
			if err != nil {
				return err
			}
			failed, err := repo.CountRuns(ctx, db.StatusError)
			if err != nil {
				return err
			}

			printHistory(out, runs, total, failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", db.DefaultQueryLimit, "number of runs to show")
	return cmd
}

// printHistory writes one line per run plus a totals footer.
func printHistory(w io.Writer, runs []db.RunRecord, total, failed int64) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded yet")
		return
	}

	dim := color.New(color.FgHiBlack)
	for _, run := range runs {
		status := color.New(color.FgGreen)
		target := run.OutputPath
		if run.Status == db.StatusError {
			status = color.New(color.FgRed)
			target = fmt.Sprintf("%s error: %s", run.ErrorStage, run.ErrorMessage)
		}

		dim.Fprintf(w, "%s  %s  ", shortID(run.RunID), run.CreatedAt.Local().Format(time.DateTime))
		status.Fprintf(w, "%-7s", run.Status)
		fmt.Fprintf(w, "  seed %-10d  %s\n", run.Seed, target)
		dim.Fprintf(w, "          %s %q\n", run.Mode, truncate(run.Prompt, maxPromptColumn))
	}

	fmt.Fprintln(w)
	dim.Fprintf(w, "%d of %d runs shown, %d failed\n", len(runs), total, failed)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
