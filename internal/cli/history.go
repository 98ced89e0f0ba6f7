package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/tsawler/msocr/store"
)

func newHistoryCmd(logs *logFlags) *cobra.Command {
	var (
		dir   string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs",
		Long: `Lists the runs recorded with extract --history, newest first. With a run
ID, shows that run and its page failures.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, closeLog, err := logs.newLogger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			s, err := store.Open(dir)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer s.Close()

			if len(args) == 1 {
				return showRun(cmd, s, args[0])
			}
			return listRuns(cmd, s, limit)
		},
	}
	cmd.Flags().StringVar(&dir, "history", "", "history directory (default ~/.msocr/data)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs")
	return cmd
}

func listRuns(cmd *cobra.Command, s *store.Store, limit int) error {
	runs, err := s.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %s  %-15s %3d pages %2d failed  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Outcome,
			r.TotalPages, r.PagesFailed, filepath.Base(r.Source))
	}
	return nil
}

func showRun(cmd *cobra.Command, s *store.Store, id string) error {
	r, err := s.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(filepath.Base(r.Source)))
	row(out, "run", r.ID)
	row(out, "title", r.Title)
	row(out, "started", r.StartedAt.Local().Format(time.DateTime))
	row(out, "outcome", r.Outcome)
	row(out, "pages", fmt.Sprintf("%d (%d native, %d OCR), %d failed", r.TotalPages, r.PagesNative, r.PagesOCR, r.PagesFailed))
	row(out, "tables", fmt.Sprintf("%d", r.Tables))
	if r.AvgConfidence != nil {
		row(out, "confidence", fmt.Sprintf("%.1f", *r.AvgConfidence))
	}
	row(out, "time", r.WallTime.String())
	for _, p := range r.Outputs {
		row(out, "wrote", p)
	}
	for _, f := range r.Failures {
		fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("  page %d: %s: %s", f.PageIndex+1, f.Stage, f.Reason)))
	}
	return nil
}
