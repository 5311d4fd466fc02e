package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/tracker"
)

var statusRuns int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many matches sit in each ingestion state and the latest runs",
	Long: `Classify every match by its furthest state (discovered, raw-saved,
fully-parsed, processed) from what the stores hold, and list recent stage runs.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRuns, "runs", 10, "number of recent stage runs to show")
}

type playerCounter interface {
	PlayerCount(ctx context.Context) (int, error)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	snap, err := tracker.New(s.raw, s.db, log).Snapshot(ctx, cfg.ModeFilter)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Ingestion ===\n\n")
	if cfg.ModeFilter != "" {
		fmt.Fprintf(os.Stdout, "  Mode filter   : %s\n", cfg.ModeFilter)
	}
	if pc, ok := s.raw.(playerCounter); ok {
		n, err := pc.PlayerCount(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "  Players seen  : %d\n\n", n)
	}
	report.PrintStateCounts(os.Stdout, snap.Counts())

	runs, err := s.db.LatestRuns(ctx, statusRuns)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n--- Latest Runs ---\n\n")
	report.PrintRuns(os.Stdout, runs)
	return nil
}
