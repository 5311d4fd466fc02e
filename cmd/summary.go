package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/storage"
)

var summaryTop int

// summaryCmd is the cobra command for displaying a high-level reporting overview.
var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show a high-level overview of the reporting tables",
	Long: `Display the top players from the player dimension and the size of every
map-mode stratum in the fact table.`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryTop, "top", 10, "number of players to show")
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	players, err := s.db.TopPlayers(ctx, summaryTop)
	if errors.Is(err, storage.ErrNotBuilt) {
		fmt.Fprintln(os.Stdout, "No reporting tables yet. Run 'bfvmetrics run' to build them.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("get top players: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\n=== Reporting Summary ===\n")
	fmt.Fprintf(os.Stdout, "\n--- Top Players ---\n\n")
	report.PrintPlayers(os.Stdout, players)

	strata, err := s.db.StrataSizes(ctx)
	if err != nil {
		return fmt.Errorf("get strata: %w", err)
	}
	fmt.Fprintf(os.Stdout, "\n--- Map/Mode Strata ---\n\n")
	report.PrintStrata(os.Stdout, strata)
	return nil
}
