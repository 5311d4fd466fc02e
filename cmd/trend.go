package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/report"
)

var trendCmd = &cobra.Command{
	Use:   "trend <player_id>",
	Short: "Chronological per-match performance trend for a player",
	Args:  cobra.ExactArgs(1),
	RunE:  runTrend,
}

func init() {
	addFactFlags(trendCmd)
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	facts, err := s.db.Facts(ctx, factFilter(args[0]))
	if err != nil {
		return fmt.Errorf("query facts: %w", err)
	}
	if len(facts) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	bench, err := loadBenchmarks(ctx, s.db)
	if err != nil {
		return err
	}
	report.PrintTrend(os.Stdout, facts, bench)
	return nil
}
