package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/storage"
	"github.com/pable/go-bfv-analytics/internal/store"
)

var (
	playerSinceDays int
	playerFinished  bool
)

// playerCmd is the cobra command for cross-match analysis of one or more players.
var playerCmd = &cobra.Command{
	Use:   "player <player_id> [<player_id>...]",
	Short: "Cross-match analysis for one or more players",
	Long: `Roll up every processed match of each player and compare the averages
against the benchmark row built by the last reload.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlayer,
}

func init() {
	addFactFlags(playerCmd)
}

// addFactFlags registers the fact filter flags shared by player and trend.
func addFactFlags(c *cobra.Command) {
	c.Flags().IntVar(&playerSinceDays, "since", 0, "only matches started within this many days (0 = all)")
	c.Flags().BoolVar(&playerFinished, "finished", false, "exclude matches the player did not finish")
}

func factFilter(playerID string) store.FactFilter {
	f := store.FactFilter{PlayerID: playerID, ExcludeDNF: playerFinished}
	if playerSinceDays > 0 {
		f.Since = time.Now().Add(-time.Duration(playerSinceDays) * 24 * time.Hour)
	}
	return f
}

// loadBenchmarks returns the benchmark row, or nil before the first reload.
func loadBenchmarks(ctx context.Context, db *storage.DB) (map[string]*float64, error) {
	bench, err := db.Benchmarks(ctx)
	if errors.Is(err, storage.ErrNotBuilt) {
		fmt.Fprintln(os.Stderr, "No benchmarks yet; tiers are blank until 'bfvmetrics reload' runs.")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get benchmarks: %w", err)
	}
	return bench, nil
}

func runPlayer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var facts []model.MatchPlayer
	for _, id := range args {
		got, err := s.db.Facts(ctx, factFilter(id))
		if err != nil {
			return fmt.Errorf("query facts for %s: %w", id, err)
		}
		if len(got) == 0 {
			fmt.Fprintf(os.Stderr, "No processed matches for %s\n", id)
			continue
		}
		facts = append(facts, got...)
	}
	if len(facts) == 0 {
		return nil
	}

	bench, err := loadBenchmarks(ctx, s.db)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout)
	report.PrintProfiles(os.Stdout, aggregator.Profiles(facts), bench)
	return nil
}
