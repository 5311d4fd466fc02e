package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the analytics database",
	Long: `Run an arbitrary SQL query against the analytics database and print results as a table.

Schema overview:
  known_matches(match_id, mode, discovered_at, captured_at)
  raw_matches(match_id, doc, last_updated)
  players(player_id, first_seen)
  processed_matches(match_id, map, mode, team_1, team_2, winner, duration_m, start_time, processed_date, ...)
  processed_match_players(id, match_id, player_id, team, team_status, kills, deaths, score,
    score_per_min, true_deaths, true_kills_per_death, overall_rank, team_rank, ...)
  pipeline_runs(run_id, stage, processed, skipped, failed, started_at, finished_at)

Reporting tables (after reload):
  fact_match_players, dim_player, dim_match, dim_benchmarks

Note: known_matches and raw_matches stay empty when the raw store is MongoDB.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	cols, rows, err := db.QueryRaw(cmd.Context(), query)
	if err != nil {
		return err
	}
	report.PrintRows(os.Stdout, cols, rows)
	return nil
}
