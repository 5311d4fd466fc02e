package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
	"github.com/pable/go-bfv-analytics/internal/report"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Rebuild the reporting tables from all processed facts",
	Long: `Recompute fact_match_players, dim_player, dim_match and dim_benchmarks from every
processed match and replace the tables wholesale.`,
	Args: cobra.NoArgs,
	RunE: runReload,
}

func runReload(cmd *cobra.Command, args []string) error {
	return stage(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) error {
		rec, err := p.Reload(ctx)
		if err != nil {
			return err
		}
		report.PrintRuns(os.Stdout, []model.RunRecord{rec})
		return nil
	})
}
