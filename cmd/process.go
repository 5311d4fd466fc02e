package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
	"github.com/pable/go-bfv-analytics/internal/report"
)

var reprocessAll bool

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Clean and rank parsed matches into per-player facts",
	Long: `Clean every parsed match that has no processed record yet, rank its players
and store one fact per player. --all reprocesses every parsed match, e.g. after a
formula change.`,
	Args: cobra.NoArgs,
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&reprocessAll, "all", false, "reprocess every parsed match")
}

func runProcess(cmd *cobra.Command, args []string) error {
	return stage(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) error {
		rec, err := p.Process(ctx, reprocessAll)
		if err != nil {
			return err
		}
		report.PrintRuns(os.Stdout, []model.RunRecord{rec})
		return nil
	})
}
