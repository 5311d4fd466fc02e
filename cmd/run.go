package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
	"github.com/pable/go-bfv-analytics/internal/report"
)

var runCmd = &cobra.Command{
	Use:   "run [listing.json]...",
	Short: "Run discover, retrieve, process and reload in order",
	Long: `Run every stage to completion before starting the next. Discovery runs only
when listing files are given. A stage that loses its store aborts the run.`,
	RunE: runAll,
}

func init() {
	addRetrieveFlags(runCmd)
	runCmd.Flags().BoolVar(&reprocessAll, "all", false, "reprocess every parsed match")
}

func runAll(cmd *cobra.Command, args []string) error {
	applyRetrieveFlags(cmd)
	listings, err := readListings(args)
	if err != nil {
		return err
	}
	ext := extract.Dir{Path: cfg.CaptureDir}
	return stage(cmd, ext, func(ctx context.Context, p *pipeline.Pipeline) error {
		recs, err := p.Run(ctx, pipeline.RunOptions{
			Listings:     listings,
			ModeFilter:   cfg.ModeFilter,
			ReprocessAll: reprocessAll,
		})
		report.PrintRuns(os.Stdout, recs)
		return err
	})
}
