package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
	"github.com/pable/go-bfv-analytics/internal/report"
)

var (
	captureDir string
	modeFilter string
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Load captured match pages for every discovered match not yet parsed",
	Long: `Read <capture-dir>/<match_id>.json for every known match without a parsed
document. Captures that do not exist yet are skipped and retried on the next run.`,
	Args: cobra.NoArgs,
	RunE: runRetrieve,
}

func init() {
	addRetrieveFlags(retrieveCmd)
}

func addRetrieveFlags(c *cobra.Command) {
	c.Flags().StringVar(&captureDir, "capture-dir", "", "directory of captured match documents (default BFV_CAPTURE_DIR or ./captures)")
	c.Flags().StringVar(&modeFilter, "mode", "", "only retrieve matches of this mode, e.g. Breakthrough")
}

// applyRetrieveFlags overrides config with retrieve flags that were set.
func applyRetrieveFlags(cmd *cobra.Command) {
	if cmd.Flags().Changed("capture-dir") {
		cfg.CaptureDir = captureDir
	}
	if cmd.Flags().Changed("mode") {
		cfg.ModeFilter = modeFilter
	}
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	applyRetrieveFlags(cmd)
	ext := extract.Dir{Path: cfg.CaptureDir}
	return stage(cmd, ext, func(ctx context.Context, p *pipeline.Pipeline) error {
		rec, err := p.Retrieve(ctx, cfg.ModeFilter)
		if err != nil {
			return err
		}
		report.PrintRuns(os.Stdout, []model.RunRecord{rec})
		return nil
	})
}
