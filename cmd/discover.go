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

var discoverCmd = &cobra.Command{
	Use:   "discover <listing.json>...",
	Short: "Record match ids from captured player report listings",
	Long: `Read one or more report listings written by the page extractor and record every
match id they reference, with its mode, plus the listing's player id.

Listing format:
  {"player_id": "psn_Name", "reports": [{"url": ".../gamereport/psn/123/", "name": "Breakthrough - Twisted Steel"}]}`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, args []string) error {
	listings, err := readListings(args)
	if err != nil {
		return err
	}
	return stage(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) error {
		rec, err := p.Discover(ctx, listings)
		if err != nil {
			return err
		}
		report.PrintRuns(os.Stdout, []model.RunRecord{rec})
		return nil
	})
}

func readListings(paths []string) ([]*extract.Listing, error) {
	out := make([]*extract.Listing, 0, len(paths))
	for _, path := range paths {
		l, err := extract.ReadListing(path)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}
