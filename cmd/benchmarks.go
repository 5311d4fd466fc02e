package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/storage"
)

var benchmarksJSON bool

var benchmarksCmd = &cobra.Command{
	Use:   "benchmarks",
	Short: "Show the top-percentile benchmark row",
	Long: `Print each benchmarked metric's value at the top 50/25/10/5/1% thresholds over
the trailing window used by the last reload.`,
	Args: cobra.NoArgs,
	RunE: runBenchmarks,
}

func init() {
	benchmarksCmd.Flags().BoolVar(&benchmarksJSON, "json", false, "print the row as JSON keyed by column")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	values, err := s.db.Benchmarks(ctx)
	if errors.Is(err, storage.ErrNotBuilt) {
		fmt.Fprintln(os.Stdout, "No benchmarks yet. Run 'bfvmetrics reload' first.")
		return nil
	}
	if err != nil {
		return err
	}

	if benchmarksJSON {
		out, err := sonic.ConfigStd.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("encode benchmarks: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(out))
		return nil
	}
	report.PrintBenchmarks(os.Stdout, values)
	return nil
}
