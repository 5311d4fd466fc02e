package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/report"
	"github.com/pable/go-bfv-analytics/internal/store"
)

var (
	showPlayerID string
	showGame     string
)

var showCmd = &cobra.Command{
	Use:   "show <match_id>",
	Short: "Show a processed match ranked by overall rank",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showPlayerID, "player", "", "highlight this player id")
	showCmd.Flags().StringVar(&showGame, "game", string(extract.GameBFV), "game the tracker link points at")
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	s, err := openStores(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	matches, err := s.db.ProcessedMatches(ctx)
	if err != nil {
		return fmt.Errorf("query processed matches: %w", err)
	}
	var match *model.ProcessedMatch
	for i := range matches {
		if matches[i].ID == id {
			match = &matches[i]
			break
		}
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "No processed match %q\n", id)
		return nil
	}

	facts, err := s.db.Facts(ctx, store.FactFilter{MatchID: id})
	if err != nil {
		return fmt.Errorf("query facts: %w", err)
	}

	url, err := extract.MatchURL(id, extract.Game(showGame))
	if err != nil {
		log.Debug("no tracker link", zap.String("match_id", id), zap.Error(err))
		url = ""
	}
	report.PrintMatchSummary(os.Stdout, *match, url)
	report.PrintMatchPlayers(os.Stdout, facts, showPlayerID)
	return nil
}
