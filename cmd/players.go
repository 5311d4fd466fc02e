package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/pipeline"
)

var (
	playersSample     int
	playersWindowDays int
	playersSeed       uint64
	playersGame       string
)

// playersCmd prints the report listing URLs the next discover should scrape.
var playersCmd = &cobra.Command{
	Use:   "players [player_id...]",
	Short: "List player report listings to scrape next",
	Long: `Draw a random sample of players seen in recently started matches, add the
player ids given as arguments, and print each one's report listing URL.`,
	RunE: runPlayers,
}

func init() {
	f := playersCmd.Flags()
	f.IntVar(&playersSample, "sample", 10, "players to draw from recent matches")
	f.IntVar(&playersWindowDays, "window", 7, "draw from matches started within this many days (0 = all)")
	f.Uint64Var(&playersSeed, "seed", 0, "sampling seed (0 = random)")
	f.StringVar(&playersGame, "game", string(extract.GameBFV), "game the listing URLs point at")
}

func runPlayers(cmd *cobra.Command, args []string) error {
	game := extract.Game(playersGame)
	return stage(cmd, nil, func(ctx context.Context, p *pipeline.Pipeline) error {
		ids, err := p.Frontier(ctx, pipeline.FrontierOptions{
			Sample:  playersSample,
			Window:  time.Duration(playersWindowDays) * 24 * time.Hour,
			Players: args,
			Seed:    playersSeed,
		})
		if err != nil {
			return err
		}
		for _, id := range ids {
			u, err := extract.PlayerURL(id, game, true)
			if err != nil {
				log.Warn("no listing url", zap.String("player_id", id), zap.Error(err))
				continue
			}
			fmt.Fprintln(os.Stdout, u)
		}
		return nil
	})
}
