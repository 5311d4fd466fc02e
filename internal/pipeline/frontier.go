package pipeline

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/store"
)

// FrontierOptions selects whose report listings the next discover revisits.
type FrontierOptions struct {
	Sample  int           // players drawn from recent facts
	Window  time.Duration // recency of the draw; zero draws from every fact
	Players []string      // always included
	Seed    uint64        // zero seeds randomly
}

// Frontier returns a random sample of players seen in matches started within
// the window, plus the given players, deduplicated and sorted.
func (p *Pipeline) Frontier(ctx context.Context, o FrontierOptions) ([]string, error) {
	out := make(map[string]struct{}, o.Sample+len(o.Players))
	for _, id := range o.Players {
		if id != "" {
			out[id] = struct{}{}
		}
	}

	if o.Sample > 0 {
		var f store.FactFilter
		if o.Window > 0 {
			f.Since = p.now().Add(-o.Window)
		}
		facts, err := p.report.Facts(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("load recent facts: %w", err)
		}

		seen := make(map[string]struct{})
		var pool []string
		for _, fact := range facts {
			if _, dup := seen[fact.PlayerID]; !dup {
				seen[fact.PlayerID] = struct{}{}
				pool = append(pool, fact.PlayerID)
			}
		}
		sort.Strings(pool)

		seed := o.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rng := rand.New(rand.NewPCG(seed, seed>>1))
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, id := range pool[:min(o.Sample, len(pool))] {
			out[id] = struct{}{}
		}
		p.log.Debug("frontier sample",
			zap.Int("pool", len(pool)),
			zap.Int("drawn", min(o.Sample, len(pool))),
			zap.Duration("window", o.Window))
	}

	ids := make([]string, 0, len(out))
	for id := range out {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
