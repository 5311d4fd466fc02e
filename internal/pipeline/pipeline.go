// Package pipeline runs the batch stages: discover, retrieve, process and
// reload. Every stage derives its work queue from persisted state at entry, so
// a run can be interrupted and re-run at any point.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pable/go-bfv-analytics/internal/aggregator"
	"github.com/pable/go-bfv-analytics/internal/cleaner"
	"github.com/pable/go-bfv-analytics/internal/extract"
	"github.com/pable/go-bfv-analytics/internal/lookup"
	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
	"github.com/pable/go-bfv-analytics/internal/tracker"
)

// Stage names as recorded in the run log.
const (
	StageDiscover = "discover"
	StageRetrieve = "retrieve"
	StageProcess  = "process"
	StageReload   = "reload"
)

// Deps are the collaborators a Pipeline is built from. Extractor may be nil
// when the retrieve stage is not used; Metrics may be nil.
type Deps struct {
	Raw       store.RawStore
	Report    store.ReportingStore
	Extractor extract.Extractor
	Lookup    *lookup.Tables
	Metrics   *Metrics
	Log       *zap.Logger
	Now       func() time.Time
}

// Pipeline runs stages against one pair of stores. All stages of one Pipeline
// share a run id.
type Pipeline struct {
	raw       store.RawStore
	report    store.ReportingStore
	extractor extract.Extractor
	lookup    *lookup.Tables
	metrics   *Metrics
	log       *zap.Logger
	now       func() time.Time

	opts    aggregator.Options
	tracker *tracker.Tracker
	cleaner *cleaner.Cleaner
	runID   string
}

// New wires a Pipeline.
func New(d Deps, opts aggregator.Options) *Pipeline {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	runID := uuid.NewString()
	log := d.Log.With(zap.String("run_id", runID))
	return &Pipeline{
		raw:       d.Raw,
		report:    d.Report,
		extractor: d.Extractor,
		lookup:    d.Lookup,
		metrics:   d.Metrics,
		log:       log,
		now:       d.Now,
		opts:      opts,
		tracker:   tracker.New(d.Raw, d.Report, log),
		cleaner:   cleaner.New(d.Lookup, log),
		runID:     runID,
	}
}

// RunID identifies this pipeline's stage runs in the run log.
func (p *Pipeline) RunID() string { return p.runID }

// stageRun tallies outcomes for one stage execution.
type stageRun struct {
	p   *Pipeline
	rec model.RunRecord
	log *zap.Logger
}

func (p *Pipeline) begin(stage string) *stageRun {
	return &stageRun{
		p:   p,
		rec: model.RunRecord{RunID: p.runID, Stage: stage, StartedAt: p.now().UTC()},
		log: p.log.With(zap.String("stage", stage)),
	}
}

// observe records the outcome of one item. It returns the error to abort the
// stage with, or nil to continue.
func (r *stageRun) observe(id string, err error) error {
	o, fatal := Classify(err)
	if fatal {
		r.log.Error("aborting stage", zap.String("match_id", id), zap.Error(err))
		return err
	}
	r.count(o, 1)
	switch {
	case o == OutcomeSkippedKnown:
		r.log.Debug("already known", zap.String("match_id", id))
	case o.Skipped():
		r.log.Info("skipped", zap.String("match_id", id), zap.Stringer("outcome", o), zap.Error(err))
	case o.Failed():
		r.log.Error("failed", zap.String("match_id", id), zap.Stringer("outcome", o), zap.Error(err))
	}
	return nil
}

func (r *stageRun) count(o Outcome, n int) {
	switch {
	case o.Skipped():
		r.rec.Skipped += n
	case o.Failed():
		r.rec.Failed += n
	default:
		r.rec.Processed += n
	}
	for range n {
		r.p.metrics.outcome(r.rec.Stage, o)
	}
}

// finish stamps and persists the run record.
func (r *stageRun) finish(ctx context.Context) (model.RunRecord, error) {
	r.rec.FinishedAt = r.p.now().UTC()
	if err := r.p.report.RecordRun(ctx, r.rec); err != nil {
		return r.rec, fmt.Errorf("record %s run: %w", r.rec.Stage, err)
	}
	r.p.metrics.finished(r.rec.Stage, r.rec.StartedAt, r.rec.FinishedAt)
	r.log.Info("stage complete",
		zap.Int("processed", r.rec.Processed),
		zap.Int("skipped", r.rec.Skipped),
		zap.Int("failed", r.rec.Failed),
		zap.Duration("took", r.rec.FinishedAt.Sub(r.rec.StartedAt)))
	return r.rec, nil
}

// Discover records the match ids found on player report listings, with their
// mode, plus the listing's player id. Ids already known count as skipped.
func (p *Pipeline) Discover(ctx context.Context, listings []*extract.Listing) (model.RunRecord, error) {
	run := p.begin(StageDiscover)

	known, err := p.raw.KnownMatches(ctx, "")
	if err != nil {
		return run.rec, fmt.Errorf("list known matches: %w", err)
	}
	seen := make(map[string]bool, len(known))
	for _, r := range known {
		seen[r.ID] = true
	}

	for _, l := range listings {
		found, err := l.Matches()
		if err != nil {
			run.log.Error("bad listing", zap.String("player_id", l.PlayerID), zap.Error(err))
			run.count(OutcomeFailedMalformed, 1)
			continue
		}

		ids := make([]string, len(found))
		modes := make([]string, len(found))
		var fresh int
		for i, d := range found {
			ids[i], modes[i] = d.ID, d.Mode
			if !seen[d.ID] {
				fresh++
			}
		}

		err = p.raw.UpsertDiscovered(ctx, ids, modes)
		if err == nil {
			err = p.raw.UpsertPlayers(ctx, []string{l.PlayerID})
		}
		if err != nil {
			o, fatal := Classify(err)
			if fatal {
				run.log.Error("aborting stage", zap.String("player_id", l.PlayerID), zap.Error(err))
				return run.rec, err
			}
			run.log.Error("listing not saved", zap.String("player_id", l.PlayerID), zap.Error(err))
			run.count(o, len(found))
			continue
		}

		for _, d := range found {
			if seen[d.ID] {
				run.count(OutcomeSkippedKnown, 1)
				continue
			}
			seen[d.ID] = true
			run.count(OutcomeProcessed, 1)
		}
		run.log.Debug("listing saved",
			zap.String("player_id", l.PlayerID),
			zap.Int("reports", len(found)),
			zap.Int("new", fresh))
	}
	return run.finish(ctx)
}

// Retrieve captures every known match that has no parsed document yet. The
// queue is optionally restricted to one mode.
func (p *Pipeline) Retrieve(ctx context.Context, modeFilter string) (model.RunRecord, error) {
	run := p.begin(StageRetrieve)
	if p.extractor == nil {
		return run.rec, fmt.Errorf("retrieve: no extractor configured")
	}

	queue, err := p.tracker.MatchesNeedingRetrieval(ctx, modeFilter)
	if err != nil {
		return run.rec, err
	}
	run.log.Info("retrieval queue", zap.Int("matches", len(queue)), zap.String("mode", modeFilter))

	for _, id := range queue {
		if err := run.observe(id, p.retrieveOne(ctx, id)); err != nil {
			return run.rec, err
		}
	}
	return run.finish(ctx)
}

func (p *Pipeline) retrieveOne(ctx context.Context, id string) error {
	m, err := p.extractor.Extract(ctx, id)
	if err != nil {
		return err
	}
	if err := extract.ValidateMatch(m); err != nil {
		return err
	}
	if err := p.raw.MarkCaptured(ctx, id); err != nil {
		return fmt.Errorf("mark captured: %w", err)
	}
	if err := p.raw.UpsertMatch(ctx, m); err != nil {
		return fmt.Errorf("save match: %w", err)
	}

	players := make([]string, len(m.Players))
	for i, rp := range m.Players {
		players[i] = rp.PlayerID
	}
	if err := p.raw.UpsertPlayers(ctx, players); err != nil {
		return fmt.Errorf("save players: %w", err)
	}
	return nil
}

// Process cleans and ranks every parsed match without a processed record, or
// every parsed match when reprocessAll is set.
func (p *Pipeline) Process(ctx context.Context, reprocessAll bool) (model.RunRecord, error) {
	run := p.begin(StageProcess)

	queue, err := p.tracker.MatchesNeedingProcessing(ctx, reprocessAll)
	if err != nil {
		return run.rec, err
	}
	run.log.Info("processing queue", zap.Int("matches", len(queue)), zap.Bool("all", reprocessAll))

	for _, id := range queue {
		if err := run.observe(id, p.processOne(ctx, id)); err != nil {
			return run.rec, err
		}
	}
	return run.finish(ctx)
}

// processOne writes the facts before the processed match record, so a match
// only becomes "processed" once all of its facts exist.
func (p *Pipeline) processOne(ctx context.Context, id string) error {
	raw, err := p.raw.GetMatch(ctx, id)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}
	match, players, err := p.cleaner.Clean(raw)
	if err != nil {
		return err
	}
	if err := p.report.UpsertFacts(ctx, players); err != nil {
		return fmt.Errorf("save facts: %w", err)
	}
	if err := p.report.UpsertProcessedMatch(ctx, match); err != nil {
		return fmt.Errorf("save processed match: %w", err)
	}
	return nil
}

// Reload recomputes every reporting table from all processed data and
// replaces them wholesale. Any error aborts the stage.
func (p *Pipeline) Reload(ctx context.Context) (model.RunRecord, error) {
	run := p.begin(StageReload)

	matches, err := p.report.ProcessedMatches(ctx)
	if err != nil {
		return run.rec, fmt.Errorf("load processed matches: %w", err)
	}
	facts, err := p.report.Facts(ctx, store.FactFilter{})
	if err != nil {
		return run.rec, fmt.Errorf("load facts: %w", err)
	}

	res := aggregator.Build(matches, facts, p.lookup, p.opts, p.now().UTC())
	for _, t := range res.Tables() {
		if err := p.report.WriteTable(ctx, t); err != nil {
			return run.rec, fmt.Errorf("write %s: %w", t.Name, err)
		}
		run.log.Debug("table written", zap.String("table", t.Name), zap.Int("rows", len(t.Rows)))
	}
	run.count(OutcomeProcessed, len(res.Facts))
	return run.finish(ctx)
}

// RunOptions selects what a full run does.
type RunOptions struct {
	Listings     []*extract.Listing
	ModeFilter   string
	ReprocessAll bool
}

// Run executes the stages in order, each to completion. Discover runs only
// when listings are given; retrieve only when an extractor is configured.
func (p *Pipeline) Run(ctx context.Context, o RunOptions) ([]model.RunRecord, error) {
	var recs []model.RunRecord
	step := func(rec model.RunRecord, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", rec.Stage, err)
		}
		recs = append(recs, rec)
		return nil
	}

	if len(o.Listings) > 0 {
		if err := step(p.Discover(ctx, o.Listings)); err != nil {
			return recs, err
		}
	}
	if p.extractor != nil {
		if err := step(p.Retrieve(ctx, o.ModeFilter)); err != nil {
			return recs, err
		}
	}
	if err := step(p.Process(ctx, o.ReprocessAll)); err != nil {
		return recs, err
	}
	if err := step(p.Reload(ctx)); err != nil {
		return recs, err
	}
	return recs, nil
}
