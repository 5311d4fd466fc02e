// Package store defines the persistence collaborators of the pipeline.
package store

import (
	"context"
	"errors"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/pable/go-bfv-analytics/internal/model"
)

var (
	// ErrNotFound marks a missing dependent record. Callers skip the item.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable marks a connectivity failure. Callers abort the run.
	ErrUnavailable = errors.New("store unavailable")
)

// IsUnavailable reports whether err is, wraps or is marked as ErrUnavailable.
func IsUnavailable(err error) bool {
	return crerr.Is(err, ErrUnavailable)
}

// RawStore holds discovered match ids, captured match documents and player ids.
type RawStore interface {
	// KnownMatches lists every discovered match, optionally restricted to a mode.
	KnownMatches(ctx context.Context, modeFilter string) ([]model.MatchRef, error)
	// UpsertDiscovered records match ids found on a player's report listing.
	// modes is either nil or parallel to ids.
	UpsertDiscovered(ctx context.Context, ids []string, modes []string) error
	// MarkCaptured records that a match's detail page was captured.
	MarkCaptured(ctx context.Context, id string) error
	// UpsertMatch stores a fully parsed match document and stamps LastUpdated.
	UpsertMatch(ctx context.Context, m *model.RawMatch) error
	// GetMatch returns ErrNotFound when no parsed document exists.
	GetMatch(ctx context.Context, id string) (*model.RawMatch, error)
	// ParsedMatches lists the ids of parsed match documents with their last update time.
	ParsedMatches(ctx context.Context) ([]model.StoredID, error)
	UpsertPlayers(ctx context.Context, playerIDs []string) error
}

// ReportingStore holds processed records and the reporting tables.
type ReportingStore interface {
	ProcessedMatches(ctx context.Context) ([]model.ProcessedMatch, error)
	ProcessedMatchIDs(ctx context.Context) ([]model.StoredID, error)
	// UpsertFacts writes all facts or none.
	UpsertFacts(ctx context.Context, facts []model.MatchPlayer) error
	UpsertProcessedMatch(ctx context.Context, m model.ProcessedMatch) error
	// Facts returns processed facts matching the filter.
	Facts(ctx context.Context, filter FactFilter) ([]model.MatchPlayer, error)
	// WriteTable replaces the named reporting table with the given rows.
	WriteTable(ctx context.Context, t model.Table) error
	RecordRun(ctx context.Context, r model.RunRecord) error
}

// FactFilter narrows a fact query. The zero value matches everything.
type FactFilter struct {
	MatchID    string
	PlayerID   string
	ExcludeDNF bool
	Since      time.Time // facts whose match started earlier are excluded
}

// Matches reports whether a fact passes the filter.
func (f FactFilter) Matches(p model.MatchPlayer) bool {
	switch {
	case f.MatchID != "" && p.MatchID != f.MatchID:
		return false
	case f.PlayerID != "" && p.PlayerID != f.PlayerID:
		return false
	case f.ExcludeDNF && p.TeamStatus == model.StatusDNF:
		return false
	case !f.Since.IsZero() && p.MatchStartTime.Before(f.Since):
		return false
	}
	return true
}
