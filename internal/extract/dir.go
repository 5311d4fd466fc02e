package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// Extractor supplies the captured detail document for a match. A capture that
// does not exist yet is store.ErrNotFound.
type Extractor interface {
	Extract(ctx context.Context, matchID string) (*model.RawMatch, error)
}

// Dir reads captures written by the browser automation as <dir>/<match_id>.json.
type Dir struct {
	Path string
}

// Extract reads, decodes and validates one capture.
func (d Dir) Extract(ctx context.Context, matchID string) (*model.RawMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if filepath.Base(matchID) != matchID {
		return nil, fmt.Errorf("%w: match id %q is not a file name", ErrInvalidDocument, matchID)
	}

	data, err := os.ReadFile(filepath.Join(d.Path, matchID+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("capture for %s: %w", matchID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read capture %s: %w", matchID, err)
	}

	m, err := DecodeMatch(data)
	if err != nil {
		return nil, err
	}
	if m.ID != matchID {
		return nil, fmt.Errorf("%w: capture %s.json holds match %s", ErrInvalidDocument, matchID, m.ID)
	}
	return m, nil
}

// ReadListing decodes a listing file.
func ReadListing(path string) (*Listing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	return DecodeListing(data)
}
