package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// ErrInvalidDocument marks extractor output that does not match the raw
// schema: unknown fields, missing required fields or bad enum values.
var ErrInvalidDocument = errors.New("invalid extractor document")

var (
	strict   = sonic.Config{DisallowUnknownFields: true}.Froze()
	validate = validator.New()
)

// DecodeMatch strictly decodes and validates a match detail document.
func DecodeMatch(data []byte) (*model.RawMatch, error) {
	var m model.RawMatch
	if err := strict.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: decode match: %v", ErrInvalidDocument, err)
	}
	if err := ValidateMatch(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ValidateMatch checks required fields and player blocks.
func ValidateMatch(m *model.RawMatch) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%w: match %s: %v", ErrInvalidDocument, m.ID, err)
	}
	return nil
}

// Report is one entry of a player's report listing.
type Report struct {
	URL  string `json:"url" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// Listing is a player's report list as captured by the extractor.
type Listing struct {
	PlayerID string   `json:"player_id" validate:"required"`
	Reports  []Report `json:"reports" validate:"dive"`
}

// Discovered is a match id and mode found on a listing.
type Discovered struct {
	ID   string
	Mode string
}

// DecodeListing strictly decodes and validates a report listing.
func DecodeListing(data []byte) (*Listing, error) {
	var l Listing
	if err := strict.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: decode listing: %v", ErrInvalidDocument, err)
	}
	if err := validate.Struct(&l); err != nil {
		return nil, fmt.Errorf("%w: listing: %v", ErrInvalidDocument, err)
	}
	return &l, nil
}

// Matches resolves every report to a match id and mode. The mode is the text
// before " - " in the report name ("Breakthrough - Twisted Steel").
func (l *Listing) Matches() ([]Discovered, error) {
	out := make([]Discovered, 0, len(l.Reports))
	seen := make(map[string]bool, len(l.Reports))
	for _, r := range l.Reports {
		id, err := MatchIDFromURL(r.URL)
		if err != nil {
			return nil, fmt.Errorf("%w: listing for %s: %v", ErrInvalidDocument, l.PlayerID, err)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		mode, _, _ := strings.Cut(r.Name, " - ")
		out = append(out, Discovered{ID: id, Mode: strings.TrimSpace(mode)})
	}
	return out, nil
}
