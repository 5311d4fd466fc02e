// Package lookup holds the static reference tables used while cleaning and
// aggregating: Breakthrough side per (map, team) and known squad membership.
package lookup

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pable/go-bfv-analytics/internal/model"
)

// UnknownSquad is the squad label for players on no configured squad.
const UnknownSquad = "unknown"

type orientationEntry struct {
	Map         string `yaml:"map"`
	Team        string `yaml:"team"`
	Orientation string `yaml:"orientation"`
}

type file struct {
	Squads       map[string][]string `yaml:"squads"`
	Orientations []orientationEntry  `yaml:"orientations"`
}

type mapTeam struct{ mapName, team string }

// Tables is the in-memory form of a lookup file. The zero value is usable and
// resolves nothing.
type Tables struct {
	orientations map[mapTeam]model.Orientation
	squads       map[string]string // lower-cased player id -> squad
}

// New builds tables directly, mainly for tests.
func New(orientations map[[2]string]model.Orientation, squads map[string][]string) *Tables {
	t := &Tables{
		orientations: make(map[mapTeam]model.Orientation, len(orientations)),
		squads:       make(map[string]string),
	}
	for k, v := range orientations {
		t.orientations[mapTeam{k[0], k[1]}] = v
	}
	for squad, ids := range squads {
		for _, id := range ids {
			t.squads[strings.ToLower(id)] = squad
		}
	}
	return t
}

// Load reads a YAML lookup file. An empty path yields empty tables.
func Load(path string) (*Tables, error) {
	if path == "" {
		return New(nil, nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lookup file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML lookup document.
func Parse(data []byte) (*Tables, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode lookup file: %w", err)
	}

	orientations := make(map[[2]string]model.Orientation, len(f.Orientations))
	for _, e := range f.Orientations {
		o := model.Orientation(strings.ToLower(e.Orientation))
		if o != model.OrientationAttacker && o != model.OrientationDefender {
			return nil, fmt.Errorf("lookup: orientation %q for %s/%s must be attacker or defender", e.Orientation, e.Map, e.Team)
		}
		key := [2]string{e.Map, e.Team}
		if prev, dup := orientations[key]; dup && prev != o {
			return nil, fmt.Errorf("lookup: conflicting orientation for %s/%s", e.Map, e.Team)
		}
		orientations[key] = o
	}
	return New(orientations, f.Squads), nil
}

// Orientation returns the side a team plays on a Breakthrough map.
func (t *Tables) Orientation(mapName, team string) (model.Orientation, bool) {
	if t == nil || t.orientations == nil {
		return model.OrientationNone, false
	}
	o, ok := t.orientations[mapTeam{mapName, team}]
	return o, ok
}

// Squad returns the configured squad for a player id, or UnknownSquad.
// Player ids are matched case-insensitively.
func (t *Tables) Squad(playerID string) string {
	if t == nil || t.squads == nil {
		return UnknownSquad
	}
	if s, ok := t.squads[strings.ToLower(playerID)]; ok {
		return s
	}
	return UnknownSquad
}
