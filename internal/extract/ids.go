// Package extract is the ingestion boundary: it turns extractor output (match
// detail documents and report listings) into validated raw records and maps
// between tracker URLs and ids.
package extract

import (
	"fmt"
	"strings"
)

// Game selects the tracker site section.
type Game string

const (
	GameBFV    Game = "bfv"
	GameBF2042 Game = "bf2042"
)

const trackerBase = "https://battlefieldtracker.com/"

func baseURL(g Game) (string, error) {
	switch g {
	case GameBFV, GameBF2042:
		return trackerBase + string(g) + "/", nil
	default:
		return "", fmt.Errorf("unknown game %q", g)
	}
}

// MatchIDFromURL derives network_matchcode from a game report URL, e.g.
// ".../gamereport/psn/12345/?context=x" -> "psn_12345".
func MatchIDFromURL(url string) (string, error) {
	_, rest, ok := strings.Cut(url, "/gamereport/")
	if !ok {
		return "", fmt.Errorf("not a game report url: %q", url)
	}
	rest, _, _ = strings.Cut(rest, "?")
	rest = strings.Trim(rest, "/")
	network, code, ok := strings.Cut(rest, "/")
	if !ok || network == "" || code == "" {
		return "", fmt.Errorf("game report url %q lacks network or code", url)
	}
	return network + "_" + strings.ReplaceAll(code, "/", "_"), nil
}

// splitID splits network_rest on the first underscore.
func splitID(id string) (network, rest string, err error) {
	network, rest, ok := strings.Cut(id, "_")
	if !ok || network == "" || rest == "" {
		return "", "", fmt.Errorf("id %q is not network_value", id)
	}
	return network, rest, nil
}

// MatchURL is the game report URL for a match id.
func MatchURL(matchID string, g Game) (string, error) {
	base, err := baseURL(g)
	if err != nil {
		return "", err
	}
	network, code, err := splitID(matchID)
	if err != nil {
		return "", err
	}
	return base + "gamereport/" + network + "/" + code + "/", nil
}

// PlayerURL is the profile URL for a player id, or its report listing when
// reports is set.
func PlayerURL(playerID string, g Game, reports bool) (string, error) {
	base, err := baseURL(g)
	if err != nil {
		return "", err
	}
	network, tag, err := splitID(playerID)
	if err != nil {
		return "", err
	}
	u := base + "profile/" + network + "/" + tag + "/"
	if reports {
		u += "gamereports/"
	}
	return u, nil
}
