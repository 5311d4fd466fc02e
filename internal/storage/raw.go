package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"

	"github.com/pable/go-bfv-analytics/internal/model"
	"github.com/pable/go-bfv-analytics/internal/store"
)

// KnownMatches lists every discovered match ordered by id.
func (db *DB) KnownMatches(ctx context.Context, modeFilter string) ([]model.MatchRef, error) {
	query := `SELECT match_id, mode, discovered_at, captured_at FROM known_matches`
	var args []any
	if modeFilter != "" {
		query += ` WHERE mode = ?`
		args = append(args, modeFilter)
	}
	rows, err := db.conn.QueryContext(ctx, query+` ORDER BY match_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query known matches: %w", err)
	}
	defer rows.Close()

	var out []model.MatchRef
	for rows.Next() {
		var r model.MatchRef
		var mode, discovered, captured sql.NullString
		if err := rows.Scan(&r.ID, &mode, &discovered, &captured); err != nil {
			return nil, fmt.Errorf("scan known match: %w", err)
		}
		r.Mode = mode.String
		if r.DiscoveredAt, err = parseTime(discovered); err != nil {
			return nil, err
		}
		if r.CapturedAt, err = parseTime(captured); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertDiscovered records discovered ids. A nil modes slice keeps stored
// modes; rediscovery never clears the capture mark.
func (db *DB) UpsertDiscovered(ctx context.Context, ids []string, modes []string) error {
	if modes != nil && len(modes) != len(ids) {
		return fmt.Errorf("upsert discovered: %d ids but %d modes", len(ids), len(modes))
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO known_matches(match_id, mode, discovered_at) VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			mode = COALESCE(excluded.mode, known_matches.mode)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(db.now())
	for i, id := range ids {
		var mode any
		if modes != nil && modes[i] != "" {
			mode = modes[i]
		}
		if _, err := stmt.ExecContext(ctx, id, mode, now); err != nil {
			return fmt.Errorf("upsert known match %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// MarkCaptured stamps captured_at, creating the known row if needed.
func (db *DB) MarkCaptured(ctx context.Context, id string) error {
	now := formatTime(db.now())
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO known_matches(match_id, discovered_at, captured_at) VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET captured_at = excluded.captured_at`,
		id, now, now)
	if err != nil {
		return fmt.Errorf("mark captured %s: %w", id, err)
	}
	return nil
}

// UpsertMatch stores the full match document as JSON.
func (db *DB) UpsertMatch(ctx context.Context, m *model.RawMatch) error {
	doc, err := sonic.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode match %s: %w", m.ID, err)
	}
	_, err = db.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO raw_matches(match_id, doc, last_updated) VALUES (?, ?, ?)`,
		m.ID, string(doc), formatTime(db.now()))
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", m.ID, err)
	}
	return nil
}

// GetMatch returns store.ErrNotFound when no document exists.
func (db *DB) GetMatch(ctx context.Context, id string) (*model.RawMatch, error) {
	var doc string
	var updated sql.NullString
	err := db.conn.QueryRowContext(ctx,
		`SELECT doc, last_updated FROM raw_matches WHERE match_id = ?`, id).Scan(&doc, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}

	var m model.RawMatch
	if err := sonic.UnmarshalString(doc, &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", id, err)
	}
	if m.LastUpdated, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParsedMatches lists stored match documents ordered by id.
func (db *DB) ParsedMatches(ctx context.Context) ([]model.StoredID, error) {
	return db.storedIDs(ctx, `SELECT match_id, last_updated FROM raw_matches ORDER BY match_id`)
}

// UpsertPlayers records player ids; existing players keep their first-seen time.
func (db *DB) UpsertPlayers(ctx context.Context, playerIDs []string) error {
	if len(playerIDs) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO players(player_id, first_seen) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := formatTime(db.now())
	for _, id := range playerIDs {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("insert player %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// PlayerCount returns the number of distinct players seen.
func (db *DB) PlayerCount(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}

func (db *DB) storedIDs(ctx context.Context, query string) ([]model.StoredID, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ids: %w", err)
	}
	defer rows.Close()

	var out []model.StoredID
	for rows.Next() {
		var s model.StoredID
		var at sql.NullString
		if err := rows.Scan(&s.ID, &at); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		if s.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
