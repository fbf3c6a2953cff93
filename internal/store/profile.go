package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/baselines/internal/progression"
)

// timeLayout is the on-disk timestamp format. Always UTC.
const timeLayout = time.RFC3339Nano

// SaveProfile writes a snapshot under its identity key in one transaction.
// The profile row is upserted, the badge set replaced, and history rows
// appended with ON CONFLICT DO NOTHING, so saving the same snapshot twice
// leaves the database unchanged.
func (s *Store) SaveProfile(ctx context.Context, snap progression.Snapshot) error {
	key := snap.Identity.Key()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save profile: begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles
		(key, address, fid, username, settled_xp, pending_xp, reputation, verified, notifications_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			address = excluded.address,
			fid = excluded.fid,
			username = excluded.username,
			settled_xp = excluded.settled_xp,
			pending_xp = excluded.pending_xp,
			reputation = excluded.reputation,
			verified = excluded.verified,
			notifications_enabled = excluded.notifications_enabled
	`,
		key,
		snap.Identity.Address,
		snap.Identity.FID,
		snap.Identity.Username,
		snap.Settled,
		snap.Pending,
		snap.Reputation,
		snap.Verified,
		snap.NotificationsEnabled,
	)
	if err != nil {
		return fmt.Errorf("save profile: upsert %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM badges WHERE profile_key = ?`, key); err != nil {
		return fmt.Errorf("save profile: clear badges: %w", err)
	}
	for _, badge := range snap.Badges {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO badges (profile_key, badge) VALUES (?, ?)
			ON CONFLICT DO NOTHING
		`, key, badge)
		if err != nil {
			return fmt.Errorf("save profile: badge %q: %w", badge, err)
		}
	}

	for _, h := range snap.History {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO history (profile_key, id, seq, action, amount, ts)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_key, id) DO NOTHING
		`, key, h.ID, h.Seq, h.Action.String(), h.Amount, h.Timestamp.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("save profile: history %s: %w", h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save profile: commit: %w", err)
	}
	return nil
}

// LoadProfile reads the snapshot stored under key. Returns ErrNotFound if no
// profile exists.
//
// Level and Tier are left zero; hydrating the snapshot into an engine derives
// them from that engine's configuration.
func (s *Store) LoadProfile(ctx context.Context, key string) (progression.Snapshot, error) {
	var snap progression.Snapshot
	err := s.db.QueryRowContext(ctx, `
		SELECT address, fid, username, settled_xp, pending_xp, reputation, verified, notifications_enabled
		FROM profiles
		WHERE key = ?
	`, key).Scan(
		&snap.Identity.Address,
		&snap.Identity.FID,
		&snap.Identity.Username,
		&snap.Settled,
		&snap.Pending,
		&snap.Reputation,
		&snap.Verified,
		&snap.NotificationsEnabled,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return progression.Snapshot{}, fmt.Errorf("load profile %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return progression.Snapshot{}, fmt.Errorf("load profile %s: %w", key, err)
	}

	if snap.Badges, err = s.readBadges(ctx, key); err != nil {
		return progression.Snapshot{}, err
	}
	if snap.History, err = s.ReadHistory(ctx, key); err != nil {
		return progression.Snapshot{}, err
	}
	return snap, nil
}

// ReadHistory returns the stored history for key, oldest first.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
// Returns an empty slice (not nil) if there is none.
func (s *Store) ReadHistory(ctx context.Context, key string) ([]progression.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, action, amount, ts
		FROM history
		WHERE profile_key = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []progression.HistoryEntry{}
	for rows.Next() {
		var (
			h      progression.HistoryEntry
			action string
			ts     string
		)
		if err := rows.Scan(&h.ID, &h.Seq, &action, &h.Amount, &ts); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := h.Action.UnmarshalText([]byte(action)); err != nil {
			return nil, fmt.Errorf("history %s: %w", h.ID, err)
		}
		if h.Timestamp, err = time.Parse(timeLayout, ts); err != nil {
			return nil, fmt.Errorf("history %s: parse timestamp: %w", h.ID, err)
		}
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

func (s *Store) readBadges(ctx context.Context, key string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT badge FROM badges
		WHERE profile_key = ?
		ORDER BY badge COLLATE BINARY ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query badges: %w", err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, fmt.Errorf("scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate badges: %w", err)
	}
	return badges, nil
}
