package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/baselines/internal/progression"
)

// Settlement is one row of the claim ledger.
type Settlement struct {
	ID            int64
	Key           string
	Amount        int
	Total         int
	PreviousLevel int
	Level         int
	PreviousTier  progression.Tier
	Tier          progression.Tier
	At            time.Time
}

// RecordSettlement appends res to the ledger for key. A settlement that moved
// nothing is not recorded. The profile must already be saved.
func (s *Store) RecordSettlement(ctx context.Context, key string, res progression.SettleResult, at time.Time) error {
	if res.Settled <= 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settlements
		(profile_key, amount, total, prev_level, level, prev_tier, tier, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		key,
		res.Settled,
		res.Total,
		res.PreviousLevel,
		res.Level,
		res.PreviousTier.String(),
		res.Tier.String(),
		at.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("record settlement: %w", err)
	}
	return nil
}

// ListSettlements returns the ledger for key, oldest first.
// Returns an empty slice (not nil) if there is none.
func (s *Store) ListSettlements(ctx context.Context, key string) ([]Settlement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_key, amount, total, prev_level, level, prev_tier, tier, settled_at
		FROM settlements
		WHERE profile_key = ?
		ORDER BY id ASC
	`, key)
	if err != nil {
		return nil, fmt.Errorf("query settlements: %w", err)
	}
	defer rows.Close()

	ledger := []Settlement{}
	for rows.Next() {
		var (
			st             Settlement
			prevTier, tier string
			settledAt      string
		)
		if err := rows.Scan(&st.ID, &st.Key, &st.Amount, &st.Total, &st.PreviousLevel, &st.Level, &prevTier, &tier, &settledAt); err != nil {
			return nil, fmt.Errorf("scan settlement: %w", err)
		}
		st.PreviousTier, _ = progression.ParseTier(prevTier)
		st.Tier, _ = progression.ParseTier(tier)
		if st.At, err = time.Parse(timeLayout, settledAt); err != nil {
			return nil, fmt.Errorf("settlement %d: parse timestamp: %w", st.ID, err)
		}
		ledger = append(ledger, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settlements: %w", err)
	}
	return ledger, nil
}

// SortBy selects the leaderboard ordering.
type SortBy string

const (
	SortByXP         SortBy = "xp"
	SortByReputation SortBy = "reputation"
)

// DefaultLeaderboardLimit applies when a non-positive limit is requested.
const DefaultLeaderboardLimit = 50

// ParseSortBy accepts "xp" or "reputation", case-insensitively.
func ParseSortBy(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortByXP, "":
		return SortByXP, nil
	case SortByReputation, "rep":
		return SortByReputation, nil
	}
	return "", fmt.Errorf("unknown leaderboard ordering %q (want xp or reputation)", s)
}

// LeaderboardEntry is one ranked profile.
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	Key        string `json:"key"`
	Address    string `json:"address,omitempty"`
	FID        int64  `json:"fid,omitempty"`
	Username   string `json:"username,omitempty"`
	Settled    int    `json:"settled_xp"`
	Reputation int    `json:"reputation"`
	Verified   bool   `json:"verified"`
}

// ListLeaderboard ranks stored profiles. Ties fall back to the other score,
// then to the profile key, so ranking is deterministic. Ranks start at
// offset+1.
func (s *Store) ListLeaderboard(ctx context.Context, by SortBy, limit, offset int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	var order string
	switch by {
	case SortByXP, "":
		order = "settled_xp DESC, reputation DESC, key COLLATE BINARY ASC"
	case SortByReputation:
		order = "reputation DESC, settled_xp DESC, key COLLATE BINARY ASC"
	default:
		return nil, fmt.Errorf("list leaderboard: unknown ordering %q", by)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, address, fid, username, settled_xp, reputation, verified
		FROM profiles
		ORDER BY `+order+`
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Key, &e.Address, &e.FID, &e.Username, &e.Settled, &e.Reputation, &e.Verified); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Rank = offset + len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leaderboard: %w", err)
	}
	return entries, nil
}

const onboardingKey = "onboarding_v1"

// OnboardingSeen reports whether the onboarding walkthrough was dismissed.
func (s *Store) OnboardingSeen(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, onboardingKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read onboarding flag: %w", err)
	}
	return value == "true", nil
}

// MarkOnboardingSeen records that the walkthrough was dismissed. Idempotent.
func (s *Store) MarkOnboardingSeen(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, 'true')
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, onboardingKey)
	if err != nil {
		return fmt.Errorf("mark onboarding seen: %w", err)
	}
	return nil
}

const currentProfileKey = "current_profile"

// CurrentProfile returns the profile key the CLI session last used, or
// fallback if none was recorded.
func (s *Store) CurrentProfile(ctx context.Context, fallback string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, currentProfileKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && value == "") {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read current profile: %w", err)
	}
	return value, nil
}

// SetCurrentProfile records key as the session's profile.
func (s *Store) SetCurrentProfile(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, currentProfileKey, key)
	if err != nil {
		return fmt.Errorf("set current profile: %w", err)
	}
	return nil
}

// DeleteProfile removes a profile with its badges, history and settlements.
// Deleting a missing profile is not an error.
func (s *Store) DeleteProfile(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete profile %s: %w", key, err)
	}
	return nil
}

// MoveSettlements reassigns the ledger of from to to. Both profiles must exist.
func (s *Store) MoveSettlements(ctx context.Context, from, to string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE settlements SET profile_key = ? WHERE profile_key = ?`, to, from); err != nil {
		return fmt.Errorf("move settlements %s -> %s: %w", from, to, err)
	}
	return nil
}
