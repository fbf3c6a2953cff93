package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/testutil"
)

// createTestStore opens a fresh on-disk store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// newTestEngine builds a deterministic engine for identity.
func newTestEngine(id progression.Identity) *progression.Engine {
	e := progression.New(
		progression.WithWallClock(testutil.NewStepClock()),
		progression.WithIDGenerator(testutil.NewSequentialIDs("xp")),
		progression.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	e.SetIdentity(id)
	return e
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"profiles", "badges", "history", "settlements", "meta"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q missing", table)
	}
}

func TestOpen_AppliesPragmasAndVersion(t *testing.T) {
	s := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	assert.Error(t, err)
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Ping(context.Background()))
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestLoadProfile_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadProfile(context.Background(), "0xmissing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProfile_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{Address: "0xAbC", Username: "BaseExplorer_42"})
	e.RecordAction(progression.ActionSwap)
	e.RecordAction(progression.ActionConnectWallet)
	e.SettlePending()
	e.RecordAction(progression.ActionDailyGM)
	e.RecordAction(progression.ActionEnableNotifications)
	want := e.Snapshot()

	require.NoError(t, s.SaveProfile(ctx, want))

	got, err := s.LoadProfile(ctx, "0xabc")
	require.NoError(t, err)

	assert.Equal(t, want.Identity, got.Identity)
	assert.Equal(t, want.Settled, got.Settled)
	assert.Equal(t, want.Pending, got.Pending)
	assert.Equal(t, want.Reputation, got.Reputation)
	assert.Equal(t, want.Badges, got.Badges)
	assert.Equal(t, want.History, got.History)
	assert.True(t, got.Verified)
	assert.True(t, got.NotificationsEnabled)
	assert.Zero(t, got.Level, "level is derived on hydrate")

	// Hydrating the loaded snapshot reproduces the engine's view.
	restored := newTestEngine(progression.Identity{})
	require.NoError(t, restored.Hydrate(got))
	assert.Equal(t, want, restored.Snapshot())
}

func TestSaveProfile_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{FID: 12842})
	e.RecordAction(progression.ActionShare)
	e.RecordAction(progression.ActionFollow)
	snap := e.Snapshot()

	require.NoError(t, s.SaveProfile(ctx, snap))
	require.NoError(t, s.SaveProfile(ctx, snap))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM history WHERE profile_key = ?", "fid:12842").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestSaveProfile_AppendsNewHistoryAndReplacesBadges(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{Address: "0x1"})
	e.RecordAction(progression.ActionEnableNotifications)
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))

	e.RecordAction(progression.ActionBuyAlpha)
	e.RecordAction(progression.ActionConnectWallet)
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))

	got, err := s.LoadProfile(ctx, "0x1")
	require.NoError(t, err)
	require.Len(t, got.History, 3)
	assert.Equal(t, progression.ActionEnableNotifications, got.History[0].Action)
	assert.Equal(t, progression.ActionConnectWallet, got.History[2].Action)
	assert.Equal(t, []string{progression.BadgeNotified, progression.BadgeVerified}, got.Badges)
	assert.Equal(t, e.Pending(), got.Pending)
}

func TestReadHistory_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	history, err := s.ReadHistory(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSettlements_Ledger(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{Address: "0x2"})
	for i := 0; i < 10; i++ {
		e.RecordAction(progression.ActionBuyAlpha)
	}
	first := e.SettlePending()
	empty := e.SettlePending()
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))

	require.NoError(t, s.RecordSettlement(ctx, "0x2", first, testutil.Epoch))
	require.NoError(t, s.RecordSettlement(ctx, "0x2", empty, testutil.Epoch), "empty settlement is skipped")

	ledger, err := s.ListSettlements(ctx, "0x2")
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, 1000, ledger[0].Amount)
	assert.Equal(t, 1000, ledger[0].Total)
	assert.Equal(t, 1, ledger[0].PreviousLevel)
	assert.Equal(t, 3, ledger[0].Level)
	assert.Equal(t, progression.TierBronze, ledger[0].Tier)
	assert.Equal(t, testutil.Epoch, ledger[0].At)

	none, err := s.ListSettlements(ctx, "0xother")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestRecordSettlement_RequiresProfile(t *testing.T) {
	s := createTestStore(t)

	res := progression.SettleResult{Settled: 10, Total: 10, PreviousLevel: 1, Level: 1}
	assert.Error(t, s.RecordSettlement(context.Background(), "0xghost", res, testutil.Epoch))
}

func seedLeaderboard(t *testing.T, s *Store) {
	t.Helper()
	profiles := []struct {
		id         progression.Identity
		settled    int
		reputation int
	}{
		{progression.Identity{Address: "0xa"}, 5000, 10},
		{progression.Identity{Address: "0xb"}, 12000, 0},
		{progression.Identity{Address: "0xc"}, 5000, 300},
		{progression.Identity{Username: "degen"}, 100, 900},
	}
	for _, p := range profiles {
		snap := progression.Snapshot{Identity: p.id, Settled: p.settled, Reputation: p.reputation}
		require.NoError(t, s.SaveProfile(context.Background(), snap))
	}
}

func TestListLeaderboard_ByXP(t *testing.T) {
	s := createTestStore(t)
	seedLeaderboard(t, s)

	entries, err := s.ListLeaderboard(context.Background(), SortByXP, 0, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
		assert.Equal(t, i+1, e.Rank)
	}
	assert.Equal(t, []string{"0xb", "0xc", "0xa", "degen"}, keys)
}

func TestListLeaderboard_ByReputationWithPaging(t *testing.T) {
	s := createTestStore(t)
	seedLeaderboard(t, s)

	entries, err := s.ListLeaderboard(context.Background(), SortByReputation, 2, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "0xc", entries[0].Key)
	assert.Equal(t, 2, entries[0].Rank)
	assert.Equal(t, "0xa", entries[1].Key)
	assert.Equal(t, 3, entries[1].Rank)
}

func TestListLeaderboard_UnknownOrdering(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ListLeaderboard(context.Background(), SortBy("volume"), 10, 0)
	assert.Error(t, err)
}

func TestParseSortBy(t *testing.T) {
	tests := []struct {
		in      string
		want    SortBy
		wantErr bool
	}{
		{"", SortByXP, false},
		{"XP", SortByXP, false},
		{" reputation ", SortByReputation, false},
		{"rep", SortByReputation, false},
		{"volume", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSortBy(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestOnboarding_Flag(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	seen, err := s.OnboardingSeen(ctx)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkOnboardingSeen(ctx))
	require.NoError(t, s.MarkOnboardingSeen(ctx))

	seen, err = s.OnboardingSeen(ctx)
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestCurrentProfile(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	key, err := s.CurrentProfile(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, "local", key)

	require.NoError(t, s.SetCurrentProfile(ctx, "0xabc"))
	key, err = s.CurrentProfile(ctx, "local")
	require.NoError(t, err)
	assert.Equal(t, "0xabc", key)
}

func TestDeleteProfile_Cascades(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{Address: "0x3"})
	e.RecordAction(progression.ActionConnectWallet)
	res := e.SettlePending()
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))
	require.NoError(t, s.RecordSettlement(ctx, "0x3", res, testutil.Epoch))

	require.NoError(t, s.DeleteProfile(ctx, "0x3"))
	require.NoError(t, s.DeleteProfile(ctx, "0x3"), "missing profile is fine")

	_, err := s.LoadProfile(ctx, "0x3")
	assert.ErrorIs(t, err, ErrNotFound)
	for _, table := range []string{"badges", "history", "settlements"} {
		var count int
		require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
		assert.Zero(t, count, table)
	}
}

func TestMoveSettlements(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	e := newTestEngine(progression.Identity{Username: "degen"})
	e.RecordAction(progression.ActionSwap)
	res := e.SettlePending()
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))
	require.NoError(t, s.RecordSettlement(ctx, "degen", res, testutil.Epoch))

	e.SetIdentity(progression.Identity{Address: "0x9"})
	require.NoError(t, s.SaveProfile(ctx, e.Snapshot()))
	require.NoError(t, s.MoveSettlements(ctx, "degen", "0x9"))
	require.NoError(t, s.DeleteProfile(ctx, "degen"))

	ledger, err := s.ListSettlements(ctx, "0x9")
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, 50, ledger[0].Amount)
	assert.Equal(t, "0x9", ledger[0].Key)
}
