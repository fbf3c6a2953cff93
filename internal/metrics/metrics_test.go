package metrics

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/testutil"
)

func newObservedEngine(t *testing.T) (*progression.Engine, *Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	e := progression.New(
		progression.WithWallClock(testutil.NewStepClock()),
		progression.WithIDGenerator(testutil.NewSequentialIDs("xp")),
		progression.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		progression.WithObserver(c),
	)
	return e, c, reg
}

func TestCollector_CountsRewards(t *testing.T) {
	e, c, _ := newObservedEngine(t)

	e.RecordAction(progression.ActionSwap)
	e.RecordAction(progression.ActionSwap)
	e.RecordAction(progression.ActionDailyGM)
	e.RecordAction(progression.ActionClaimXP) // earns nothing

	assert.Equal(t, 2.0, promtest.ToFloat64(c.actions.WithLabelValues("SWAP")))
	assert.Equal(t, 100.0, promtest.ToFloat64(c.xpAwarded.WithLabelValues("SWAP")))
	assert.Equal(t, 10.0, promtest.ToFloat64(c.xpAwarded.WithLabelValues("DAILY_GM")))
	assert.Equal(t, 2, promtest.CollectAndCount(c.actions), "one series per rewarded action")
	assert.Equal(t, 110.0, promtest.ToFloat64(c.pendingXP))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.level))
}

func TestCollector_Settlement(t *testing.T) {
	e, c, _ := newObservedEngine(t)

	for i := 0; i < 6; i++ {
		e.RecordAction(progression.ActionBuyAlpha)
	}
	e.SettlePending()
	e.SettlePending() // nothing pending, no notification

	assert.Equal(t, 600.0, promtest.ToFloat64(c.xpSettled))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.settles))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.levelUps))
	assert.Equal(t, 0.0, promtest.ToFloat64(c.tierMoves))
	assert.Equal(t, 0.0, promtest.ToFloat64(c.pendingXP))
	assert.Equal(t, 600.0, promtest.ToFloat64(c.settledXP))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.level))
}

func TestCollector_TierAndBadges(t *testing.T) {
	e, c, _ := newObservedEngine(t)

	e.RecordAction(progression.ActionConnectWallet)
	e.RecordAction(progression.ActionEnableNotifications)
	for i := 0; i < 50; i++ {
		e.RecordAction(progression.ActionBuyAlpha)
	}
	e.SettlePending()

	assert.Equal(t, 1.0, promtest.ToFloat64(c.badges.WithLabelValues(progression.BadgeVerified)))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.badges.WithLabelValues(progression.BadgeNotified)))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.tierMoves))
	assert.Equal(t, float64(progression.TierSilver), promtest.ToFloat64(c.tier))
}

func TestCollector_Seed(t *testing.T) {
	_, c, _ := newObservedEngine(t)

	c.Seed(progression.Snapshot{Settled: 30000, Pending: 40, Level: 61, Tier: progression.TierGold})

	assert.Equal(t, 30000.0, promtest.ToFloat64(c.settledXP))
	assert.Equal(t, 40.0, promtest.ToFloat64(c.pendingXP))
	assert.Equal(t, 61.0, promtest.ToFloat64(c.level))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.tier))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestWriteTextfile(t *testing.T) {
	e, _, reg := newObservedEngine(t)
	e.RecordAction(progression.ActionShare)

	path := filepath.Join(t.TempDir(), "baselines.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `baselines_actions_total{action="SHARE"} 1`)
	assert.Contains(t, text, "baselines_pending_xp 25")
	assert.True(t, strings.HasSuffix(text, "\n"))
}

func TestCollector_ExpositionMatches(t *testing.T) {
	e, _, reg := newObservedEngine(t)
	e.RecordAction(progression.ActionFollow)

	expected := `
# HELP baselines_xp_awarded_total XP credited to the pending pool, by action.
# TYPE baselines_xp_awarded_total counter
baselines_xp_awarded_total{action="FOLLOW"} 15
`
	err := promtest.GatherAndCompare(reg, strings.NewReader(expected), "baselines_xp_awarded_total")
	assert.NoError(t, err)
}
