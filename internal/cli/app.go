package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/config"
	"github.com/roach88/baselines/internal/metrics"
	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/store"
)

// defaultProfile is the key of a profile with no identity attached.
const defaultProfile = "local"

// app is the per-command environment: config, store, and the engine for the
// active profile.
type app struct {
	opts   *RootOptions
	out    *OutputFormatter
	logger *slog.Logger
	cfg    *config.Config
	store  *store.Store

	key      string
	engine   *progression.Engine
	registry *prometheus.Registry
	metrics  *metrics.Collector
}

func newFormatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger logs warnings and errors to w, everything with --verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// openApp loads config and opens the store. Failures are reported through
// the formatter and returned as command errors.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	out := newFormatter(cmd, opts)
	a := &app{
		opts:   opts,
		out:    out,
		logger: newLogger(out.GetErrWriter(), opts.Verbose),
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, a.fail(CodeConfig, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	a.cfg = cfg

	a.logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, a.fail(CodeDatabase, "failed to open database", err)
	}
	a.store = st
	return a, nil
}

// Close releases the store.
func (a *app) Close() {
	if a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// fail prints the error and returns an ExitCommandError for it.
func (a *app) fail(code, message string, err error) error {
	var details any
	if err != nil {
		details = err.Error()
	}
	if outErr := a.out.Error(code, message, details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, message, err)
}

// resolveProfile returns --profile, else the store's current profile.
// --profile is normalized to the key the profile is saved under.
func (a *app) resolveProfile(ctx context.Context) (string, error) {
	if a.opts.Profile != "" {
		return identityFromKey(a.opts.Profile).Key(), nil
	}
	key, err := a.store.CurrentProfile(ctx, defaultProfile)
	if err != nil {
		return "", a.fail(CodeDatabase, "failed to read current profile", err)
	}
	return key, nil
}

// loadProfile makes key the active profile: a stored record is hydrated,
// an unknown key starts a fresh record carrying the identity the key implies.
func (a *app) loadProfile(ctx context.Context, key string) error {
	eng := a.newEngine()

	snap, err := a.store.LoadProfile(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.logger.Debug("starting new profile", "profile", key)
		eng.SetIdentity(identityFromKey(key))
	case err != nil:
		return a.fail(CodeDatabase, "failed to load profile", err)
	default:
		if err := eng.Hydrate(snap); err != nil {
			return a.fail(CodeDatabase, "stored profile is invalid", err)
		}
	}

	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return a.fail(CodeConfig, "failed to register metrics", err)
	}
	collector.Seed(eng.Snapshot())
	eng.Subscribe(collector)

	a.key = key
	a.engine = eng
	a.registry = reg
	a.metrics = collector
	return nil
}

// loadCurrent resolves and loads the active profile.
func (a *app) loadCurrent(ctx context.Context) error {
	key, err := a.resolveProfile(ctx)
	if err != nil {
		return err
	}
	return a.loadProfile(ctx, key)
}

func (a *app) newEngine() *progression.Engine {
	opts := append(a.cfg.EngineOptions(), progression.WithLogger(a.logger))
	return progression.New(opts...)
}

// save persists the active profile and makes it the session's current one.
func (a *app) save(ctx context.Context) error {
	snap := a.engine.Snapshot()
	if err := a.store.SaveProfile(ctx, snap); err != nil {
		return a.fail(CodeDatabase, "failed to save profile", err)
	}
	a.key = snap.Identity.Key()
	if err := a.store.SetCurrentProfile(ctx, a.key); err != nil {
		return a.fail(CodeDatabase, "failed to update current profile", err)
	}
	return nil
}

// recordSettlement appends res to the ledger. Call after save.
func (a *app) recordSettlement(ctx context.Context, res progression.SettleResult) error {
	if err := a.store.RecordSettlement(ctx, a.key, res, progression.SystemClock{}.Now()); err != nil {
		return a.fail(CodeDatabase, "failed to record settlement", err)
	}
	return nil
}

// writeMetrics dumps the registry when --metrics-file is set.
func (a *app) writeMetrics() error {
	if a.opts.MetricsFile == "" || a.registry == nil {
		return nil
	}
	if err := metrics.WriteTextfile(a.opts.MetricsFile, a.registry); err != nil {
		return a.fail(CodeInput, "failed to write metrics file", err)
	}
	a.logger.Debug("metrics written", "path", a.opts.MetricsFile)
	return nil
}

// identityFromKey inverts progression.Identity.Key.
func identityFromKey(key string) progression.Identity {
	key = strings.TrimSpace(key)
	switch {
	case key == defaultProfile || key == "":
		return progression.Identity{}
	case strings.HasPrefix(key, "0x"):
		return progression.Identity{Address: key}
	case strings.HasPrefix(key, "fid:"):
		if fid, err := strconv.ParseInt(strings.TrimPrefix(key, "fid:"), 10, 64); err == nil && fid > 0 {
			return progression.Identity{FID: fid}
		}
	}
	return progression.Identity{Username: key}
}

// newBadges returns the badges in after that are not in before.
func newBadges(before, after []string) []string {
	var added []string
	for _, b := range after {
		if !slices.Contains(before, b) {
			added = append(added, b)
		}
	}
	return added
}

// profileView is the JSON shape of a profile.
type profileView struct {
	Key                  string           `json:"key"`
	Address              string           `json:"address,omitempty"`
	FID                  int64            `json:"fid,omitempty"`
	Username             string           `json:"username,omitempty"`
	SettledXP            int              `json:"settled_xp"`
	PendingXP            int              `json:"pending_xp"`
	Level                int              `json:"level"`
	LevelProgress        int              `json:"level_progress"`
	Tier                 progression.Tier `json:"tier"`
	Reputation           int              `json:"reputation"`
	Badges               []string         `json:"badges"`
	Verified             bool             `json:"verified"`
	NotificationsEnabled bool             `json:"notifications_enabled"`
}

func newProfileView(key string, s progression.Snapshot, levelSize int) profileView {
	badges := s.Badges
	if badges == nil {
		badges = []string{}
	}
	return profileView{
		Key:                  key,
		Address:              s.Identity.Address,
		FID:                  s.Identity.FID,
		Username:             s.Identity.Username,
		SettledXP:            s.Settled,
		PendingXP:            s.Pending,
		Level:                s.Level,
		LevelProgress:        progression.LevelProgress(s.Settled, levelSize),
		Tier:                 s.Tier,
		Reputation:           s.Reputation,
		Badges:               badges,
		Verified:             s.Verified,
		NotificationsEnabled: s.NotificationsEnabled,
	}
}

// recordView is the JSON shape of one recorded action.
type recordView struct {
	Action    string   `json:"action"`
	NoOp      bool     `json:"noop"`
	Amount    int      `json:"amount,omitempty"`
	Seq       int64    `json:"seq,omitempty"`
	PendingXP int      `json:"pending_xp"`
	Badges    []string `json:"new_badges,omitempty"`
}

// recordAction runs one action through the engine and renders the outcome.
func (a *app) recordAction(name string) (recordView, string) {
	action, _ := progression.ParseAction(name)
	before := a.engine.Badges()

	ev, ok := a.engine.RecordAction(action)
	after := a.engine.Snapshot()
	view := recordView{
		Action:    strings.ToUpper(strings.TrimSpace(name)),
		NoOp:      !ok,
		PendingXP: after.Pending,
	}
	if !ok {
		return view, mutedStyle.Render(fmt.Sprintf("%s earns no XP", view.Action))
	}
	view.Amount = ev.Amount
	view.Seq = ev.Seq
	view.Badges = newBadges(before, after.Badges)

	lines := []string{renderToast(ev)}
	for _, b := range view.Badges {
		lines = append(lines, renderBadge(b))
	}
	return view, strings.Join(lines, "\n")
}

// settleView is the JSON shape of a settlement.
type settleView struct {
	Settled       int              `json:"settled"`
	Total         int              `json:"total"`
	PreviousLevel int              `json:"previous_level"`
	Level         int              `json:"level"`
	PreviousTier  progression.Tier `json:"previous_tier"`
	Tier          progression.Tier `json:"tier"`
	LeveledUp     bool             `json:"leveled_up"`
	TierChanged   bool             `json:"tier_changed"`
}

func newSettleView(res progression.SettleResult) settleView {
	return settleView{
		Settled:       res.Settled,
		Total:         res.Total,
		PreviousLevel: res.PreviousLevel,
		Level:         res.Level,
		PreviousTier:  res.PreviousTier,
		Tier:          res.Tier,
		LeveledUp:     res.LeveledUp(),
		TierChanged:   res.TierChanged(),
	}
}

// settle claims pending XP. A claim that moved XP is followed by the
// CLAIM_XP interaction.
func (a *app) settle() progression.SettleResult {
	res := a.engine.SettlePending()
	if res.Settled > 0 {
		a.engine.RecordAction(progression.ActionClaimXP)
	}
	return res
}
