package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/store"
)

// LeaderboardOptions holds flags for the leaderboard command.
type LeaderboardOptions struct {
	*RootOptions
	By     string
	Limit  int
	Offset int
}

// NewLeaderboardCommand creates the leaderboard command.
func NewLeaderboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LeaderboardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank stored profiles",
		Long: `Rank every stored profile by settled XP or by reputation.

Ties fall back to the other measure, then to the profile key.

Examples:
  baselines leaderboard
  baselines leaderboard --by reputation --limit 10
  baselines leaderboard --limit 10 --offset 10`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "xp", "ranking (xp|reputation)")
	cmd.Flags().IntVar(&opts.Limit, "limit", store.DefaultLeaderboardLimit, "maximum rows")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "rows to skip")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, opts *LeaderboardOptions) error {
	by, err := store.ParseSortBy(opts.By)
	if err != nil {
		return inputError(cmd, opts.RootOptions, err.Error())
	}
	if opts.Limit <= 0 || opts.Offset < 0 {
		return inputError(cmd, opts.RootOptions, "--limit must be positive and --offset not negative")
	}

	a, err := openApp(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.store.ListLeaderboard(commandContext(cmd), by, opts.Limit, opts.Offset)
	if err != nil {
		return a.fail(CodeDatabase, "failed to read leaderboard", err)
	}
	thresholds, err := a.cfg.TierThresholds()
	if err != nil {
		return a.fail(CodeConfig, "invalid tier thresholds", err)
	}

	rows := make([]leaderboardRow, len(entries))
	for i, e := range entries {
		rows[i] = leaderboardRow{
			LeaderboardEntry: e,
			Level:            progression.ComputeLevel(e.Settled, a.cfg.LevelSize),
			Tier:             progression.ComputeTier(e.Settled, thresholds),
		}
	}
	return a.out.SuccessFor("", rows, renderLeaderboard(by, rows))
}
