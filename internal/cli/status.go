package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/progression"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Show the profile card",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				snap := a.engine.Snapshot()
				levelSize := a.engine.LevelSize()
				return a.out.SuccessFor(a.key,
					newProfileView(a.key, snap, levelSize),
					renderProfileCard(a.key, snap, levelSize),
				)
			})
		},
	}
}

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// historyView is the JSON shape of a history entry.
type historyView struct {
	Seq       int64                  `json:"seq"`
	ID        string                 `json:"id"`
	Action    progression.ActionKind `json:"action"`
	Amount    int                    `json:"amount"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List rewarded actions in order",
		Long: `List the current profile's rewarded actions, oldest first.

With --limit N only the most recent N entries are shown.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Limit < 0 {
				return inputError(cmd, rootOpts, "--limit must not be negative")
			}
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				history, err := a.store.ReadHistory(ctx, a.key)
				if err != nil {
					return a.fail(CodeDatabase, "failed to read history", err)
				}
				if opts.Limit > 0 && len(history) > opts.Limit {
					history = history[len(history)-opts.Limit:]
				}
				views := make([]historyView, len(history))
				for i, h := range history {
					views[i] = historyView{Seq: h.Seq, ID: h.ID, Action: h.Action, Amount: h.Amount, Timestamp: h.Timestamp}
				}
				return a.out.SuccessFor(a.key, views, renderHistory(history))
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show only the last N entries (0 = all)")

	return cmd
}

// inputError reports a bad flag value before anything is opened.
func inputError(cmd *cobra.Command, opts *RootOptions, msg string) error {
	if err := newFormatter(cmd, opts).Error(CodeInput, msg, nil); err != nil {
		return err
	}
	return NewExitError(ExitCommandError, msg)
}
