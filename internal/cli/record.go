package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "record <ACTION>",
		Short: "Record an action and earn its XP",
		Long: `Record one action for the current profile.

The action's reward is added to pending XP; claim it with "settle".
Unknown actions and actions without a reward change nothing and still
exit 0.

Examples:
  baselines record DAILY_GM
  baselines record swap --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				view, text := a.recordAction(args[0])
				if view.NoOp {
					a.logger.Info("action ignored", "action", view.Action)
				}
				if err := a.save(ctx); err != nil {
					return err
				}
				return a.out.SuccessFor(a.key, view, text)
			})
		},
	}
}

// withProfile opens the app, loads the current profile, runs fn and writes
// metrics. The store is closed on return.
func withProfile(cmd *cobra.Command, opts *RootOptions, fn func(context.Context, *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	if err := a.loadCurrent(ctx); err != nil {
		return err
	}
	if err := fn(ctx, a); err != nil {
		return err
	}
	return a.writeMetrics()
}

// commandContext returns the command's context, or Background outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
