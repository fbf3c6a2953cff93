package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewSettleCommand creates the settle command.
func NewSettleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settle",
		Short: "Claim pending XP",
		Long: `Move all pending XP into settled XP.

Settled XP decides the level and tier; crossing a boundary is announced.
Each claim that moves XP is appended to the settlement ledger. With nothing
pending the command changes nothing.

Examples:
  baselines settle
  baselines settle --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				res := a.settle()
				if err := a.save(ctx); err != nil {
					return err
				}
				if err := a.recordSettlement(ctx, res); err != nil {
					return err
				}
				return a.out.SuccessFor(a.key, newSettleView(res), renderSettle(res))
			})
		},
	}
}
