package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/progression"
)

// onboardView is the JSON shape of the onboard result.
type onboardView struct {
	AlreadyOnboarded bool        `json:"already_onboarded"`
	Reward           *recordView `json:"reward,omitempty"`
}

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Run first-time onboarding",
		Long: `Complete onboarding once per database: connecting the wallet is
recorded for the current profile and the onboarding flag is set. Later runs
report that onboarding is already done and change nothing.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				seen, err := a.store.OnboardingSeen(ctx)
				if err != nil {
					return a.fail(CodeDatabase, "failed to read onboarding flag", err)
				}
				if seen {
					return a.out.SuccessFor(a.key, onboardView{AlreadyOnboarded: true},
						mutedStyle.Render("Already onboarded."))
				}

				view, text := a.recordAction(progression.ActionConnectWallet.String())
				if err := a.save(ctx); err != nil {
					return err
				}
				if err := a.store.MarkOnboardingSeen(ctx); err != nil {
					return a.fail(CodeDatabase, "failed to set onboarding flag", err)
				}
				return a.out.SuccessFor(a.key, onboardView{Reward: &view},
					titleStyle.Render("Welcome to BASELINES")+"\n"+text)
			})
		},
	}
}
