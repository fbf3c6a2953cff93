package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/config"
	"github.com/roach88/baselines/internal/progression"
)

// questView is the JSON shape of a quest.
type questView struct {
	Action progression.ActionKind `json:"action"`
	Title  string                 `json:"title"`
	Reward int                    `json:"reward"`
}

// NewQuestsCommand creates the quests command.
func NewQuestsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quests",
		Short: "Show the quest board",
		Long: `Show every action that earns XP under the active reward table,
highest reward first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(cmd, rootOpts)
			cfg, err := config.Load(rootOpts.ConfigPath)
			if err != nil {
				if outErr := out.Error(CodeConfig, "failed to load config", err.Error()); outErr != nil {
					return outErr
				}
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			quests := cfg.RewardTable().Quests()
			views := make([]questView, len(quests))
			for i, q := range quests {
				views[i] = questView{Action: q.Action, Title: q.Title, Reward: q.Reward}
			}
			return out.SuccessFor("", views, renderQuests(quests))
		},
	}
}
