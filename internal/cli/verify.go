package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/progression"
	"github.com/roach88/baselines/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
	Address  string
	FID      int64
	Username string
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Attach an identity and verify the profile",
		Long: `Attach a wallet address and/or social identity to the current profile
and record CONNECT_WALLET.

The first verification replaces the Unverified badge with Verified and
adds the reputation bonus. If the identity already has a stored profile,
the session switches to it; otherwise the current progress moves to the
new identity.

Examples:
  baselines verify --address 0x38ab...
  baselines verify --fid 12842 --username BaseExplorer_42`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Address, "address", "", "wallet address")
	cmd.Flags().Int64Var(&opts.FID, "fid", 0, "Farcaster ID")
	cmd.Flags().StringVar(&opts.Username, "username", "", "social username")

	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions) error {
	id := progression.Identity{Address: opts.Address, FID: opts.FID, Username: opts.Username}
	if id.IsZero() {
		return inputError(cmd, opts.RootOptions, "one of --address, --fid or --username is required")
	}
	if opts.FID < 0 {
		return inputError(cmd, opts.RootOptions, "--fid must be positive")
	}

	return withProfile(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
		if err := a.switchIdentity(ctx, id); err != nil {
			return err
		}
		view, text := a.recordAction(progression.ActionConnectWallet.String())
		if err := a.save(ctx); err != nil {
			return err
		}
		a.logger.Info("profile verified", "profile", a.key)
		return a.out.SuccessFor(a.key, view, text)
	})
}

// switchIdentity points the session at id. A stored profile for id's key is
// loaded; otherwise the active record takes on id, and its ledger moves to
// the new key before the old row is dropped.
func (a *app) switchIdentity(ctx context.Context, id progression.Identity) error {
	merged := a.engine.Snapshot().Identity
	if id.Address != "" {
		merged.Address = id.Address
	}
	if id.FID != 0 {
		merged.FID = id.FID
	}
	if id.Username != "" {
		merged.Username = id.Username
	}

	oldKey, newKey := a.key, merged.Key()
	if newKey == oldKey {
		a.engine.SetIdentity(merged)
		return nil
	}

	_, err := a.store.LoadProfile(ctx, newKey)
	switch {
	case err == nil:
		if err := a.loadProfile(ctx, newKey); err != nil {
			return err
		}
		a.engine.SetIdentity(merged)
		return nil
	case !errors.Is(err, store.ErrNotFound):
		return a.fail(CodeDatabase, "failed to load profile", err)
	}

	a.engine.SetIdentity(merged)
	if err := a.save(ctx); err != nil {
		return err
	}
	if err := a.store.MoveSettlements(ctx, oldKey, newKey); err != nil {
		return a.fail(CodeDatabase, "failed to move settlements", err)
	}
	if err := a.store.DeleteProfile(ctx, oldKey); err != nil {
		return a.fail(CodeDatabase, "failed to remove previous profile", err)
	}
	a.logger.Debug("profile moved", "from", oldKey, "to", newKey)
	return nil
}
