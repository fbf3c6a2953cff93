package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/baselines/internal/progression"
)

// sessionSummary is the JSON shape of a finished session.
type sessionSummary struct {
	Lines       int          `json:"lines"`
	Recorded    int          `json:"recorded"`
	NoOps       int          `json:"noops"`
	Settlements []settleView `json:"settlements"`
	Profile     profileView  `json:"final"`
	Interrupted bool         `json:"interrupted"`
}

// NewSessionCommand creates the session command.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Record actions read from stdin",
		Long: `Read one action name per line from stdin and record each one for the
current profile.

A line "settle" claims pending XP and "status" prints the profile card.
Blank lines and lines starting with # are skipped. The session ends at EOF
or on SIGINT/SIGTERM; the profile is saved once at the end.

Example:
  printf 'DAILY_GM\nSWAP\nsettle\n' | baselines session`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withProfile(cmd, rootOpts, func(ctx context.Context, a *app) error {
				return runSession(ctx, cmd, a)
			})
		},
	}
}

func runSession(parent context.Context, cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			a.logger.Info("received signal, ending session", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return a.session(parent, ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}

// session records the lines of r until EOF or until ctx is done. The profile
// is saved with parent, so it survives the cancellation of ctx.
func (a *app) session(parent, ctx context.Context, r io.Reader, w io.Writer) error {
	lines, readErr := readLines(ctx, r)
	text := a.out.Format != "json"

	summary := sessionSummary{Settlements: []settleView{}}
	var settled []progression.SettleResult

loop:
	for {
		select {
		case <-ctx.Done():
			summary.Interrupted = true
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			summary.Lines++

			switch strings.ToLower(line) {
			case "settle":
				res := a.settle()
				if res.Settled > 0 {
					settled = append(settled, res)
				}
				summary.Settlements = append(summary.Settlements, newSettleView(res))
				if text {
					fmt.Fprintln(w, renderSettle(res))
				}
			case "status":
				if text {
					snap := a.engine.Snapshot()
					fmt.Fprintln(w, renderProfileCard(a.key, snap, a.engine.LevelSize()))
				}
			default:
				view, out := a.recordAction(line)
				if view.NoOp {
					summary.NoOps++
				} else {
					summary.Recorded++
				}
				if text {
					fmt.Fprintln(w, out)
				}
			}
		}
	}

	// After an interrupt the reader may still be blocked on stdin.
	if !summary.Interrupted {
		if err := <-readErr; err != nil {
			a.logger.Warn("error reading input", "error", err)
		}
	}

	if err := a.save(parent); err != nil {
		return err
	}
	for _, res := range settled {
		if err := a.recordSettlement(parent, res); err != nil {
			return err
		}
	}

	snap := a.engine.Snapshot()
	summary.Profile = newProfileView(a.key, snap, a.engine.LevelSize())
	return a.out.SuccessFor(a.key, summary, fmt.Sprintf(
		"Session ended: %d recorded, %d ignored, %d settlements. %d XP pending, %d settled.",
		summary.Recorded, summary.NoOps, len(settled), snap.Pending, snap.Settled,
	))
}

// readLines scans r on its own goroutine. The lines channel closes at EOF or
// when ctx is cancelled; the scan error, if any, is then sent on errc.
func readLines(ctx context.Context, r io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}
