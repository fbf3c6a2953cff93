// Command baselines tracks XP, levels and tiers for a BASELINES trader.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/baselines/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// ExitErrors have already been reported in the selected format.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
