package version

import (
	"context"
	"fmt"
	"io"

	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/icon"
	"github.com/rpdl/rpdl/key"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/util"
	"github.com/spf13/viper"
)

// Notify prints a notice to out when a newer release than the running one exists.
// Lookup failures are logged and otherwise ignored.
func Notify(ctx context.Context, out io.Writer, client network.Client) {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	erase := util.PrintErasable(out, fmt.Sprintf("%s Checking if a new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx, client)
	erase()
	if err != nil {
		log.Warnf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Fprintf(out, `
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint(fmt.Sprintf("https://github.com/%s/releases/tag/v%s", constant.Repository, latest)),
	)
}
