package cmd

import (
	"os"
	"runtime"
	"strings"

	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
	versionCmd.SetOut(os.Stdout)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("short")) {
			cmd.Println(constant.Version)
			return
		}

		rows := []lo.Tuple2[string, string]{
			lo.T2("Version", constant.Version),
			lo.T2("Revision", constant.Revision),
			lo.T2("Built at", strings.TrimSpace(constant.BuiltAt)),
			lo.T2("Built by", constant.BuiltBy),
			lo.T2("Go", runtime.Version()),
			lo.T2("Platform", runtime.GOOS+"/"+runtime.GOARCH),
		}

		cmd.Printf("%s %s\n\n", style.Fg(color.HiRed)("▶"), style.Bold(constant.App))
		for _, row := range rows {
			cmd.Printf("  %s %s\n", style.Faint(row.A+strings.Repeat(" ", 10-len(row.A))), style.Bold(row.B))
		}

		version.Notify(contextOf(cmd), cmd.OutOrStdout(), network.New(network.OptionsFromConfig()))
	},
}
