package cmd

import (
	"os"

	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type location struct {
	title  string
	flag   string
	short  mo.Option[string]
	path   func() string
	hidden bool
}

var locations = []location{
	{"Config", "config", mo.Some("c"), where.Config, false},
	{"Logs", "logs", mo.Some("l"), where.Logs, false},
	{"History", "history", mo.Some("s"), where.History, false},
	{"Cache", "cache", mo.None[string](), where.Cache, true},
	{"Temp", "temp", mo.None[string](), where.Temp, true},
}

func init() {
	rootCmd.AddCommand(whereCmd)

	for _, l := range locations {
		whereCmd.Flags().BoolP(l.flag, l.short.OrEmpty(), false, "Print only the "+l.title+" path")
		if l.hidden {
			lo.Must0(whereCmd.Flags().MarkHidden(l.flag))
		}
	}

	whereCmd.MarkFlagsMutuallyExclusive(lo.Map(locations, func(l location, _ int) string { return l.flag })...)
	whereCmd.SetOut(os.Stdout)
}

var whereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where rpdl keeps its files",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if l, ok := lo.Find(locations, func(l location) bool {
			return lo.Must(cmd.Flags().GetBool(l.flag))
		}); ok {
			cmd.Println(l.path())
			return
		}

		title := style.New().Bold(true).Foreground(color.HiPurple).Render
		for i, l := range lo.Reject(locations, func(l location, _ int) bool { return l.hidden }) {
			if i > 0 {
				cmd.Println()
			}
			cmd.Println(title(l.title), style.Fg(color.Yellow)("--"+l.flag))
			cmd.Println(l.path())
		}
	},
}
