package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/history"
	"github.com/rpdl/rpdl/icon"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Print as JSON")
	historyCmd.Flags().StringP("remove", "r", "", "Forget the download saved at this path")
	lo.Must0(historyCmd.MarkFlagFilename("remove"))
	historyCmd.MarkFlagsMutuallyExclusive("json", "remove")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List finished downloads",
	Run: func(cmd *cobra.Command, args []string) {
		if path := lo.Must(cmd.Flags().GetString("remove")); path != "" {
			abs, err := filepath.Abs(path)
			handleErr(err)
			handleErr(history.Remove(abs))
			cmd.Printf("%s Forgot %s\n", icon.Get(icon.Success), abs)
			return
		}

		records, err := history.List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(records))
			return
		}

		if len(records) == 0 {
			cmd.Printf("%s No downloads yet\n", icon.Get(icon.Info))
			return
		}

		cmd.Println(style.Faint(util.Quantify(len(records), "download", "downloads")))
		for _, record := range records {
			cmd.Printf("%s %s\n  %s\n", icon.Get(icon.Video), record, style.Fg(color.Yellow)(record.Path))
		}
	},
}
