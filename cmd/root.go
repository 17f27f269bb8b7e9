// Package cmd implements the rpdl command line.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/rpdl/rpdl/color"
	"github.com/rpdl/rpdl/constant"
	"github.com/rpdl/rpdl/grab"
	"github.com/rpdl/rpdl/icon"
	"github.com/rpdl/rpdl/key"
	"github.com/rpdl/rpdl/log"
	"github.com/rpdl/rpdl/network"
	"github.com/rpdl/rpdl/prompt"
	"github.com/rpdl/rpdl/style"
	"github.com/rpdl/rpdl/util"
	"github.com/rpdl/rpdl/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.Flags().BoolP("quiet", "q", false, "Do not print progress messages, the progress bar is still shown")
	rootCmd.Flags().BoolP("mp4", "m", false, "Download the direct MP4 rendition instead of assembling segments")
	rootCmd.Flags().BoolP("m3u8", "M", false, "Save the master playlist of the chosen variant")
	rootCmd.Flags().BoolP("infos", "i", false, "Write the video metadata as JSON and exit")
	rootCmd.MarkFlagsMutuallyExclusive("mp4", "m3u8", "infos")

	rootCmd.Flags().StringP("output", "o", "", "Directory to write into, the current one by default")
	lo.Must0(rootCmd.MarkFlagDirname("output"))

	rootCmd.Flags().IntP("parallel", "p", 1, "Number of segments downloaded at once")
	lo.Must0(viper.BindPFlag(key.DownloadParallel, rootCmd.Flags().Lookup("parallel")))

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Icon variant (emoji, nerd, plain, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Record finished downloads in the history")
	lo.Must0(viper.BindPFlag(key.HistorySave, rootCmd.PersistentFlags().Lookup("write-history")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify(contextOf(cmd), cmd.OutOrStdout(), network.New(network.OptionsFromConfig()))
	})
}

var rootCmd = &cobra.Command{
	Use:   constant.App + " [flags] URL",
	Short: "Download videos from RaiPlay",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Download videos from RaiPlay"),
	Example: fmt.Sprintf(`  %[1]s https://www.raiplay.it/video/2020/02/Ulisse-il-piacere-della-scoperta.html
  %[1]s -p 4 -o ~/Videos https://www.raiplay.it/video/2020/02/Ulisse-il-piacere-della-scoperta.html
  %[1]s --infos https://www.raiplay.it/video/2020/02/Ulisse-il-piacere-della-scoperta.html`, constant.App),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		mode := grab.ModeStream
		switch {
		case lo.Must(cmd.Flags().GetBool("mp4")):
			mode = grab.ModeDirect
		case lo.Must(cmd.Flags().GetBool("m3u8")):
			mode = grab.ModeManifest
		case lo.Must(cmd.Flags().GetBool("infos")):
			mode = grab.ModeInfos
		}

		options := grab.Options{
			URL:         args[0],
			Mode:        mode,
			Quiet:       lo.Must(cmd.Flags().GetBool("quiet")),
			Dir:         lo.Must(cmd.Flags().GetString("output")),
			Client:      network.New(network.OptionsFromConfig()),
			UserAgent:   viper.GetString(key.DownloadUserAgent),
			Parallel:    viper.GetInt(key.DownloadParallel),
			SaveHistory: viper.GetBool(key.HistorySave),
			In:          cmd.InOrStdin(),
			Out:         cmd.OutOrStdout(),
		}

		if viper.GetBool(key.CliFancyPrompt) && util.IsTerminal(os.Stdin) {
			options.Select = prompt.Fancy
		}

		_, err := grab.Run(contextOf(cmd), options)
		handleErr(err)
	},
}

// Execute runs the command line. ctx is cancelled on interrupt.
func Execute(ctx context.Context) {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		handleErr(err)
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), util.Capitalize(strings.Trim(err.Error(), " \n")))
		os.Exit(1)
	}
}
