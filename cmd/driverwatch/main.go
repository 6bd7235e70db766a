package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	cfgFile string
	dataDir string
)

var rootCmd = &cobra.Command{
	Use:   "driverwatch",
	Short: "NVIDIA driver update agent",
	Long: `driverwatch checks whether a newer GeForce driver is published for this
machine, shows a notification when one is, and installs it on request.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context())
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check for a newer driver and notify (default)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd.Context())
	},
}

var activateCmd = &cobra.Command{
	Use:   "activate [payload]",
	Short: "Handle a notification action",
	Long: `Handle the payload attached to a notification button. The payload is the
query string or driverwatch: URI produced by the check run. Unknown or
missing actions exit without doing anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arg := ""
		if len(args) == 1 {
			arg = args[0]
		}
		return runActivate(cmd.Context(), arg)
	},
}

var skipsCmd = &cobra.Command{
	Use:   "skips",
	Short: "List skipped driver versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSkips(cmd.OutOrStdout())
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register the driverwatch: protocol handler for notification actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return registerProtocol()
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent checks, skips and installs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(cmd.OutOrStdout(), historyLimit)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "driverwatch v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is <data-dir>/config.txt)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory for settings, skip markers and logs (default is the user config dir)")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of entries to show (0 for all)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(skipsCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signalContext()
	err := rootCmd.ExecuteContext(ctx)
	stop()

	code := exitCode(err)
	if code == exitConfig {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
