package cmd

import (
	"os"

	"github.com/pacquet/pacquet/internal/telemetry"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

const currentVersion = "v0.1.0"

var debugFlag bool

var rootCmd = &cobra.Command{
	Use:   "pacquet",
	Short: "A content-addressed package manager for the npm ecosystem",
	Long: `pacquet installs npm packages into a content-addressed store and
links them into node_modules through a virtual-store layout, the way
pnpm does.`,
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// Shorthand: "pacquet <script>" == "pacquet run <script>".
		if len(args) > 0 {
			runScript(args[0])
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command, printing any error and exiting non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ErrorLine(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false, "verbose debug logging")
	cobra.OnInitialize(func() { telemetry.SetDebug(debugFlag) })
}
