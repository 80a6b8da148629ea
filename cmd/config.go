package cmd

import (
	"fmt"
	"os"

	"github.com/pacquet/pacquet/internal/config"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved pacquet configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(".")
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}
		fmt.Println("pacquet config:")
		fmt.Println("  Store dir:", cfg.StoreDir)
		fmt.Println("  Virtual store dir:", cfg.VirtualStoreDir)
		fmt.Println("  Modules dir:", cfg.ModulesDir)
		fmt.Println("  Registry:", cfg.Registry)
		fmt.Println("  Import method:", cfg.PackageImportMethod)
		fmt.Println("  Symlink:", cfg.Symlink)
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
