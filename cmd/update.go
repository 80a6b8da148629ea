package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pacquet/pacquet/internal/httpx"
	"github.com/pacquet/pacquet/internal/ui"
	"github.com/pacquet/pacquet/internal/updater"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update pacquet to the latest release",
	Run: func(cmd *cobra.Command, args []string) {
		ui.PrintHeader("Update pacquet")
		client := httpx.NewClient()

		latest, hasNew, err := updater.CheckUpdate(context.Background(), client, currentVersion)
		if err != nil {
			ui.ErrorLine(fmt.Errorf("checking for update: %w", err))
			os.Exit(1)
		}
		if !hasNew {
			ui.Success.Printf("pacquet is up to date: %s\n", currentVersion)
			return
		}

		ui.Step(">", fmt.Sprintf("new version %s available (current: %s)", latest, currentVersion))
		spinner := ui.NewSpinner("Downloading latest binary...")
		spinner.Start()
		binPath, tag, err := updater.DownloadLatest(context.Background(), client, os.TempDir())
		spinner.Stop()
		if err != nil {
			ui.ErrorLine(err)
			os.Exit(1)
		}

		exe, err := os.Executable()
		if err != nil {
			ui.ErrorLine(fmt.Errorf("locating running binary: %w", err))
			os.Exit(1)
		}
		target := exe
		if runtime.GOOS == "windows" {
			// Windows refuses to overwrite a running executable.
			target = filepath.Join(filepath.Dir(exe), "pacquet.new.exe")
		}
		if err := copyFile(binPath, target); err != nil {
			ui.ErrorLine(fmt.Errorf("placing binary: %w", err))
			os.Exit(1)
		}
		if runtime.GOOS == "windows" {
			ui.Info.Println("close this terminal and rename pacquet.new.exe to pacquet.exe to finish updating")
		}
		ui.SuccessLine("pacquet", tag, "")
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
