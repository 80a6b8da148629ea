package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pacquet/pacquet/internal/packagejson"
	"github.com/pacquet/pacquet/internal/ui"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run a script from package.json",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runScript(args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// runScript looks up script in the project's package.json and executes it
// with node_modules/.bin prepended to PATH, the way a locally-linked
// virtual store expects its binaries to be found.
func runScript(script string) {
	pkg, err := packagejson.Read("package.json")
	if err != nil {
		ui.ErrorLine(fmt.Errorf("reading package.json: %w", err))
		os.Exit(1)
	}

	cmdStr, ok := pkg.Scripts[script]
	if !ok || strings.TrimSpace(cmdStr) == "" {
		ui.ErrorLine(fmt.Errorf("script %q not found in package.json", script))
		os.Exit(1)
	}

	ui.Step(">", fmt.Sprintf("%s: %s", script, cmdStr))

	cwd, err := os.Getwd()
	if err != nil {
		ui.ErrorLine(err)
		os.Exit(1)
	}
	binDir := filepath.Join(cwd, "node_modules", ".bin")

	env := os.Environ()
	pathSep := string(os.PathListSeparator)
	hasPath := false
	for i, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			env[i] = "PATH=" + binDir + pathSep + e[len("PATH="):]
			hasPath = true
			break
		}
	}
	if !hasPath {
		env = append(env, "PATH="+binDir)
	}

	var execCmd *exec.Cmd
	if runtime.GOOS == "windows" {
		execCmd = exec.Command("cmd", "/C", cmdStr)
	} else {
		execCmd = exec.Command("sh", "-c", cmdStr)
	}
	execCmd.Env = env
	execCmd.Stdout = os.Stdout
	execCmd.Stderr = os.Stderr
	execCmd.Stdin = os.Stdin

	if err := execCmd.Run(); err != nil {
		ui.ErrorLine(fmt.Errorf("script %q failed: %w", script, err))
		os.Exit(1)
	}
}
