// Package ui is the interactive terminal-facing layer: colored status
// lines, spinners, and progress bars for the pacquet CLI. Subsystem
// internals log through telemetry instead; this package is only ever
// driven from cmd.
package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Colors for consistent theming.
var (
	Primary = color.New(color.FgCyan, color.Bold)
	Success = color.New(color.FgGreen, color.Bold)
	Warning = color.New(color.FgYellow, color.Bold)
	Error   = color.New(color.FgRed, color.Bold)
	Info    = color.New(color.FgBlue, color.Bold)
	Muted   = color.New(color.FgHiBlack)
	Accent  = color.New(color.FgMagenta, color.Bold)
)

// NewSpinner creates a spinner styled for a single long-running step
// (fetch, extract, link).
func NewSpinner(text string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Prefix = Accent.Sprint("> ")
	s.Suffix = Primary.Sprint(" " + text)
	s.Color("cyan")
	return s
}

// NewProgressBar creates a styled progress bar for a known-size fan-out
// (e.g. one tick per graph node in install_from_lockfile).
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetDescription(Accent.Sprint("pkg ")+description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionShowCount(),
	)
}

// Step prints a single labeled progress line (e.g. "fetch", "link").
func Step(label, description string) {
	fmt.Printf("%s %s\n", Accent.Sprint(label), description)
}

// SuccessLine prints a single-line success summary for one installed
// package.
func SuccessLine(pkgName, version, duration string) {
	fmt.Printf("%s %s@%s %s\n", Success.Sprint("+"), pkgName, version, Muted.Sprintf("(%s)", duration))
}

// ErrorLine prints a single-line error to stderr.
func ErrorLine(err error) {
	Error.Fprintf(os.Stderr, "x %v\n", err)
}

// Summary prints an install summary: package count and total duration.
func Summary(packageCount int, totalTime string) {
	fmt.Println()
	Info.Printf("installed %d package(s) in %s\n", packageCount, totalTime)
}

// PrintHeader prints a styled section header.
func PrintHeader(title string) {
	fmt.Println()
	Primary.Println(strings.Repeat("=", len(title)+4))
	Primary.Printf("  %s  \n", title)
	Primary.Println(strings.Repeat("=", len(title)+4))
	fmt.Println()
}

// CheckMark returns a styled checkmark.
func CheckMark() string { return Success.Sprint("ok") }

// CrossMark returns a styled cross mark.
func CrossMark() string { return Error.Sprint("fail") }
