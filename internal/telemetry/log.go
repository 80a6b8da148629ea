// Package telemetry is pacquet's structured logging boundary. The
// installer logs through this package rather than printing directly, so
// the interactive ui package stays purely about the terminal-facing
// progress display.
package telemetry

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: levelFromEnv(),
}))

func levelFromEnv() slog.Level {
	if os.Getenv("PACQUET_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// SetDebug forces debug-level logging regardless of the environment,
// driven by the CLI's --debug flag. SetDebug(false) leaves the level that
// PACQUET_DEBUG selects.
func SetDebug(debug bool) {
	level := levelFromEnv()
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func Debug(msg string, args ...any) { logger.Debug(msg, args...) }
func Info(msg string, args ...any)  { logger.Info(msg, args...) }
func Warn(msg string, args ...any)  { logger.Warn(msg, args...) }
func Error(msg string, args ...any) { logger.Error(msg, args...) }

// With returns a logger scoped to a persistent set of attributes, for a
// single install run or subsystem (e.g. telemetry.With("component", "cas")).
func With(args ...any) *slog.Logger { return logger.With(args...) }
