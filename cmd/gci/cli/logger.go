// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/jgfoster/vscode-gemstone-sub002/lib/config"
)

// NewCommandLogger creates a structured logger for CLI command
// operations, honoring the config's level and format. A "text" format
// on a terminal stays human-readable; piped or redirected output (CI,
// scripts) switches to JSON so logs stay machine-parseable.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger(cfg.Log).With("command", "login")
func NewCommandLogger(logConfig config.LogConfig) *slog.Logger {
	options := &slog.HandlerOptions{Level: parseLevel(logConfig.Level)}

	var handler slog.Handler
	if logConfig.Format == "text" && term.IsTerminal(int(os.Stderr.Fd())) {
		handler = slog.NewTextHandler(os.Stderr, options)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, options)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
