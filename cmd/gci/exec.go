// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jgfoster/vscode-gemstone-sub002/cmd/gci/cli"
	"github.com/jgfoster/vscode-gemstone-sub002/gci"
)

// maxPrintBytes caps how much of a result string exec fetches. Large
// results are for programs, not terminals.
const maxPrintBytes = 1 << 16

// execCommand evaluates Smalltalk source in a fresh session and
// prints the result.
func execCommand() *cli.Command {
	var flags connectFlags

	flagSet := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("exec", pflag.ContinueOnError)
		fs.StringVar(&flags.configPath, "config", "", "config file path (default: $GEMSTONE_CONFIG)")
		fs.StringVar(&flags.gem, "gem", "", "gem locator (host:port)")
		fs.StringVar(&flags.stone, "stone", "", "stone locator")
		fs.StringVar(&flags.user, "user", "", "account name")
		fs.StringVar(&flags.passwordFile, "password-file", "", "read the password from this file")
		return fs
	}

	return &cli.Command{
		Name:    "exec",
		Summary: "Execute Smalltalk source in a session",
		Usage:   "gci exec [<profile>] <source> [flags]",
		Flags:   flagSet,
		Examples: []cli.Example{
			{
				Description: "Evaluate with a stored profile",
				Command:     "gci exec production '3 + 4'",
			},
			{
				Description: "Evaluate ad hoc",
				Command:     "gci exec --gem localhost:50378 --user DataCurator 'System stoneName'",
			},
		},
		Run: func(args []string) error {
			label := ""
			var source string
			switch len(args) {
			case 1:
				source = args[0]
			case 2:
				label = args[0]
				source = args[1]
			default:
				return fmt.Errorf("usage: gci exec [<profile>] <source>")
			}

			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger(cfg.Log).With("command", "exec")
			store := openStore(cfg)

			profile, err := resolveProfile(cfg, store, label, flags)
			if err != nil {
				return err
			}
			password, err := resolvePassword(store, profile, flags)
			if err != nil {
				return err
			}
			defer password.Close()

			ctx := context.Background()
			session, err := openSession(ctx, cfg, logger, profile, password)
			if err != nil {
				return err
			}
			defer session.Logout(ctx)

			result, err := session.Execute(ctx, source, gci.OopNil)
			if err != nil {
				return err
			}

			text, err := formatResult(ctx, session, result)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}
}

// formatResult renders an execution result for the terminal. Inline
// values print directly; everything else goes through printString on
// the server so the output matches what a Smalltalk listener shows.
func formatResult(ctx context.Context, session *gci.Session, result gci.Oop) (string, error) {
	switch result {
	case gci.OopNil:
		return "nil", nil
	case gci.OopTrue:
		return "true", nil
	case gci.OopFalse:
		return "false", nil
	}
	if value, ok := result.SmallInt(); ok {
		return fmt.Sprintf("%d", value), nil
	}

	printed, err := session.Perform(ctx, result, "printString", nil)
	if err != nil {
		return "", fmt.Errorf("printing result %s: %w", result, err)
	}
	return session.FetchUTF8(ctx, printed, maxPrintBytes)
}
