// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/jgfoster/vscode-gemstone-sub002/cmd/gci/cli"
)

// loginCommand verifies credentials and connectivity by logging in,
// reporting the session, and logging out again.
func loginCommand() *cli.Command {
	var flags connectFlags

	flagSet := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
		fs.StringVar(&flags.configPath, "config", "", "config file path (default: $GEMSTONE_CONFIG)")
		fs.StringVar(&flags.gem, "gem", "", "gem locator (host:port)")
		fs.StringVar(&flags.stone, "stone", "", "stone locator")
		fs.StringVar(&flags.user, "user", "", "account name")
		fs.StringVar(&flags.passwordFile, "password-file", "", "read the password from this file")
		return fs
	}

	return &cli.Command{
		Name:    "login",
		Summary: "Log in to a gem and report the session",
		Usage:   "gci login [<profile>] [flags]",
		Flags:   flagSet,
		Examples: []cli.Example{
			{
				Description: "Check a stored profile",
				Command:     "gci login production",
			},
			{
				Description: "Log in ad hoc",
				Command:     "gci login --gem localhost:50378 --user DataCurator",
			},
		},
		Run: func(args []string) error {
			label := ""
			if len(args) > 0 {
				label = args[0]
			}

			cfg, err := loadConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger := cli.NewCommandLogger(cfg.Log).With("command", "login")
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

			fmt.Printf("logged in to %s as %s (session %d", profile.Gem, profile.User, session.ID())
			if session.IsRemote() == 1 {
				fmt.Printf(", remote")
			}
			if session.ExecutedSessionInit() {
				fmt.Printf(", session init ran")
			}
			fmt.Println(")")

			return session.Logout(ctx)
		},
	}
}
