// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/jgfoster/vscode-gemstone-sub002/cmd/gci/cli"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/version"
)

// rootCommand builds the complete gci command tree.
func rootCommand() *cli.Command {
	return &cli.Command{
		Name: "gci",
		Description: `gci: terminal client for GemStone object servers.

Log in to a gem, evaluate Smalltalk expressions, and manage stored
login profiles. Profile passwords are sealed to a local identity and
never stored in plaintext.`,
		Subcommands: []*cli.Command{
			loginCommand(),
			execCommand(),
			loginsCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("gci %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Store a login profile (prompts for the password)",
				Command:     "gci logins add production --gem gs.example.org:50378 --user DataCurator",
			},
			{
				Description: "Verify a stored profile by logging in and out",
				Command:     "gci login production",
			},
			{
				Description: "Evaluate an expression in a fresh session",
				Command:     "gci exec production 'DateTime now printString'",
			},
			{
				Description: "Log in without a stored profile",
				Command:     "gci login --gem localhost:50378 --user DataCurator",
			},
		},
	}
}
