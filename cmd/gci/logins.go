// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/jgfoster/vscode-gemstone-sub002/cmd/gci/cli"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/logins"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

// loginsCommand groups login-profile management.
func loginsCommand() *cli.Command {
	return &cli.Command{
		Name:    "logins",
		Summary: "Manage stored login profiles",
		Subcommands: []*cli.Command{
			loginsListCommand(),
			loginsAddCommand(),
			loginsRemoveCommand(),
		},
	}
}

func loginsListCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "list",
		Summary: "List stored login profiles",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list", pflag.ContinueOnError)
			fs.StringVar(&configPath, "config", "", "config file path (default: $GEMSTONE_CONFIG)")
			return fs
		},
		Run: func(args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			profiles, err := openStore(cfg).List()
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Println("no stored profiles")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "LABEL\tGEM\tSTONE\tUSER\tPASSWORD")
			for _, profile := range profiles {
				password := "prompt"
				if profile.SealedPassword != "" {
					password = "sealed"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					profile.Label, profile.Gem, profile.Stone, profile.User, password)
			}
			return tw.Flush()
		},
	}
}

func loginsAddCommand() *cli.Command {
	var configPath string
	var gem, stone, user, passwordFile string
	var noPassword bool

	flagSet := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
		fs.StringVar(&configPath, "config", "", "config file path (default: $GEMSTONE_CONFIG)")
		fs.StringVar(&gem, "gem", "", "gem locator (host:port)")
		fs.StringVar(&stone, "stone", "", "stone locator")
		fs.StringVar(&user, "user", "", "account name")
		fs.StringVar(&passwordFile, "password-file", "", "read the password from this file")
		fs.BoolVar(&noPassword, "no-password", false, "store no password; prompt at each login")
		return fs
	}

	return &cli.Command{
		Name:    "add",
		Summary: "Store a login profile (replaces an existing label)",
		Usage:   "gci logins add <label> --gem <host:port> --user <name> [flags]",
		Flags:   flagSet,
		Examples: []cli.Example{
			{
				Description: "Store a profile, prompting for the password",
				Command:     "gci logins add production --gem gs.example.org:50378 --user DataCurator",
			},
			{
				Description: "Store without a password (prompt at login instead)",
				Command:     "gci logins add scratch --gem localhost:50378 --user DataCurator --no-password",
			},
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gci logins add <label> --gem <host:port> --user <name>")
			}

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			profile := logins.Profile{
				Label: args[0],
				Gem:   gem,
				Stone: stone,
				User:  user,
			}

			var password *secret.Buffer
			if !noPassword {
				if passwordFile != "" {
					password, err = secret.ReadFromPath(passwordFile)
				} else {
					password, err = cli.PromptPassword(fmt.Sprintf("Password for %s: ", user))
				}
				if err != nil {
					return err
				}
				defer password.Close()
			}

			if err := openStore(cfg).Save(profile, password); err != nil {
				return err
			}
			fmt.Printf("stored profile %q\n", profile.Label)
			return nil
		},
	}
}

func loginsRemoveCommand() *cli.Command {
	var configPath string

	return &cli.Command{
		Name:    "remove",
		Summary: "Delete a stored login profile",
		Usage:   "gci logins remove <label>",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("remove", pflag.ContinueOnError)
			fs.StringVar(&configPath, "config", "", "config file path (default: $GEMSTONE_CONFIG)")
			return fs
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: gci logins remove <label>")
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if err := openStore(cfg).Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("removed profile %q\n", args[0])
			return nil
		},
	}
}
