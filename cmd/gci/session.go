// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jgfoster/vscode-gemstone-sub002/cmd/gci/cli"
	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/config"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/logins"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

// loadConfig resolves configuration with the usual precedence: an
// explicit --config path wins, then GEMSTONE_CONFIG, then built-in
// defaults.
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if os.Getenv("GEMSTONE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func openStore(cfg *config.Config) *logins.Store {
	return logins.Open(cfg.Logins.File, cfg.Logins.IdentityFile)
}

// connectFlags are the login parameters shared by every command that
// opens a session. Flag values override the stored profile field by
// field, so "--user SystemUser" reuses a profile's gem and stone while
// switching accounts.
type connectFlags struct {
	configPath   string
	gem          string
	stone        string
	user         string
	passwordFile string
}

// resolveProfile merges a stored profile (when label is non-empty, or
// the config names a default) with flag overrides.
func resolveProfile(cfg *config.Config, store *logins.Store, label string, flags connectFlags) (logins.Profile, error) {
	profile := logins.Profile{}

	if label == "" && flags.gem == "" {
		label = cfg.Logins.DefaultProfile
	}
	if label != "" {
		stored, err := store.Get(label)
		if err != nil {
			return logins.Profile{}, err
		}
		profile = stored
	}

	if flags.gem != "" {
		profile.Gem = flags.gem
	}
	if flags.stone != "" {
		profile.Stone = flags.stone
	}
	if flags.user != "" {
		profile.User = flags.user
	}

	if profile.Gem == "" {
		return logins.Profile{}, fmt.Errorf("no gem address: name a stored profile or pass --gem")
	}
	if profile.User == "" {
		return logins.Profile{}, fmt.Errorf("no user name: name a stored profile or pass --user")
	}
	return profile, nil
}

// resolvePassword finds the password for a login, in order of
// preference: an explicit --password-file, the profile's sealed
// password, then an interactive prompt. The caller must Close the
// returned buffer.
func resolvePassword(store *logins.Store, profile logins.Profile, flags connectFlags) (*secret.Buffer, error) {
	if flags.passwordFile != "" {
		return secret.ReadFromPath(flags.passwordFile)
	}
	if profile.SealedPassword != "" {
		return store.Password(profile)
	}
	return cli.PromptPassword(fmt.Sprintf("Password for %s: ", profile.User))
}

// openSession logs in using the resolved profile and the config's
// connection defaults.
func openSession(ctx context.Context, cfg *config.Config, logger *slog.Logger, profile logins.Profile, password *secret.Buffer) (*gci.Session, error) {
	client := gci.NewClient(gci.ClientConfig{
		Logger:       logger,
		Compression:  cfg.Compression(),
		LoginTimeout: cfg.LoginTimeout(),
	})

	var loginFlags gci.LoginFlags
	if cfg.Compression() != gci.CompressionNone {
		loginFlags |= gci.LoginFullCompression
	}
	if cfg.Gem.Quiet {
		loginFlags |= gci.LoginQuiet
	}

	return client.Login(ctx, gci.LoginRequest{
		StoneLocator: profile.Stone,
		GemLocator:   profile.Gem,
		User:         profile.User,
		Password:     password,
		Flags:        loginFlags,
	})
}
