// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package logins stores named gem login profiles on disk, in the
// style of editor settings files: JSON with comments is accepted on
// read, plain formatted JSON is written. Passwords never appear in
// plaintext; each profile's password is sealed to a local age identity
// and unsealed only at login time.
package logins

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/jsonc"

	"github.com/jgfoster/vscode-gemstone-sub002/lib/sealed"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

// Profile is one stored login profile, keyed by Label.
type Profile struct {
	// Label names the profile in commands and settings.
	Label string `json:"label"`

	// Stone is the coordinating-stone locator, passed through
	// verbatim at login.
	Stone string `json:"stone,omitempty"`

	// Gem is the gem execution endpoint locator.
	Gem string `json:"gem"`

	// User is the account name.
	User string `json:"user"`

	// SealedPassword is the age-sealed password, base64-encoded.
	// Empty means the password is prompted for at login.
	SealedPassword string `json:"sealed_password,omitempty"`
}

// fileFormat is the on-disk shape of the profile store.
type fileFormat struct {
	Profiles []Profile `json:"profiles"`
}

const fileHeader = "// gci login profiles. Comments are allowed; passwords are age-sealed.\n"

// Store reads and writes a login-profile file.
type Store struct {
	path         string
	identityFile string
}

// Open returns a store over the profile file at path, using the age
// identity at identityFile to seal and unseal passwords. Neither file
// needs to exist yet.
func Open(path, identityFile string) *Store {
	return &Store{path: path, identityFile: identityFile}
}

// List returns all stored profiles sorted by label. A missing file is
// an empty store, not an error.
func (s *Store) List() ([]Profile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading login profiles: %w", err)
	}

	var contents fileFormat
	if err := json.Unmarshal(jsonc.ToJSON(data), &contents); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.path, err)
	}
	sort.Slice(contents.Profiles, func(i, j int) bool {
		return contents.Profiles[i].Label < contents.Profiles[j].Label
	})
	return contents.Profiles, nil
}

// Get returns the profile with the given label.
func (s *Store) Get(label string) (Profile, error) {
	profiles, err := s.List()
	if err != nil {
		return Profile{}, err
	}
	for _, profile := range profiles {
		if profile.Label == label {
			return profile, nil
		}
	}
	return Profile{}, fmt.Errorf("login profile %q not found in %s", label, s.path)
}

// Save adds or replaces a profile. When password is non-nil it is
// sealed to the store's age identity (generated on first use) and
// stored with the profile; the buffer is read, not closed.
func (s *Store) Save(profile Profile, password *secret.Buffer) error {
	if profile.Label == "" {
		return fmt.Errorf("profile label is required")
	}
	if profile.Gem == "" {
		return fmt.Errorf("profile %q: gem locator is required", profile.Label)
	}
	if profile.User == "" {
		return fmt.Errorf("profile %q: user is required", profile.Label)
	}

	if password != nil {
		keypair, err := sealed.EnsureIdentity(s.identityFile)
		if err != nil {
			return fmt.Errorf("preparing sealing identity: %w", err)
		}
		defer keypair.Close()

		ciphertext, err := sealed.Seal(password.Bytes(), keypair.PublicKey)
		if err != nil {
			return fmt.Errorf("sealing password: %w", err)
		}
		profile.SealedPassword = ciphertext
	}
	if profile.SealedPassword != "" && !sealed.IsSealed(profile.SealedPassword) {
		return fmt.Errorf("profile %q: sealed_password is not age ciphertext", profile.Label)
	}

	profiles, err := s.List()
	if err != nil {
		return err
	}
	replaced := false
	for index := range profiles {
		if profiles[index].Label == profile.Label {
			profiles[index] = profile
			replaced = true
			break
		}
	}
	if !replaced {
		profiles = append(profiles, profile)
	}
	return s.write(profiles)
}

// Delete removes the profile with the given label.
func (s *Store) Delete(label string) error {
	profiles, err := s.List()
	if err != nil {
		return err
	}
	kept := profiles[:0]
	for _, profile := range profiles {
		if profile.Label != label {
			kept = append(kept, profile)
		}
	}
	if len(kept) == len(profiles) {
		return fmt.Errorf("login profile %q not found in %s", label, s.path)
	}
	return s.write(kept)
}

// Password unseals the profile's stored password. The caller must
// Close the returned buffer. A profile without a stored password is an
// error; callers prompt instead.
func (s *Store) Password(profile Profile) (*secret.Buffer, error) {
	if profile.SealedPassword == "" {
		return nil, fmt.Errorf("profile %q has no stored password", profile.Label)
	}
	if !sealed.IsSealed(profile.SealedPassword) {
		return nil, fmt.Errorf("profile %q: sealed_password is not age ciphertext; "+
			"re-save the profile instead of editing the password by hand", profile.Label)
	}

	privateKey, err := secret.ReadFromPath(s.identityFile)
	if err != nil {
		return nil, fmt.Errorf("reading sealing identity: %w", err)
	}
	defer privateKey.Close()

	password, err := sealed.Unseal(profile.SealedPassword, privateKey)
	if err != nil {
		return nil, fmt.Errorf("unsealing password for profile %q: %w", profile.Label, err)
	}
	return password, nil
}

func (s *Store) write(profiles []Profile) error {
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].Label < profiles[j].Label
	})

	encoded, err := json.MarshalIndent(fileFormat{Profiles: profiles}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding login profiles: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	// Write-then-rename so a crash cannot truncate the store.
	temporary := s.path + ".tmp"
	contents := fileHeader + string(encoded) + "\n"
	if err := os.WriteFile(temporary, []byte(contents), 0o600); err != nil {
		return fmt.Errorf("writing login profiles: %w", err)
	}
	if err := os.Rename(temporary, s.path); err != nil {
		os.Remove(temporary)
		return fmt.Errorf("replacing login profiles: %w", err)
	}
	return nil
}
