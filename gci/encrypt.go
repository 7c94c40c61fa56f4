// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/pbkdf2"
)

// encryptSalt is a fixed domain-separation salt. EncryptPassword is
// deliberately deterministic (no per-call nonce) because login flows
// compare encrypted values for equality and tests rely on stable
// output.
var encryptSalt = []byte("gci/password/v1")

const (
	encryptIterations = 4096
	encryptKeyLength  = 32
	encryptPrefix     = "G1$"
)

// EncryptPassword scrambles a plaintext password for submission with
// the LoginPasswordEncrypted flag, or for storage in a login profile.
// Identical input always yields identical output; the output never
// equals the plaintext. An empty input yields an empty output.
func EncryptPassword(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	key := pbkdf2.Key([]byte(plaintext), encryptSalt, encryptIterations, encryptKeyLength, sha256.New)
	return encryptPrefix + base64.RawStdEncoding.EncodeToString(key)
}
