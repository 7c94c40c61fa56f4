// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/gci/gcitest"
)

func TestLogin_Success(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	session, err := client.Login(context.Background(), testLoginRequest(t, server))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer session.Logout(context.Background())

	if session.ID() <= 0 {
		t.Errorf("session ID = %d, want positive", session.ID())
	}
	if !session.ExecutedSessionInit() {
		t.Error("ExecutedSessionInit() = false, want true")
	}
	if got := session.IsRemote(); got != 1 {
		t.Errorf("IsRemote() = %d, want 1", got)
	}
}

func TestLogin_BadPassword(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	request := testLoginRequest(t, server)
	request.Password = passwordBuffer(t, "wrong")
	session, err := client.Login(context.Background(), request)
	if session != nil {
		t.Fatal("failed login returned a non-nil session")
	}
	gciErr := requireGciError(t, err, gci.CodeBadCredentials)
	if gciErr.Category != gci.CategoryAuth {
		t.Errorf("category = %q, want %q", gciErr.Category, gci.CategoryAuth)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	request := testLoginRequest(t, server)
	request.User = "Nobody"
	session, err := client.Login(context.Background(), request)
	if session != nil {
		t.Fatal("failed login returned a non-nil session")
	}
	requireGciError(t, err, gci.CodeBadCredentials)
}

func TestLogin_EncryptedPassword(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	request := testLoginRequest(t, server)
	request.Password = passwordBuffer(t, gci.EncryptPassword(testPassword))
	request.Flags = gci.LoginPasswordEncrypted
	session, err := client.Login(context.Background(), request)
	if err != nil {
		t.Fatalf("encrypted login: %v", err)
	}
	session.Logout(context.Background())
}

func TestLogin_EncryptedFlagWithPlaintext(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	// The flag must match the submitted form: plaintext with the
	// encrypted flag set is an authentication failure.
	request := testLoginRequest(t, server)
	request.Flags = gci.LoginPasswordEncrypted
	session, err := client.Login(context.Background(), request)
	if session != nil {
		t.Fatal("mismatched login returned a non-nil session")
	}
	requireGciError(t, err, gci.CodeBadCredentials)
}

func TestLogin_MissingUser(t *testing.T) {
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})
	_, err := client.Login(context.Background(), gci.LoginRequest{
		GemLocator: "127.0.0.1:1",
		Password:   passwordBuffer(t, testPassword),
	})
	if err == nil || !strings.Contains(err.Error(), "user") {
		t.Fatalf("login without user: got %v, want user-required error", err)
	}
}

func TestLogin_MissingPassword(t *testing.T) {
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})
	_, err := client.Login(context.Background(), gci.LoginRequest{
		GemLocator: "127.0.0.1:1",
		User:       testUser,
	})
	if err == nil || !strings.Contains(err.Error(), "password") {
		t.Fatalf("login without password: got %v, want password-required error", err)
	}
}

func TestLogin_DialFailure(t *testing.T) {
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})
	request := gci.LoginRequest{
		// Reserved port: nothing listens there.
		GemLocator: "127.0.0.1:1",
		User:       testUser,
		Password:   passwordBuffer(t, testPassword),
	}
	_, err := client.Login(context.Background(), request)
	gciErr := requireGciError(t, err, gci.CodeNetworkFailure)
	if gciErr.Category != gci.CategoryNetwork {
		t.Errorf("category = %q, want %q", gciErr.Category, gci.CategoryNetwork)
	}
}

func TestLogin_ContextDeadline(t *testing.T) {
	gate := make(chan struct{})
	server, err := gcitest.Start(gcitest.Config{
		Accounts:  map[string]string{testUser: testPassword},
		Logger:    quietLogger(),
		LoginGate: gate,
	})
	if err != nil {
		t.Fatalf("starting test gem: %v", err)
	}
	defer server.Close()
	defer close(gate)

	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	session, err := client.Login(ctx, testLoginRequest(t, server))
	if session != nil {
		t.Fatal("timed-out login returned a non-nil session")
	}
	requireGciError(t, err, gci.CodeNetworkFailure)
}

func TestLogin_ClientTimeout(t *testing.T) {
	gate := make(chan struct{})
	server, err := gcitest.Start(gcitest.Config{
		Accounts:  map[string]string{testUser: testPassword},
		Logger:    quietLogger(),
		LoginGate: gate,
	})
	if err != nil {
		t.Fatalf("starting test gem: %v", err)
	}
	defer server.Close()
	defer close(gate)

	client := gci.NewClient(gci.ClientConfig{
		Logger:       quietLogger(),
		LoginTimeout: 100 * time.Millisecond,
	})
	session, err := client.Login(context.Background(), testLoginRequest(t, server))
	if session != nil {
		t.Fatal("timed-out login returned a non-nil session")
	}
	requireGciError(t, err, gci.CodeNetworkFailure)
}

func TestLoginWithDirectoryName(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})

	session, err := client.LoginWithDirectoryName(
		context.Background(), testLoginRequest(t, server), "gs64stone")
	if err != nil {
		t.Fatalf("login with directory name: %v", err)
	}
	session.Logout(context.Background())
}

func TestLogin_CompressedSession(t *testing.T) {
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{
		Logger:      quietLogger(),
		Compression: gci.CompressionZstd,
	})

	request := testLoginRequest(t, server)
	request.Flags = gci.LoginFullCompression
	session, err := client.Login(context.Background(), request)
	if err != nil {
		t.Fatalf("compressed login: %v", err)
	}
	defer session.Logout(context.Background())

	// A payload over the compression threshold exercises the
	// negotiated codec in both directions.
	ctx := context.Background()
	text := strings.Repeat("compressible text payload ", 100)
	oop, err := session.NewString(ctx, text)
	if err != nil {
		t.Fatalf("NewString over compressed session: %v", err)
	}
	fetched, err := session.FetchUTF8(ctx, oop, int64(len(text)))
	if err != nil {
		t.Fatalf("FetchUTF8 over compressed session: %v", err)
	}
	if fetched != text {
		t.Fatal("compressed round trip corrupted the string contents")
	}
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name string
		want gci.Compression
		ok   bool
	}{
		{"none", gci.CompressionNone, true},
		{"lz4", gci.CompressionLZ4, true},
		{"zstd", gci.CompressionZstd, true},
		{"brotli", 0, false},
	}
	for _, test := range tests {
		got, err := gci.ParseCompression(test.name)
		if test.ok && (err != nil || got != test.want) {
			t.Errorf("ParseCompression(%q) = %v, %v; want %v", test.name, got, err, test.want)
		}
		if !test.ok && err == nil {
			t.Errorf("ParseCompression(%q) accepted an unknown codec", test.name)
		}
	}
}
