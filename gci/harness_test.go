// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/gci/gcitest"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

const (
	testUser     = "DataCurator"
	testPassword = "swordfish"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startGem starts an in-process test gem with a single account.
func startGem(t *testing.T) *gcitest.Server {
	t.Helper()
	server, err := gcitest.Start(gcitest.Config{
		Accounts: map[string]string{testUser: testPassword},
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatalf("starting test gem: %v", err)
	}
	t.Cleanup(server.Close)
	return server
}

func passwordBuffer(t *testing.T, text string) *secret.Buffer {
	t.Helper()
	buffer, err := secret.NewFromBytes([]byte(text))
	if err != nil {
		t.Fatalf("allocating password buffer: %v", err)
	}
	t.Cleanup(func() { buffer.Close() })
	return buffer
}

func testLoginRequest(t *testing.T, server *gcitest.Server) gci.LoginRequest {
	t.Helper()
	return gci.LoginRequest{
		GemLocator: server.Addr(),
		User:       testUser,
		Password:   passwordBuffer(t, testPassword),
	}
}

// newSession starts a gem, logs in, and registers cleanup. Most
// operation tests start here.
func newSession(t *testing.T) *gci.Session {
	t.Helper()
	server := startGem(t)
	client := gci.NewClient(gci.ClientConfig{Logger: quietLogger()})
	session, err := client.Login(context.Background(), testLoginRequest(t, server))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	t.Cleanup(func() {
		if session.IsRemote() == 1 {
			session.Logout(context.Background())
		}
	})
	return session
}

// requireGciError asserts that err carries a *gci.Error with the
// given code, and returns it for further inspection.
func requireGciError(t *testing.T, err error, code int) *gci.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a GCI error with code %d, got nil", code)
	}
	var gciErr *gci.Error
	if !errors.As(err, &gciErr) {
		t.Fatalf("expected a *gci.Error in the chain, got %v", err)
	}
	if gciErr.Code != code {
		t.Fatalf("error code = %d, want %d (error: %v)", gciErr.Code, code, err)
	}
	return gciErr
}

// smallIntOop encodes value as an inline OOP, failing the test on an
// out-of-range value.
func smallIntOop(t *testing.T, value int64) gci.Oop {
	t.Helper()
	oop, ok := gci.OopFromSmallInt(value)
	if !ok {
		t.Fatalf("value %d is outside the small-integer range", value)
	}
	return oop
}

// pollUntilDone drives a non-blocking login to its terminal state.
func pollUntilDone(t *testing.T, watcher *gci.LoginWatcher) (gci.PollResult, error) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		result, err := watcher.Poll()
		if result != gci.PollPending {
			return result, err
		}
	}
	t.Fatal("non-blocking login did not reach a terminal state")
	return gci.PollPending, nil
}
