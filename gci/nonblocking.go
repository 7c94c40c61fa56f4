// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
)

// PollResult is the state of a non-blocking login.
type PollResult int

const (
	// PollPending: authentication has not completed; poll again.
	PollPending PollResult = 0
	// PollSucceeded: the login completed and Session is available.
	PollSucceeded PollResult = 1
	// PollFailed: the login failed; the error carries the cause.
	PollFailed PollResult = -1
)

// LoginWatcher is the poll handle for a non-blocking login. The
// caller alone drives progress by calling Poll until it returns a
// terminal result; the watcher performs no background work, no
// sleeping, and no backoff.
//
// A watcher is not safe for concurrent use.
type LoginWatcher struct {
	client      *Client
	conn        net.Conn
	accumulator wire.Accumulator

	state               PollResult
	session             *Session
	executedSessionInit bool
	err                 error
}

// NonBlockingLogin starts a login and returns immediately with a
// watcher to poll for completion. The transport is dialed and the
// login request written before return; only the authentication wait
// is deferred to polling.
func (c *Client) NonBlockingLogin(ctx context.Context, request LoginRequest) (*LoginWatcher, error) {
	return c.nonBlockingLogin(ctx, request, "")
}

// NonBlockingLoginWithDirectoryName is NonBlockingLogin with an
// explicit network-location-directory name.
func (c *Client) NonBlockingLoginWithDirectoryName(ctx context.Context, request LoginRequest, directory string) (*LoginWatcher, error) {
	return c.nonBlockingLogin(ctx, request, directory)
}

func (c *Client) nonBlockingLogin(ctx context.Context, request LoginRequest, directory string) (*LoginWatcher, error) {
	conn, err := c.dialLogin(ctx, request, directory)
	if err != nil {
		return nil, err
	}
	return &LoginWatcher{client: c, conn: conn, state: PollPending}, nil
}

// Poll performs one bounded check of the login's progress. It
// returns PollPending while authentication is incomplete, and
// transitions exactly once to PollSucceeded or PollFailed; polls
// after the transition return the stored terminal result without
// touching the connection.
func (w *LoginWatcher) Poll() (PollResult, error) {
	if w.state != PollPending {
		return w.state, w.err
	}

	payload, done, err := w.accumulator.Poll(w.conn)
	if err != nil {
		return w.terminate(nil, fmt.Errorf("gci: login failed: %w", networkError("polling login response", err)))
	}
	if !done {
		return PollPending, nil
	}

	// Restore blocking semantics on the connection before handing
	// it to the session.
	if err := w.conn.SetReadDeadline(time.Time{}); err != nil {
		return w.terminate(nil, fmt.Errorf("gci: login failed: %w", networkError("clearing poll deadline", err)))
	}

	session, err := w.client.finishLogin(w.conn, payload)
	if err != nil {
		return w.terminate(nil, err)
	}
	return w.terminate(session, nil)
}

// terminate records the single terminal transition.
func (w *LoginWatcher) terminate(session *Session, err error) (PollResult, error) {
	if err != nil {
		w.state = PollFailed
		w.err = err
		w.conn.Close()
		return w.state, w.err
	}
	w.state = PollSucceeded
	w.session = session
	w.executedSessionInit = session.ExecutedSessionInit()
	return w.state, nil
}

// Session returns the established session. It is non-nil only after
// a poll has returned PollSucceeded.
func (w *LoginWatcher) Session() *Session {
	return w.session
}

// ExecutedSessionInit reports whether the gem ran session
// initialization; meaningful only after PollSucceeded.
func (w *LoginWatcher) ExecutedSessionInit() bool {
	return w.executedSessionInit
}

// Abandon cancels a pending non-blocking login, closing the
// transport. After Abandon, Poll reports failure.
func (w *LoginWatcher) Abandon() {
	if w.state != PollPending {
		return
	}
	w.terminate(nil, fmt.Errorf("gci: login abandoned"))
}
