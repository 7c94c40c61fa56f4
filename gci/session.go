// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"context"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/codec"
)

// Session is a live connection to a remote gem execution context,
// created by a successful login and invalidated by logout or a fatal
// transport failure. After invalidation every operation fails
// cleanly with CodeInvalidSession: a stale handle is a detectable
// error, never an undefined dereference.
//
// A Session must not be used concurrently from two logical
// operations: the underlying protocol assumes single-threaded use
// per session, and no internal locking is provided. Use one session
// per worker; independent sessions are fully concurrent.
type Session struct {
	client              *Client
	conn                net.Conn
	id                  int64
	executedSessionInit bool
	compression         wire.CompressionTag

	// closed is the invalidation flag: set on logout (blocking or
	// not) and on fatal transport failure, checked before every
	// operation touches the connection.
	closed atomic.Bool
}

// ID returns the server-assigned session identifier. The identifier
// is an opaque name, not a usable pointer.
func (s *Session) ID() int64 {
	return s.id
}

// ExecutedSessionInit reports whether the gem ran the session
// initialization code during login.
func (s *Session) ExecutedSessionInit() bool {
	return s.executedSessionInit
}

// IsRemote reports session liveness: 1 for a live networked session,
// -1 when the session is invalid or has been logged out. It never
// panics and never touches the network, so it is safe on any handle
// state, including nil.
func (s *Session) IsRemote() int {
	if s == nil || s.closed.Load() {
		return -1
	}
	return 1
}

// Logout ends the session: the logout request is sent, the gem's
// acknowledgement awaited, and the handle invalidated. The handle is
// invalidated even when the exchange fails; a session that could
// not log out cleanly must not be reused.
func (s *Session) Logout(ctx context.Context) error {
	if s.closed.Swap(true) {
		return invalidSessionError()
	}
	err := s.exchange(ctx, wire.OpLogout, nil, nil)
	closeErr := s.conn.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("gci: closing session transport: %w", closeErr)
	}
	s.client.logger.Info("logged out of gem", "session", s.id)
	return nil
}

// NonBlockingLogout requests logout without awaiting the gem's
// acknowledgement. Success means the request was accepted, not that
// logout completed; the handle is invalidated immediately either way
// so no further work is sent on a terminating session.
func (s *Session) NonBlockingLogout() error {
	if s.closed.Swap(true) {
		return invalidSessionError()
	}
	payload, err := wire.EncodeRequest(wire.OpLogout, s.id, nil)
	if err != nil {
		s.conn.Close()
		return fmt.Errorf("gci: encoding logout request: %w", err)
	}
	writeErr := wire.WriteFrame(s.conn, payload, wire.CompressionNone)
	closeErr := s.conn.Close()
	if writeErr != nil {
		return fmt.Errorf("gci: logout request not accepted: %w", networkError("writing logout", writeErr))
	}
	if closeErr != nil {
		return fmt.Errorf("gci: closing session transport: %w", closeErr)
	}
	s.client.logger.Info("logout requested", "session", s.id)
	return nil
}

// Abort discards the current transaction's modifications.
func (s *Session) Abort(ctx context.Context) error {
	return s.call(ctx, wire.OpAbort, nil, nil)
}

// Begin starts a new transaction.
func (s *Session) Begin(ctx context.Context) error {
	return s.call(ctx, wire.OpBegin, nil, nil)
}

// Commit commits the current transaction.
func (s *Session) Commit(ctx context.Context) error {
	return s.call(ctx, wire.OpCommit, nil, nil)
}

// ContinueWith resumes a previously suspended remote computation,
// delivering data and bytes to the suspended process. When no
// computation is pending, the result is OopIllegal with a non-zero,
// non-fatal error: an expected outcome rather than a failure of
// the bridge.
func (s *Session) ContinueWith(ctx context.Context, process, data Oop, bytes []byte, flags int32) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpContinueWith, wire.ContinueWithRequest{
		Process: uint64(process),
		Data:    uint64(data),
		Bytes:   bytes,
		Flags:   flags,
	}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// IntegerToOop converts a signed 64-bit value to an OOP. Values in
// the small-integer range encode inline without a remote call;
// larger values allocate a server integer object.
func (s *Session) IntegerToOop(ctx context.Context, value int64) (Oop, error) {
	if oop, ok := OopFromSmallInt(value); ok {
		return oop, nil
	}
	var response wire.OopResponse
	err := s.call(ctx, wire.OpIntegerToOop, wire.IntegerRequest{Value: value}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// OopToInteger is the inverse of IntegerToOop. It fails with
// CodeNotAnInteger when the OOP neither encodes nor references an
// integer.
func (s *Session) OopToInteger(ctx context.Context, oop Oop) (int64, error) {
	if value, ok := oop.SmallInt(); ok {
		return value, nil
	}
	if !oop.IsPointer() {
		return 0, &Error{
			Code:     CodeNotAnInteger,
			Message:  fmt.Sprintf("%v does not encode an integer", oop),
			Category: CategoryProtocol,
		}
	}
	var response wire.IntegerResponse
	err := s.call(ctx, wire.OpOopToInteger, wire.IntegerRequest{Oop: uint64(oop)}, &response)
	if err != nil {
		return 0, err
	}
	return response.Value, nil
}

// call runs one request/response exchange, guarding against use of
// an invalidated handle.
func (s *Session) call(ctx context.Context, op wire.Op, body any, out any) error {
	if s.closed.Load() {
		return invalidSessionError()
	}
	return s.exchange(ctx, op, body, out)
}

// exchange performs the wire round trip. A transport failure
// invalidates the session (the stream can no longer be trusted to be
// aligned on frame boundaries); a remote error does not. The caller
// decides whether a non-zero code ends its work.
func (s *Session) exchange(ctx context.Context, op wire.Op, body any, out any) error {
	payload, err := wire.EncodeRequest(op, s.id, body)
	if err != nil {
		return fmt.Errorf("gci: encoding request: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := s.conn.SetDeadline(deadline); err != nil {
			return s.fail("setting deadline", err)
		}
		defer s.conn.SetDeadline(time.Time{})
	}

	if err := wire.WriteFrame(s.conn, payload, s.compression); err != nil {
		return s.fail("writing request", err)
	}

	responsePayload, err := wire.ReadFrame(s.conn)
	if err != nil {
		return s.fail("reading response", err)
	}

	var response wire.Response
	if err := codec.Unmarshal(responsePayload, &response); err != nil {
		return s.fail("decoding response", err)
	}

	// Decode the body before surfacing the error: some operations
	// return a sentinel value alongside a non-zero code.
	if out != nil && len(response.Body) > 0 {
		if err := codec.Unmarshal(response.Body, out); err != nil {
			return s.fail("decoding response body", err)
		}
	}

	if response.Err != nil {
		gciErr := fromWire(response.Err)
		if gciErr.Fatal {
			s.closed.Store(true)
			s.conn.Close()
		}
		return gciErr
	}
	return nil
}

// fail invalidates the session after a transport-level failure and
// returns the corresponding error.
func (s *Session) fail(action string, err error) error {
	s.closed.Store(true)
	s.conn.Close()
	return networkError(action, err)
}
