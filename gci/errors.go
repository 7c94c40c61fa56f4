// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"errors"
	"fmt"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
)

// Category classifies a GCI error for callers that branch on failure
// kind rather than on individual codes.
type Category string

const (
	// CategoryAuth covers bad credentials and rejected login flags.
	// The session handle is nil/unusable; nothing was established.
	CategoryAuth Category = "auth"
	// CategoryProtocol covers argument and object errors on a live
	// session: wrong arity, invalid OOP, object does not exist. The
	// session remains usable.
	CategoryProtocol Category = "protocol"
	// CategoryEncoding covers text conversion failures.
	CategoryEncoding Category = "encoding"
	// CategoryNetwork covers transport failures: unreachable gem,
	// broken connection, expired deadline. Usually fatal to the
	// session.
	CategoryNetwork Category = "network"
	// CategoryInternal covers bridge-side failures that indicate a
	// bug rather than a remote outcome.
	CategoryInternal Category = "internal"
)

// GCI error codes. Zero is success and never appears in an Error.
const (
	// CodeBadCredentials: wrong user/password, or an encrypted
	// password submitted without LoginPasswordEncrypted (and vice
	// versa).
	CodeBadCredentials = 4051
	// CodeLoginTimeout: the login timeout expired before the gem
	// answered.
	CodeLoginTimeout = 4052
	// CodeInvalidSession: the operation was issued on a logged-out
	// or otherwise invalidated session handle.
	CodeInvalidSession = 4100
	// CodeNetworkFailure: the transport failed mid-operation.
	CodeNetworkFailure = 4201
	// CodeProtocolFailure: a frame or message could not be decoded;
	// the stream is unsynchronized.
	CodeProtocolFailure = 4202
	// CodeCompileError: Execute source failed to compile.
	CodeCompileError = 1001
	// CodeDoesNotUnderstand: the receiver has no method for the
	// selector.
	CodeDoesNotUnderstand = 2010
	// CodeWrongArity: argument count does not match the selector.
	CodeWrongArity = 2025
	// CodeObjectNotFound: the OOP does not name a live server object.
	CodeObjectNotFound = 2101
	// CodeNotAnInteger: the OOP neither encodes nor references an
	// integer.
	CodeNotAnInteger = 2107
	// CodeSymbolNotFound: symbol resolution failed in the given
	// scope.
	CodeSymbolNotFound = 2108
	// CodeIndexOutOfRange: an indexed access was outside the
	// receiver's bounds.
	CodeIndexOutOfRange = 2110
	// CodeNoPendingProcess: ContinueWith was called with no
	// suspended computation pending. Expected and non-fatal.
	CodeNoPendingProcess = 2335
)

// Error is the uniform error record for every GCI operation. Remote
// outcomes are returned inline, never panicked: callers decide
// whether a non-zero code is fatal to their work. Use errors.As to
// extract it from a wrapped chain:
//
//	var gciErr *gci.Error
//	if errors.As(err, &gciErr) {
//	    if gciErr.Code == gci.CodeObjectNotFound { ... }
//	}
type Error struct {
	// Code is the numeric GCI error code. Never zero.
	Code int
	// Message is the human-readable description.
	Message string
	// Fatal reports whether the session that produced the error is
	// no longer usable.
	Fatal bool
	// Category classifies the failure.
	Category Category
}

func (e *Error) Error() string {
	return fmt.Sprintf("gci: %s (%d): %s", e.Category, e.Code, e.Message)
}

// IsGciError checks whether err is a *Error with the given code.
func IsGciError(err error, code int) bool {
	var gciErr *Error
	if errors.As(err, &gciErr) {
		return gciErr.Code == code
	}
	return false
}

// fromWire converts a wire error into the typed form.
func fromWire(wireErr *wire.Error) *Error {
	return &Error{
		Code:     wireErr.Code,
		Message:  wireErr.Message,
		Fatal:    wireErr.Fatal,
		Category: Category(wireErr.Category),
	}
}

func invalidSessionError() *Error {
	return &Error{
		Code:     CodeInvalidSession,
		Message:  "session has been logged out",
		Category: CategoryProtocol,
	}
}

func networkError(action string, err error) *Error {
	return &Error{
		Code:     CodeNetworkFailure,
		Message:  fmt.Sprintf("%s: %v", action, err),
		Fatal:    true,
		Category: CategoryNetwork,
	}
}

func protocolError(action string, err error) *Error {
	return &Error{
		Code:     CodeProtocolFailure,
		Message:  fmt.Sprintf("%s: %v", action, err),
		Fatal:    true,
		Category: CategoryProtocol,
	}
}
