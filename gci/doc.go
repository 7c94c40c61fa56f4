// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package gci is a client-side bridge to a GemStone object server's
// native communication interface. It exposes session establishment,
// object-reference (OOP) handling, remote method invocation,
// collection mutation, object introspection, and text-encoding
// conversion as typed operations over a framed wire protocol.
//
// The package provides two core types. [Client] holds the dialer,
// logger, and compression preference shared by all logins.
// [Client.Login] (and its non-blocking counterpart
// [Client.NonBlockingLogin]) returns a [Session]: a live handle to a
// remote gem on which every other operation is issued. Sessions are
// invalidated by [Session.Logout] or a fatal transport failure;
// operations on a stale handle fail cleanly with
// [CodeInvalidSession] instead of dereferencing anything.
//
// Every remote operation reports its outcome inline as a [*Error]
// carrying a numeric code, message, fatality flag, and category.
// Expected protocol outcomes such as wrong credentials, a stale
// OOP, or a missing suspended process are ordinary non-fatal errors; the
// bridge never tears down a session on its own except for transport
// failures that leave the frame stream unsynchronized.
//
// [Oop] values are immutable 64-bit tagged data: small integers
// encode inline, a handful of reserved singletons ([OopNil],
// [OopIllegal], ...) are compile-time constants, and everything else
// is an opaque reference whose referent lives (and dies) on the
// server. The text codec helpers ([Latin1FromUTF8],
// [NextUTF8Character], ...) are pure functions usable without a
// session.
//
// Concurrency: all operations are synchronous request/response calls
// except the non-blocking login/logout pair, which are caller-driven
// polling state machines. A single Session must be externally
// serialized; distinct Sessions share no mutable state and may be
// used in parallel freely.
package gci
