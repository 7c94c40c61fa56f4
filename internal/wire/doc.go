// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package wire implements the framed request/response protocol spoken
// between the GCI bridge and a gem. Each direction carries a stream of
// frames; a frame is a fixed header (payload length, compression tag,
// uncompressed length, blake3-64 checksum) followed by one CBOR-encoded
// message body.
//
// The package is shared by the client bridge (package gci) and the
// in-memory test server (package gci/gcitest). It is deliberately
// untyped with respect to the object model: OOPs travel as uint64 and
// flags as plain integers. The typed surface lives in package gci.
package wire
