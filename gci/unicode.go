// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"context"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
)

// UnicodeKind selects the server string class created from UTF-16
// input.
type UnicodeKind int

const (
	// UnicodeKindNarrow creates a narrow (byte-per-character) String
	// when the content allows it.
	UnicodeKindNarrow UnicodeKind = 0
	// UnicodeKindWide forces the wide Unicode class regardless of
	// content. Two calls with identical characters but different
	// kinds produce objects of different server classes.
	UnicodeKindWide UnicodeKind = 1
)

// Latin1FromUTF8 converts UTF-8 text to the 8-bit byte-per-character
// encoding. The conversion succeeds iff every decoded code point is
// in 0–255; on failure the returned slice must not be used.
func Latin1FromUTF8(text string) ([]byte, bool) {
	result, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, false
	}
	return result, true
}

// Latin1ToUTF8 converts 8-bit text back to UTF-8. Every byte value
// is a valid Latin-1 character, so this cannot fail.
func Latin1ToUTF8(data []byte) string {
	result, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// Latin-1 decoding is total over byte values.
		return string(data)
	}
	return string(result)
}

// NextUTF8Character decodes the leading character of text, returning
// its encoded byte length (1–4) and code point. An empty input
// returns (0, utf8.RuneError); a malformed leading sequence returns
// (1, utf8.RuneError).
func NextUTF8Character(text string) (size int, codePoint rune) {
	codePoint, size = utf8.DecodeRuneInString(text)
	return size, codePoint
}

// NewStringFromUTF16 creates a server string object from UTF-16 code
// units. kind controls the server class: see UnicodeKind.
func (s *Session) NewStringFromUTF16(ctx context.Context, codeUnits []uint16, kind UnicodeKind) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpNewUTF16String, wire.NewUTF16StringRequest{
		CodeUnits: codeUnits,
		Wide:      kind == UnicodeKindWide,
	}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// FetchUTF8 reads at most maxBytes raw bytes of the object's UTF-8
// contents and decodes them. Size maxBytes generously: truncation in
// the middle of a multi-byte character is server-defined and not
// corrected here.
func (s *Session) FetchUTF8(ctx context.Context, oop Oop, maxBytes int64) (string, error) {
	var response wire.FetchUTF8Response
	err := s.call(ctx, wire.OpFetchUTF8, wire.FetchUTF8Request{
		Oop:      uint64(oop),
		MaxBytes: maxBytes,
	}, &response)
	if err != nil {
		return "", err
	}
	return string(response.Data), nil
}
