// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"github.com/jgfoster/vscode-gemstone-sub002/lib/codec"
)

// Op identifies a GCI operation in a request envelope. Values are
// protocol constants.
type Op uint8

const (
	OpLogin Op = iota + 1
	OpLogout
	OpAbort
	OpBegin
	OpCommit
	OpContinueWith
	OpResolveSymbol
	OpNewString
	OpNewSymbol
	OpNewUTF16String
	OpExecute
	OpPerform
	OpPerformFetchOops
	OpNscAdd
	OpNscRemove
	OpFetchGbjInfo
	OpFetchUTF8
	OpIntegerToOop
	OpOopToInteger
)

// Request is the envelope for every client-to-gem message. Session
// is zero only for OpLogin. The operation-specific body is encoded
// separately so the envelope can be decoded before the body type is
// known.
type Request struct {
	Op      Op               `cbor:"op"`
	Session int64            `cbor:"session,omitempty"`
	Body    codec.RawMessage `cbor:"body,omitempty"`
}

// Response is the envelope for every gem-to-client message. A nil
// Err means the operation succeeded; the body is operation-specific
// and may be empty.
type Response struct {
	Body codec.RawMessage `cbor:"body,omitempty"`
	Err  *Error           `cbor:"error,omitempty"`
}

// Error is the wire form of a GCI error. Code zero is never sent;
// success is the absence of an Error.
type Error struct {
	Code     int    `cbor:"code"`
	Message  string `cbor:"message"`
	Fatal    bool   `cbor:"fatal,omitempty"`
	Category string `cbor:"category,omitempty"`
}

// LoginRequest carries both locator strings verbatim: the bridge
// performs no parsing or validation of them.
type LoginRequest struct {
	Stone       string `cbor:"stone"`
	Gem         string `cbor:"gem"`
	Directory   string `cbor:"directory,omitempty"`
	User        string `cbor:"user"`
	Password    string `cbor:"password"`
	Flags       uint32 `cbor:"flags,omitempty"`
	TimeoutMs   int32  `cbor:"timeout_ms,omitempty"`
	Compression string `cbor:"compression,omitempty"`
}

// LoginResponse reports the new session and the compression tag the
// gem accepted (empty means none).
type LoginResponse struct {
	Session             int64  `cbor:"session"`
	ExecutedSessionInit bool   `cbor:"executed_session_init,omitempty"`
	Compression         string `cbor:"compression,omitempty"`
}

// SymbolRequest resolves a name in a scope; scope zero-OOP semantics
// are defined by the caller (nil scope means global lookup).
type SymbolRequest struct {
	Name  string `cbor:"name"`
	Scope uint64 `cbor:"scope,omitempty"`
}

// OopResponse is the common single-OOP result body.
type OopResponse struct {
	Oop uint64 `cbor:"oop"`
}

// NewStringRequest creates a server string object from UTF-8 text.
type NewStringRequest struct {
	Text string `cbor:"text"`
}

// NewUTF16StringRequest creates a server string object from UTF-16
// code units. Wide forces the wide (Unicode) class regardless of
// content.
type NewUTF16StringRequest struct {
	CodeUnits []uint16 `cbor:"code_units"`
	Wide      bool     `cbor:"wide,omitempty"`
}

// ExecuteRequest compiles and runs source in the given receiver
// context.
type ExecuteRequest struct {
	Source  string `cbor:"source"`
	Context uint64 `cbor:"context,omitempty"`
}

// PerformRequest dispatches selector on a receiver with positional
// arguments.
type PerformRequest struct {
	Receiver uint64   `cbor:"receiver"`
	Selector string   `cbor:"selector"`
	Args     []uint64 `cbor:"args,omitempty"`
}

// PerformFetchRequest is PerformRequest plus a cap on how many of
// the result object's slots to return.
type PerformFetchRequest struct {
	Receiver      uint64   `cbor:"receiver"`
	Selector      string   `cbor:"selector"`
	Args          []uint64 `cbor:"args,omitempty"`
	MaxResultSize int64    `cbor:"max_result_size"`
}

// PerformFetchResponse returns the clamped slot count and the slots
// themselves, in slot order.
type PerformFetchResponse struct {
	Count int64    `cbor:"count"`
	Oops  []uint64 `cbor:"oops,omitempty"`
}

// NscRequest is a bulk membership mutation on a named-set-collection.
type NscRequest struct {
	Nsc  uint64   `cbor:"nsc"`
	Oops []uint64 `cbor:"oops"`
}

// NscRemoveResponse: Result is 1 when every given OOP was present and
// removed, 0 when at least one was absent.
type NscRemoveResponse struct {
	Result int `cbor:"result"`
}

// GbjInfoRequest asks for the introspection record of an object, and
// up to MaxDataBytes of its raw contents.
type GbjInfoRequest struct {
	Oop          uint64 `cbor:"oop"`
	WantExtra    bool   `cbor:"want_extra,omitempty"`
	MaxDataBytes int64  `cbor:"max_data_bytes"`
}

// GbjInfoResponse carries the introspection record. Status follows
// the GCI convention: non-negative success, -1 generic failure, -2
// object does not exist. Data is already truncated to the request's
// MaxDataBytes.
type GbjInfoResponse struct {
	Status    int    `cbor:"status"`
	ObjClass  uint64 `cbor:"obj_class,omitempty"`
	ObjSize   int64  `cbor:"obj_size,omitempty"`
	ExtraBits uint32 `cbor:"extra_bits,omitempty"`
	RawBits   uint64 `cbor:"raw_bits,omitempty"`
	Data      []byte `cbor:"data,omitempty"`
}

// FetchUTF8Request reads at most MaxBytes raw bytes of an object's
// UTF-8 contents.
type FetchUTF8Request struct {
	Oop      uint64 `cbor:"oop"`
	MaxBytes int64  `cbor:"max_bytes"`
}

// FetchUTF8Response carries raw UTF-8 bytes, truncated server-side.
type FetchUTF8Response struct {
	Data []byte `cbor:"data,omitempty"`
}

// ContinueWithRequest resumes a suspended remote computation.
type ContinueWithRequest struct {
	Process uint64 `cbor:"process"`
	Data    uint64 `cbor:"data,omitempty"`
	Bytes   []byte `cbor:"bytes,omitempty"`
	Flags   int32  `cbor:"flags,omitempty"`
}

// IntegerRequest allocates a server integer object for a value that
// does not fit an inline small-integer OOP, or asks for the value of
// an integer-valued OOP.
type IntegerRequest struct {
	Value int64  `cbor:"value,omitempty"`
	Oop   uint64 `cbor:"oop,omitempty"`
}

// IntegerResponse is the value of an integer-valued OOP.
type IntegerResponse struct {
	Value int64 `cbor:"value"`
}

// EncodeRequest marshals a request envelope around an operation body.
func EncodeRequest(op Op, session int64, body any) ([]byte, error) {
	var raw codec.RawMessage
	if body != nil {
		encoded, err := codec.Marshal(body)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return codec.Marshal(Request{Op: op, Session: session, Body: raw})
}

// EncodeResponse marshals a response envelope around an operation
// body and optional error.
func EncodeResponse(body any, wireErr *Error) ([]byte, error) {
	var raw codec.RawMessage
	if body != nil {
		encoded, err := codec.Marshal(body)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}
	return codec.Marshal(Response{Body: raw, Err: wireErr})
}
