// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"context"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
)

// GbjInfo is the introspection record for a server object.
type GbjInfo struct {
	// ObjClass is the object's class.
	ObjClass Oop
	// ObjSize is the logical element or byte count of the object,
	// regardless of how much data was returned.
	ObjSize int64
	// ExtraBits carries the implementation bitfield returned when
	// extra info was requested.
	ExtraBits uint32
	// BytesReturned is the number of valid bytes in the data buffer
	// accompanying the record. Always at most the caller's cap: it
	// reflects the truncated length, never the logical size.
	BytesReturned int64
	// RawBits exposes the raw header bits for diagnostic use.
	RawBits uint64
}

// FetchGbjInfo status results.
const (
	// GbjStatusOK: class and size are populated.
	GbjStatusOK = 0
	// GbjStatusFailed: generic failure.
	GbjStatusFailed = -1
	// GbjStatusMissing: the referenced object does not exist on the
	// server (stale OOP).
	GbjStatusMissing = -2
)

// ResolveSymbol resolves name to the OOP of a server-defined symbol
// (for example a class). A scope of OopNil means global lookup.
func (s *Session) ResolveSymbol(ctx context.Context, name string, scope Oop) (Oop, error) {
	wireScope := uint64(scope)
	if scope == OopNil {
		wireScope = 0
	}
	var response wire.OopResponse
	err := s.call(ctx, wire.OpResolveSymbol, wire.SymbolRequest{Name: name, Scope: wireScope}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// NewString creates a server string object holding text.
func (s *Session) NewString(ctx context.Context, text string) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpNewString, wire.NewStringRequest{Text: text}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// NewSymbol creates (or interns) a server symbol holding text.
func (s *Session) NewSymbol(ctx context.Context, text string) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpNewSymbol, wire.NewStringRequest{Text: text}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// Execute compiles and runs source in the given receiver context
// (OopNil for none). When the error is non-zero the result OOP must
// not be trusted as a valid reference.
func (s *Session) Execute(ctx context.Context, source string, contextObject Oop) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpExecute, wire.ExecuteRequest{
		Source:  source,
		Context: uint64(contextObject),
	}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// Perform dispatches selector on receiver with positional arguments.
// The argument count must match the selector's arity; a mismatch is
// a non-zero error, never a silent drop.
func (s *Session) Perform(ctx context.Context, receiver Oop, selector string, args []Oop) (Oop, error) {
	var response wire.OopResponse
	err := s.call(ctx, wire.OpPerform, wire.PerformRequest{
		Receiver: uint64(receiver),
		Selector: selector,
		Args:     oopsToWire(args),
	}, &response)
	if err != nil {
		return OopIllegal, err
	}
	return Oop(response.Oop), nil
}

// PerformFetchOops dispatches selector like Perform and additionally
// retrieves up to maxResultSize instance-variable/indexed slots of
// the result object, in slot order. When the result has more slots
// than maxResultSize only the first maxResultSize are returned and
// the count reflects the number actually returned, not the object's
// true slot count, which callers can obtain via FetchGbjInfo.
func (s *Session) PerformFetchOops(ctx context.Context, receiver Oop, selector string, args []Oop, maxResultSize int64) (int64, []Oop, error) {
	var response wire.PerformFetchResponse
	err := s.call(ctx, wire.OpPerformFetchOops, wire.PerformFetchRequest{
		Receiver:      uint64(receiver),
		Selector:      selector,
		Args:          oopsToWire(args),
		MaxResultSize: maxResultSize,
	}, &response)
	if err != nil {
		return 0, nil, err
	}
	return response.Count, oopsFromWire(response.Oops), nil
}

// AddOopsToNsc adds oops to a server-side named-set-collection.
func (s *Session) AddOopsToNsc(ctx context.Context, nsc Oop, oops []Oop) error {
	return s.call(ctx, wire.OpNscAdd, wire.NscRequest{
		Nsc:  uint64(nsc),
		Oops: oopsToWire(oops),
	}, nil)
}

// RemoveOopsFromNsc removes oops from a named-set-collection. The
// result is 1 when every given OOP was present and removed, 0 when
// at least one was absent (the present ones are still removed; the
// flag reports completeness, not a partial count).
func (s *Session) RemoveOopsFromNsc(ctx context.Context, nsc Oop, oops []Oop) (int, error) {
	var response wire.NscRemoveResponse
	err := s.call(ctx, wire.OpNscRemove, wire.NscRequest{
		Nsc:  uint64(nsc),
		Oops: oopsToWire(oops),
	}, &response)
	if err != nil {
		return 0, err
	}
	return response.Result, nil
}

// FetchGbjInfo retrieves the introspection record for oop along with
// up to maxDataBytes of its raw contents. The status result follows
// the GbjStatus constants; truncation to maxDataBytes is successful,
// clamped behavior, never an error, and BytesReturned always
// reflects the clamp.
func (s *Session) FetchGbjInfo(ctx context.Context, oop Oop, wantExtraInfo bool, maxDataBytes int64) (int, GbjInfo, []byte, error) {
	var response wire.GbjInfoResponse
	err := s.call(ctx, wire.OpFetchGbjInfo, wire.GbjInfoRequest{
		Oop:          uint64(oop),
		WantExtra:    wantExtraInfo,
		MaxDataBytes: maxDataBytes,
	}, &response)

	info := GbjInfo{
		ObjClass:      Oop(response.ObjClass),
		ObjSize:       response.ObjSize,
		ExtraBits:     response.ExtraBits,
		BytesReturned: int64(len(response.Data)),
		RawBits:       response.RawBits,
	}
	if err != nil {
		status := response.Status
		if status >= 0 {
			status = GbjStatusFailed
		}
		return status, info, nil, err
	}
	return response.Status, info, response.Data, nil
}
