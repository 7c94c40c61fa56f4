// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gcitest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/codec"
)

// objectKind discriminates the simulated object representations.
type objectKind uint8

const (
	kindClass objectKind = iota
	kindString
	kindSymbol
	kindArray
	kindNsc
	kindInteger
)

// object is one entry in the simulated repository.
type object struct {
	kind     objectKind
	class    uint64
	text     string // kindString/kindSymbol contents (UTF-8)
	wide     bool
	slots    []uint64        // kindArray
	members  map[uint64]bool // kindNsc
	intValue int64           // kindInteger
}

// ExtraBits flags reported by GbjInfo when extra info is requested.
const (
	extraByteIndexed    = 0x1
	extraPointerIndexed = 0x2
	extraNsc            = 0x4
)

// seedGlobals populates the well-known classes and globals.
func (s *Server) seedGlobals() {
	for _, name := range []string{
		"String", "Unicode16", "Symbol", "Array", "IdentitySet",
		"SmallInteger", "LargeInteger", "Globals", "UserGlobals",
	} {
		oop := s.allocate(&object{kind: kindClass, text: name})
		s.globals[name] = oop
	}
}

// allocate registers obj and returns its new pointer OOP. Pointer
// OOPs are multiples of 8, leaving the tag bits clear.
func (s *Server) allocate(obj *object) uint64 {
	oop := s.nextOop
	s.nextOop += 8
	s.objects[oop] = obj
	return oop
}

func (s *Server) classOop(name string) uint64 {
	return s.globals[name]
}

// newString creates a string object, choosing the narrow class when
// every code point fits in a byte, unless wide is forced.
func (s *Server) newString(text string, forceWide bool) uint64 {
	wide := forceWide
	if !wide {
		for _, r := range text {
			if r > 0xFF {
				wide = true
				break
			}
		}
	}
	class := s.classOop("String")
	if wide {
		class = s.classOop("Unicode16")
	}
	return s.allocate(&object{kind: kindString, class: class, text: text, wide: wide})
}

// characterCount is the logical size of a string object: characters,
// not encoded bytes.
func (o *object) characterCount() int64 {
	return int64(utf8.RuneCountInString(o.text))
}

// contentBytes is the raw byte representation reported by GbjInfo:
// one byte per character for narrow strings, UTF-8 for wide ones.
func (o *object) contentBytes() []byte {
	if o.kind != kindString && o.kind != kindSymbol {
		return nil
	}
	if !o.wide {
		if latin1, ok := gci.Latin1FromUTF8(o.text); ok {
			return latin1
		}
	}
	return []byte(o.text)
}

func protocolErr(code int, format string, args ...any) *wire.Error {
	return &wire.Error{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Category: string(gci.CategoryProtocol),
	}
}

// dispatch handles one logged-in operation. Called with s.mu held.
func (s *Server) dispatch(request *wire.Request) (any, *wire.Error) {
	switch request.Op {
	case wire.OpAbort, wire.OpBegin, wire.OpCommit:
		// Transaction boundaries always succeed in the simulator.
		return nil, nil

	case wire.OpContinueWith:
		// The simulator never has a suspended computation pending.
		return wire.OopResponse{Oop: uint64(gci.OopIllegal)},
			protocolErr(gci.CodeNoPendingProcess, "no suspended process to continue")

	case wire.OpResolveSymbol:
		var body wire.SymbolRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		oop, ok := s.globals[body.Name]
		if !ok {
			return wire.OopResponse{Oop: uint64(gci.OopIllegal)},
				protocolErr(gci.CodeSymbolNotFound, "symbol %q not found", body.Name)
		}
		return wire.OopResponse{Oop: oop}, nil

	case wire.OpNewString:
		var body wire.NewStringRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		return wire.OopResponse{Oop: s.newString(body.Text, false)}, nil

	case wire.OpNewSymbol:
		var body wire.NewStringRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		oop := s.allocate(&object{kind: kindSymbol, class: s.classOop("Symbol"), text: body.Text})
		return wire.OopResponse{Oop: oop}, nil

	case wire.OpNewUTF16String:
		var body wire.NewUTF16StringRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		text := string(utf16.Decode(body.CodeUnits))
		return wire.OopResponse{Oop: s.newString(text, body.Wide)}, nil

	case wire.OpExecute:
		var body wire.ExecuteRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		return s.evaluate(body.Source)

	case wire.OpPerform:
		var body wire.PerformRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		result, wireErr := s.perform(body.Receiver, body.Selector, body.Args)
		if wireErr != nil {
			return wire.OopResponse{Oop: uint64(gci.OopIllegal)}, wireErr
		}
		return wire.OopResponse{Oop: result}, nil

	case wire.OpPerformFetchOops:
		var body wire.PerformFetchRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		result, wireErr := s.perform(body.Receiver, body.Selector, body.Args)
		if wireErr != nil {
			return nil, wireErr
		}
		slots := s.resultSlots(result)
		if body.MaxResultSize >= 0 && int64(len(slots)) > body.MaxResultSize {
			slots = slots[:body.MaxResultSize]
		}
		return wire.PerformFetchResponse{Count: int64(len(slots)), Oops: slots}, nil

	case wire.OpNscAdd:
		var body wire.NscRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		nsc, wireErr := s.findNsc(body.Nsc)
		if wireErr != nil {
			return nil, wireErr
		}
		for _, member := range body.Oops {
			nsc.members[member] = true
		}
		return nil, nil

	case wire.OpNscRemove:
		var body wire.NscRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		nsc, wireErr := s.findNsc(body.Nsc)
		if wireErr != nil {
			return nil, wireErr
		}
		// Best-effort bulk removal: absent members flip the result
		// flag to 0 but do not stop removal of the present ones.
		result := 1
		for _, member := range body.Oops {
			if !nsc.members[member] {
				result = 0
				continue
			}
			delete(nsc.members, member)
		}
		return wire.NscRemoveResponse{Result: result}, nil

	case wire.OpFetchGbjInfo:
		var body wire.GbjInfoRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		return s.gbjInfo(body)

	case wire.OpFetchUTF8:
		var body wire.FetchUTF8Request
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		obj, ok := s.objects[body.Oop]
		if !ok {
			return nil, protocolErr(gci.CodeObjectNotFound, "object %#x does not exist", body.Oop)
		}
		if obj.kind != kindString && obj.kind != kindSymbol {
			return nil, protocolErr(gci.CodeObjectNotFound, "object %#x has no text contents", body.Oop)
		}
		data := []byte(obj.text)
		if body.MaxBytes >= 0 && int64(len(data)) > body.MaxBytes {
			data = data[:body.MaxBytes]
		}
		return wire.FetchUTF8Response{Data: data}, nil

	case wire.OpIntegerToOop:
		var body wire.IntegerRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		oop := s.allocate(&object{kind: kindInteger, class: s.classOop("LargeInteger"), intValue: body.Value})
		return wire.OopResponse{Oop: oop}, nil

	case wire.OpOopToInteger:
		var body wire.IntegerRequest
		if err := codec.Unmarshal(request.Body, &body); err != nil {
			return nil, protocolErr(gci.CodeProtocolFailure, "undecodable body: %v", err)
		}
		obj, ok := s.objects[body.Oop]
		if !ok {
			return nil, protocolErr(gci.CodeObjectNotFound, "object %#x does not exist", body.Oop)
		}
		if obj.kind != kindInteger {
			return nil, protocolErr(gci.CodeNotAnInteger, "object %#x is not an integer", body.Oop)
		}
		return wire.IntegerResponse{Value: obj.intValue}, nil
	}

	return nil, protocolErr(gci.CodeProtocolFailure, "unknown operation %d", request.Op)
}

// findNsc resolves an OOP that must name a named-set-collection.
func (s *Server) findNsc(oop uint64) (*object, *wire.Error) {
	obj, ok := s.objects[oop]
	if !ok {
		return nil, protocolErr(gci.CodeObjectNotFound, "object %#x does not exist", oop)
	}
	if obj.kind != kindNsc {
		return nil, protocolErr(gci.CodeObjectNotFound, "object %#x is not a named-set-collection", oop)
	}
	return obj, nil
}

// resultSlots returns the indexed slots of a perform result, empty
// for non-indexed objects.
func (s *Server) resultSlots(oop uint64) []uint64 {
	obj, ok := s.objects[oop]
	if !ok || obj.kind != kindArray {
		return nil
	}
	slots := make([]uint64, len(obj.slots))
	copy(slots, obj.slots)
	return slots
}

// evaluate runs the literal-only expression subset the simulator
// understands: integers, 'single-quoted strings', nil, true, false.
func (s *Server) evaluate(source string) (any, *wire.Error) {
	trimmed := strings.TrimSpace(source)
	switch trimmed {
	case "nil":
		return wire.OopResponse{Oop: uint64(gci.OopNil)}, nil
	case "true":
		return wire.OopResponse{Oop: uint64(gci.OopTrue)}, nil
	case "false":
		return wire.OopResponse{Oop: uint64(gci.OopFalse)}, nil
	}

	if value, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		if oop, ok := gci.OopFromSmallInt(value); ok {
			return wire.OopResponse{Oop: uint64(oop)}, nil
		}
		oop := s.allocate(&object{kind: kindInteger, class: s.classOop("LargeInteger"), intValue: value})
		return wire.OopResponse{Oop: oop}, nil
	}

	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		inner := strings.ReplaceAll(trimmed[1:len(trimmed)-1], "''", "'")
		return wire.OopResponse{Oop: s.newString(inner, false)}, nil
	}

	return wire.OopResponse{Oop: uint64(gci.OopIllegal)},
		protocolErr(gci.CodeCompileError, "cannot compile %q", trimmed)
}
