// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gcitest

import (
	"strings"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
)

// selectorArity computes the expected argument count from the
// selector's shape: one argument per colon for keyword selectors,
// one for binary selectors, zero for unary.
func selectorArity(selector string) int {
	if colons := strings.Count(selector, ":"); colons > 0 {
		return colons
	}
	if selector != "" && !isLetter(selector[0]) {
		return 1
	}
	return 0
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// perform dispatches a selector on a receiver. Called with s.mu
// held.
func (s *Server) perform(receiver uint64, selector string, args []uint64) (uint64, *wire.Error) {
	if expected := selectorArity(selector); len(args) != expected {
		return 0, protocolErr(gci.CodeWrongArity,
			"selector %q expects %d arguments, got %d", selector, expected, len(args))
	}

	if selector == "yourself" {
		return receiver, nil
	}

	receiverOop := gci.Oop(receiver)
	if !receiverOop.IsPointer() {
		return 0, protocolErr(gci.CodeDoesNotUnderstand,
			"%v does not understand %q", receiverOop, selector)
	}

	obj, ok := s.objects[receiver]
	if !ok {
		return 0, protocolErr(gci.CodeObjectNotFound, "object %#x does not exist", receiver)
	}

	switch selector {
	case "size":
		return s.performSize(obj)

	case "new":
		return s.performNew(obj, 0)

	case "new:":
		count, wireErr := smallIntArg(args[0])
		if wireErr != nil {
			return 0, wireErr
		}
		return s.performNew(obj, count)

	case "at:":
		index, wireErr := smallIntArg(args[0])
		if wireErr != nil {
			return 0, wireErr
		}
		if obj.kind != kindArray {
			break
		}
		if index < 1 || index > int64(len(obj.slots)) {
			return 0, protocolErr(gci.CodeIndexOutOfRange,
				"index %d out of range for size %d", index, len(obj.slots))
		}
		return obj.slots[index-1], nil

	case "at:put:":
		index, wireErr := smallIntArg(args[0])
		if wireErr != nil {
			return 0, wireErr
		}
		if obj.kind != kindArray {
			break
		}
		if index < 1 || index > int64(len(obj.slots)) {
			return 0, protocolErr(gci.CodeIndexOutOfRange,
				"index %d out of range for size %d", index, len(obj.slots))
		}
		obj.slots[index-1] = args[1]
		return args[1], nil

	case "add:":
		if obj.kind != kindNsc {
			break
		}
		obj.members[args[0]] = true
		return args[0], nil

	case "remove:":
		if obj.kind != kindNsc {
			break
		}
		if !obj.members[args[0]] {
			return 0, protocolErr(gci.CodeObjectNotFound, "element not found in collection")
		}
		delete(obj.members, args[0])
		return args[0], nil
	}

	return 0, protocolErr(gci.CodeDoesNotUnderstand,
		"object %#x does not understand %q", receiver, selector)
}

func (s *Server) performSize(obj *object) (uint64, *wire.Error) {
	var size int64
	switch obj.kind {
	case kindString, kindSymbol:
		size = obj.characterCount()
	case kindArray:
		size = int64(len(obj.slots))
	case kindNsc:
		size = int64(len(obj.members))
	default:
		size = 0
	}
	oop, _ := gci.OopFromSmallInt(size)
	return uint64(oop), nil
}

// performNew instantiates a class object. count is the indexed size
// for "new:" (zero for "new").
func (s *Server) performNew(obj *object, count int64) (uint64, *wire.Error) {
	if obj.kind != kindClass {
		return 0, protocolErr(gci.CodeDoesNotUnderstand, "%q is not instantiable", obj.text)
	}
	if count < 0 {
		return 0, protocolErr(gci.CodeIndexOutOfRange, "negative size %d", count)
	}
	switch obj.text {
	case "Array":
		slots := make([]uint64, count)
		for index := range slots {
			slots[index] = uint64(gci.OopNil)
		}
		return s.allocate(&object{kind: kindArray, class: s.classOop("Array"), slots: slots}), nil
	case "IdentitySet":
		return s.allocate(&object{
			kind:    kindNsc,
			class:   s.classOop("IdentitySet"),
			members: make(map[uint64]bool),
		}), nil
	case "String":
		return s.newString("", false), nil
	}
	return 0, protocolErr(gci.CodeDoesNotUnderstand, "class %q is not instantiable here", obj.text)
}

func smallIntArg(raw uint64) (int64, *wire.Error) {
	value, ok := gci.Oop(raw).SmallInt()
	if !ok {
		return 0, protocolErr(gci.CodeNotAnInteger, "argument %v is not an integer", gci.Oop(raw))
	}
	return value, nil
}

// gbjInfo builds the introspection response for an OOP. Called with
// s.mu held.
func (s *Server) gbjInfo(request wire.GbjInfoRequest) (any, *wire.Error) {
	oop := gci.Oop(request.Oop)

	if value, ok := oop.SmallInt(); ok {
		return wire.GbjInfoResponse{
			Status:   gci.GbjStatusOK,
			ObjClass: s.classOop("SmallInteger"),
			RawBits:  uint64(value),
		}, nil
	}
	if !oop.IsPointer() {
		return wire.GbjInfoResponse{Status: gci.GbjStatusOK}, nil
	}

	obj, ok := s.objects[request.Oop]
	if !ok {
		// Stale OOP: the sentinel status travels with the error so
		// the caller sees both.
		return wire.GbjInfoResponse{Status: gci.GbjStatusMissing},
			protocolErr(gci.CodeObjectNotFound, "object %#x does not exist", request.Oop)
	}

	response := wire.GbjInfoResponse{
		Status:   gci.GbjStatusOK,
		ObjClass: obj.class,
	}

	switch obj.kind {
	case kindString, kindSymbol:
		response.ObjSize = obj.characterCount()
		response.Data = obj.contentBytes()
	case kindArray:
		response.ObjSize = int64(len(obj.slots))
	case kindNsc:
		response.ObjSize = int64(len(obj.members))
	case kindInteger:
		response.ObjSize = 8
	case kindClass:
		response.ObjSize = 0
	}

	if request.WantExtra {
		var extra uint32
		switch obj.kind {
		case kindString, kindSymbol, kindInteger:
			extra |= extraByteIndexed
		case kindArray:
			extra |= extraPointerIndexed
		case kindNsc:
			extra |= extraNsc
		}
		response.ExtraBits = extra
		response.RawBits = uint64(obj.kind)<<8 | uint64(extra)
	}

	if request.MaxDataBytes >= 0 && int64(len(response.Data)) > request.MaxDataBytes {
		response.Data = response.Data[:request.MaxDataBytes]
	}
	return response, nil
}
