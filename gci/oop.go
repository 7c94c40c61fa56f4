// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import "fmt"

// Oop is an ordinary object pointer: a 64-bit value identifying a
// server-side object or encoding a small integer inline. OOPs are
// immutable plain data with bitwise equality; the referent's
// lifetime is entirely server-managed, so an Oop held by the client
// may go stale without notice, detectable only through a failed or
// sentinel-valued subsequent operation.
//
// The low three bits are a tag: 0b010 marks an inline small integer
// whose value occupies the upper 61 bits; all-zero marks an indirect
// object pointer; anything else is a reserved special value.
type Oop uint64

// Reserved singleton OOPs.
const (
	// OopIllegal is the "no object / error" sentinel returned where
	// an operation has no meaningful result.
	OopIllegal Oop = 1
	// OopFalse is the false singleton.
	OopFalse Oop = 12
	// OopNil is the nil singleton; also the "global scope" marker
	// for symbol resolution.
	OopNil Oop = 20
	// OopTrue is the true singleton.
	OopTrue Oop = 268
)

const (
	oopTagMask     = 0x7
	oopTagSmallInt = 0x2
	oopTagShift    = 3
)

// Small-integer OOPs hold a 61-bit two's-complement value.
const (
	MinSmallInt int64 = -(1 << 60)
	MaxSmallInt int64 = 1<<60 - 1
)

// OopFromSmallInt encodes value as an inline small-integer OOP. The
// value must be within [MinSmallInt, MaxSmallInt]; use
// Session.IntegerToOop for arbitrary 64-bit values.
func OopFromSmallInt(value int64) (Oop, bool) {
	if value < MinSmallInt || value > MaxSmallInt {
		return OopIllegal, false
	}
	return Oop(uint64(value)<<oopTagShift | oopTagSmallInt), true
}

// IsSmallInt reports whether o encodes an inline small integer.
func (o Oop) IsSmallInt() bool {
	return o&oopTagMask == oopTagSmallInt
}

// SmallInt returns the inline integer value. The second result is
// false when o is not a small-integer OOP.
func (o Oop) SmallInt() (int64, bool) {
	if !o.IsSmallInt() {
		return 0, false
	}
	// Arithmetic shift recovers the sign.
	return int64(o) >> oopTagShift, true
}

// IsPointer reports whether o is an indirect reference to a
// server-resident object.
func (o Oop) IsPointer() bool {
	return o != 0 && o&oopTagMask == 0
}

// IsSpecial reports whether o is one of the reserved singleton
// values (nil, true, false, illegal, and friends).
func (o Oop) IsSpecial() bool {
	return o != 0 && !o.IsSmallInt() && !o.IsPointer()
}

func (o Oop) String() string {
	switch o {
	case OopNil:
		return "nil"
	case OopTrue:
		return "true"
	case OopFalse:
		return "false"
	case OopIllegal:
		return "illegal"
	}
	if value, ok := o.SmallInt(); ok {
		return fmt.Sprintf("%d", value)
	}
	return fmt.Sprintf("oop(%#x)", uint64(o))
}

// oopsToWire converts a slice of OOPs to their wire representation.
func oopsToWire(oops []Oop) []uint64 {
	if oops == nil {
		return nil
	}
	raw := make([]uint64, len(oops))
	for index, oop := range oops {
		raw[index] = uint64(oop)
	}
	return raw
}

// oopsFromWire converts wire values back to OOPs.
func oopsFromWire(raw []uint64) []Oop {
	if raw == nil {
		return nil
	}
	oops := make([]Oop, len(raw))
	for index, value := range raw {
		oops[index] = Oop(value)
	}
	return oops
}
