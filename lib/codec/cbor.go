// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the CBOR encoding used for GCI wire message
// bodies. Encoding is Core Deterministic (RFC 8949 §4.2): the same
// logical request always produces identical bytes, which keeps frame
// checksums stable and wire traces diffable.
package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding: sorted map keys, smallest integer encoding, no
// indefinite-length items.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored so that older clients can talk
// to newer servers and vice versa.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// Message bodies never use non-string map keys. When the
		// decoder's target is any (diagnostic dumps of unknown
		// bodies), it must pick a concrete Go map type; the CBOR
		// default map[interface{}]interface{} is unusable by most
		// Go code, so force map[string]any. Struct field decoding
		// is unaffected.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v to CBOR using Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// RawMessage is a raw encoded CBOR value. Request and response
// envelopes carry their operation-specific bodies as RawMessage so
// that the envelope can be decoded before the body type is known.
type RawMessage = cbor.RawMessage

// Diagnose returns the CBOR diagnostic notation (RFC 8949 §8) for
// data. Used by wire-level debug logging.
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}
