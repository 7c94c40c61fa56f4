// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	type body struct {
		Name  string   `cbor:"name"`
		Oops  []uint64 `cbor:"oops,omitempty"`
		Count int64    `cbor:"count"`
	}

	original := body{Name: "UserGlobals", Oops: []uint64{20, 1, 0x1234560}, Count: -7}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded body
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Name != original.Name || decoded.Count != original.Count {
		t.Errorf("round trip mismatch: got %+v, want %+v", decoded, original)
	}
	if len(decoded.Oops) != 3 || decoded.Oops[2] != 0x1234560 {
		t.Errorf("oop slice mismatch: %v", decoded.Oops)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]any{"zebra": 1, "alpha": 2, "mike": 3}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding produced different bytes:\n%x\n%x", first, second)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{"known": "value", "unknown": 42})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded struct {
		Known string `cbor:"known"`
	}
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal with unknown field failed: %v", err)
	}
	if decoded.Known != "value" {
		t.Errorf("known field not decoded: %q", decoded.Known)
	}
}
