// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci_test

import (
	"context"
	"testing"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
)

func TestResolveSymbol(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.ResolveSymbol(ctx, "Array", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(Array): %v", err)
	}
	if !oop.IsPointer() {
		t.Fatalf("ResolveSymbol(Array) = %v, want a pointer OOP", oop)
	}

	// Resolving twice yields the same object.
	again, err := session.ResolveSymbol(ctx, "Array", gci.OopNil)
	if err != nil {
		t.Fatalf("second ResolveSymbol(Array): %v", err)
	}
	if again != oop {
		t.Errorf("ResolveSymbol(Array) = %v then %v, want identical", oop, again)
	}
}

func TestResolveSymbol_NotFound(t *testing.T) {
	session := newSession(t)

	oop, err := session.ResolveSymbol(context.Background(), "NoSuchGlobal", gci.OopNil)
	requireGciError(t, err, gci.CodeSymbolNotFound)
	if oop != gci.OopIllegal {
		t.Errorf("result = %v, want OopIllegal", oop)
	}
}

func TestNewString_FetchRoundTrip(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	text, err := session.FetchUTF8(ctx, oop, 1024)
	if err != nil {
		t.Fatalf("FetchUTF8: %v", err)
	}
	if text != "hello" {
		t.Fatalf("FetchUTF8 = %q, want %q", text, "hello")
	}
}

func TestFetchUTF8_Truncation(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello world")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	text, err := session.FetchUTF8(ctx, oop, 5)
	if err != nil {
		t.Fatalf("FetchUTF8 with cap: %v", err)
	}
	if text != "hello" {
		t.Fatalf("truncated fetch = %q, want %q", text, "hello")
	}
}

func TestNewSymbol(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewSymbol(ctx, "at:put:")
	if err != nil {
		t.Fatalf("NewSymbol: %v", err)
	}
	size, err := session.Perform(ctx, oop, "size", nil)
	if err != nil {
		t.Fatalf("size of symbol: %v", err)
	}
	if size != smallIntOop(t, 7) {
		t.Fatalf("symbol size = %v, want 7", size)
	}
}

func TestExecute_Literals(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	tests := []struct {
		source string
		want   gci.Oop
	}{
		{"nil", gci.OopNil},
		{"true", gci.OopTrue},
		{"false", gci.OopFalse},
		{"42", smallIntOop(t, 42)},
		{"-17", smallIntOop(t, -17)},
	}
	for _, test := range tests {
		got, err := session.Execute(ctx, test.source, gci.OopNil)
		if err != nil {
			t.Errorf("Execute(%q): %v", test.source, err)
			continue
		}
		if got != test.want {
			t.Errorf("Execute(%q) = %v, want %v", test.source, got, test.want)
		}
	}
}

func TestExecute_StringLiteral(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.Execute(ctx, "'it''s quoted'", gci.OopNil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	text, err := session.FetchUTF8(ctx, oop, 1024)
	if err != nil {
		t.Fatalf("FetchUTF8: %v", err)
	}
	if text != "it's quoted" {
		t.Fatalf("executed string = %q, want %q", text, "it's quoted")
	}
}

func TestExecute_CompileError(t *testing.T) {
	session := newSession(t)

	oop, err := session.Execute(context.Background(), "this is not code", gci.OopNil)
	requireGciError(t, err, gci.CodeCompileError)
	if oop != gci.OopIllegal {
		t.Errorf("result = %v, want OopIllegal", oop)
	}
}

func TestPerform_Size(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	size, err := session.Perform(ctx, oop, "size", nil)
	if err != nil {
		t.Fatalf("Perform(size): %v", err)
	}
	if size != smallIntOop(t, 5) {
		t.Fatalf("size = %v, want 5", size)
	}
}

func TestPerform_ArrayAtPut(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	classArray, err := session.ResolveSymbol(ctx, "Array", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(Array): %v", err)
	}
	array, err := session.Perform(ctx, classArray, "new:", []gci.Oop{smallIntOop(t, 3)})
	if err != nil {
		t.Fatalf("Array new: 3: %v", err)
	}

	stored, err := session.Perform(ctx, array, "at:put:",
		[]gci.Oop{smallIntOop(t, 2), smallIntOop(t, 99)})
	if err != nil {
		t.Fatalf("at:put:: %v", err)
	}
	if stored != smallIntOop(t, 99) {
		t.Fatalf("at:put: returned %v, want the stored value", stored)
	}

	fetched, err := session.Perform(ctx, array, "at:", []gci.Oop{smallIntOop(t, 2)})
	if err != nil {
		t.Fatalf("at:: %v", err)
	}
	if fetched != smallIntOop(t, 99) {
		t.Fatalf("at: 2 = %v, want 99", fetched)
	}

	// Unwritten slots read back as nil.
	first, err := session.Perform(ctx, array, "at:", []gci.Oop{smallIntOop(t, 1)})
	if err != nil {
		t.Fatalf("at: 1: %v", err)
	}
	if first != gci.OopNil {
		t.Fatalf("at: 1 = %v, want nil", first)
	}
}

func TestPerform_IndexOutOfRange(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	classArray, err := session.ResolveSymbol(ctx, "Array", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(Array): %v", err)
	}
	array, err := session.Perform(ctx, classArray, "new:", []gci.Oop{smallIntOop(t, 2)})
	if err != nil {
		t.Fatalf("Array new: 2: %v", err)
	}

	_, err = session.Perform(ctx, array, "at:", []gci.Oop{smallIntOop(t, 0)})
	requireGciError(t, err, gci.CodeIndexOutOfRange)
	_, err = session.Perform(ctx, array, "at:", []gci.Oop{smallIntOop(t, 3)})
	requireGciError(t, err, gci.CodeIndexOutOfRange)
}

func TestPerform_WrongArity(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}

	// Keyword selector with no arguments.
	_, err = session.Perform(ctx, oop, "at:", nil)
	requireGciError(t, err, gci.CodeWrongArity)

	// Unary selector with a stray argument.
	_, err = session.Perform(ctx, oop, "size", []gci.Oop{smallIntOop(t, 1)})
	requireGciError(t, err, gci.CodeWrongArity)
}

func TestPerform_DoesNotUnderstand(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}
	result, err := session.Perform(ctx, oop, "frobnicate", nil)
	requireGciError(t, err, gci.CodeDoesNotUnderstand)
	if result != gci.OopIllegal {
		t.Errorf("result = %v, want OopIllegal", result)
	}

	// The session survives a dispatch failure.
	if _, err := session.Perform(ctx, oop, "yourself", nil); err != nil {
		t.Fatalf("perform after DNU: %v", err)
	}
}

func TestPerform_Yourself(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	got, err := session.Perform(ctx, smallIntOop(t, 7), "yourself", nil)
	if err != nil {
		t.Fatalf("yourself on a small integer: %v", err)
	}
	if got != smallIntOop(t, 7) {
		t.Fatalf("yourself = %v, want the receiver", got)
	}
}

func newTestArray(t *testing.T, session *gci.Session, values []int64) gci.Oop {
	t.Helper()
	ctx := context.Background()
	classArray, err := session.ResolveSymbol(ctx, "Array", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(Array): %v", err)
	}
	array, err := session.Perform(ctx, classArray, "new:",
		[]gci.Oop{smallIntOop(t, int64(len(values)))})
	if err != nil {
		t.Fatalf("Array new:: %v", err)
	}
	for index, value := range values {
		_, err := session.Perform(ctx, array, "at:put:",
			[]gci.Oop{smallIntOop(t, int64(index+1)), smallIntOop(t, value)})
		if err != nil {
			t.Fatalf("at:put: slot %d: %v", index+1, err)
		}
	}
	return array
}

func TestPerformFetchOops(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	array := newTestArray(t, session, []int64{10, 20, 30, 40, 50})

	count, oops, err := session.PerformFetchOops(ctx, array, "yourself", nil, 100)
	if err != nil {
		t.Fatalf("PerformFetchOops: %v", err)
	}
	if count != 5 || len(oops) != 5 {
		t.Fatalf("count = %d, len = %d, want 5 and 5", count, len(oops))
	}
	for index, value := range []int64{10, 20, 30, 40, 50} {
		if oops[index] != smallIntOop(t, value) {
			t.Errorf("slot %d = %v, want %d", index+1, oops[index], value)
		}
	}
}

func TestPerformFetchOops_Truncation(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	array := newTestArray(t, session, []int64{10, 20, 30, 40, 50})

	// The count reflects the slots actually returned, not the
	// object's true size; FetchGbjInfo reports the latter.
	count, oops, err := session.PerformFetchOops(ctx, array, "yourself", nil, 3)
	if err != nil {
		t.Fatalf("PerformFetchOops: %v", err)
	}
	if count != 3 || len(oops) != 3 {
		t.Fatalf("count = %d, len = %d, want 3 and 3", count, len(oops))
	}
	if oops[2] != smallIntOop(t, 30) {
		t.Errorf("slot 3 = %v, want 30", oops[2])
	}

	status, info, _, err := session.FetchGbjInfo(ctx, array, false, 0)
	if err != nil {
		t.Fatalf("FetchGbjInfo: %v", err)
	}
	if status != gci.GbjStatusOK || info.ObjSize != 5 {
		t.Fatalf("status = %d, ObjSize = %d, want OK and 5", status, info.ObjSize)
	}
}

func TestNsc_AddRemove(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	classSet, err := session.ResolveSymbol(ctx, "IdentitySet", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(IdentitySet): %v", err)
	}
	nsc, err := session.Perform(ctx, classSet, "new", nil)
	if err != nil {
		t.Fatalf("IdentitySet new: %v", err)
	}

	members := []gci.Oop{smallIntOop(t, 1), smallIntOop(t, 2), smallIntOop(t, 3)}
	if err := session.AddOopsToNsc(ctx, nsc, members); err != nil {
		t.Fatalf("AddOopsToNsc: %v", err)
	}
	size, err := session.Perform(ctx, nsc, "size", nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != smallIntOop(t, 3) {
		t.Fatalf("size after add = %v, want 3", size)
	}

	result, err := session.RemoveOopsFromNsc(ctx, nsc, members[:2])
	if err != nil {
		t.Fatalf("RemoveOopsFromNsc: %v", err)
	}
	if result != 1 {
		t.Fatalf("removing present members = %d, want 1", result)
	}

	// Removing a mix of present and absent members still removes the
	// present ones, but flags incompleteness.
	result, err = session.RemoveOopsFromNsc(ctx, nsc, members)
	if err != nil {
		t.Fatalf("second RemoveOopsFromNsc: %v", err)
	}
	if result != 0 {
		t.Fatalf("removing absent members = %d, want 0", result)
	}
	size, err = session.Perform(ctx, nsc, "size", nil)
	if err != nil {
		t.Fatalf("final size: %v", err)
	}
	if size != smallIntOop(t, 0) {
		t.Fatalf("size after removals = %v, want 0", size)
	}
}

func TestNsc_AddDuplicates(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	classSet, err := session.ResolveSymbol(ctx, "IdentitySet", gci.OopNil)
	if err != nil {
		t.Fatalf("ResolveSymbol(IdentitySet): %v", err)
	}
	nsc, err := session.Perform(ctx, classSet, "new", nil)
	if err != nil {
		t.Fatalf("IdentitySet new: %v", err)
	}

	member := smallIntOop(t, 7)
	if err := session.AddOopsToNsc(ctx, nsc, []gci.Oop{member, member}); err != nil {
		t.Fatalf("AddOopsToNsc: %v", err)
	}
	size, err := session.Perform(ctx, nsc, "size", nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if size != smallIntOop(t, 1) {
		t.Fatalf("set size after duplicate add = %v, want 1", size)
	}
}

func TestFetchGbjInfo_String(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}

	status, info, data, err := session.FetchGbjInfo(ctx, oop, false, 1024)
	if err != nil {
		t.Fatalf("FetchGbjInfo: %v", err)
	}
	if status != gci.GbjStatusOK {
		t.Fatalf("status = %d, want %d", status, gci.GbjStatusOK)
	}
	if !info.ObjClass.IsPointer() {
		t.Errorf("ObjClass = %v, want a pointer OOP", info.ObjClass)
	}
	if info.ObjSize != 5 {
		t.Errorf("ObjSize = %d, want 5", info.ObjSize)
	}
	if string(data) != "hello" {
		t.Errorf("data = %q, want %q", data, "hello")
	}
	if info.BytesReturned != int64(len(data)) {
		t.Errorf("BytesReturned = %d, want %d", info.BytesReturned, len(data))
	}
}

func TestFetchGbjInfo_DataTruncation(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()

	oop, err := session.NewString(ctx, "hello world")
	if err != nil {
		t.Fatalf("NewString: %v", err)
	}

	// Truncation to the caller's cap is successful, clamped behavior:
	// ObjSize still reports the logical size.
	status, info, data, err := session.FetchGbjInfo(ctx, oop, false, 5)
	if err != nil {
		t.Fatalf("FetchGbjInfo with cap: %v", err)
	}
	if status != gci.GbjStatusOK {
		t.Fatalf("status = %d, want %d", status, gci.GbjStatusOK)
	}
	if info.ObjSize != 11 {
		t.Errorf("ObjSize = %d, want 11", info.ObjSize)
	}
	if info.BytesReturned != 5 || string(data) != "hello" {
		t.Errorf("BytesReturned = %d, data = %q; want 5 and %q", info.BytesReturned, data, "hello")
	}
}

func TestFetchGbjInfo_MissingObject(t *testing.T) {
	session := newSession(t)

	// A well-formed pointer OOP that was never allocated.
	stale := gci.Oop(0xDEAD0)
	status, _, _, err := session.FetchGbjInfo(context.Background(), stale, false, 0)
	requireGciError(t, err, gci.CodeObjectNotFound)
	if status != gci.GbjStatusMissing {
		t.Fatalf("status = %d, want %d", status, gci.GbjStatusMissing)
	}
}

func TestFetchGbjInfo_SmallInt(t *testing.T) {
	session := newSession(t)

	status, info, _, err := session.FetchGbjInfo(context.Background(), smallIntOop(t, 99), false, 0)
	if err != nil {
		t.Fatalf("FetchGbjInfo on a small integer: %v", err)
	}
	if status != gci.GbjStatusOK {
		t.Fatalf("status = %d, want %d", status, gci.GbjStatusOK)
	}
	if !info.ObjClass.IsPointer() {
		t.Errorf("ObjClass = %v, want the integer class", info.ObjClass)
	}
}

func TestFetchGbjInfo_ExtraBits(t *testing.T) {
	session := newSession(t)
	ctx := context.Background()
	array := newTestArray(t, session, []int64{1})

	_, plain, _, err := session.FetchGbjInfo(ctx, array, false, 0)
	if err != nil {
		t.Fatalf("FetchGbjInfo without extra: %v", err)
	}
	if plain.ExtraBits != 0 {
		t.Errorf("ExtraBits without request = %#x, want 0", plain.ExtraBits)
	}

	_, extra, _, err := session.FetchGbjInfo(ctx, array, true, 0)
	if err != nil {
		t.Fatalf("FetchGbjInfo with extra: %v", err)
	}
	if extra.ExtraBits == 0 {
		t.Error("ExtraBits requested but zero")
	}
}
