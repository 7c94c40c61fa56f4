// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret holds sensitive data, primarily gem login passwords,
// in memory that the Go runtime cannot copy or leak.
//
// [Buffer] allocates its backing store outside the Go heap via
// mmap(MAP_ANONYMOUS), locks it into physical RAM via mlock so it
// never reaches swap, and excludes it from core dumps via
// madvise(MADV_DONTDUMP). Close zeroes, unlocks, and unmaps the
// region; after Close every access panics. Because the memory is
// invisible to the garbage collector, a closed Buffer leaves no stray
// copies behind.
//
// Construct with [New] (zero-filled) or [NewFromBytes] (copies and
// zeroes the source). [ReadFromPath] reads a password from a file or
// from stdin.
package secret
