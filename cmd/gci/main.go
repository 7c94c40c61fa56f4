// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// The gci command is a terminal client for GemStone object servers.
// It logs in to a gem, evaluates Smalltalk expressions, and manages
// stored login profiles with sealed passwords.
package main

import (
	"fmt"
	"os"

	"github.com/jgfoster/vscode-gemstone-sub002/lib/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("gci %s\n", version.Full())
		return
	}
	if err := rootCommand().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
