// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

// PromptPassword reads a password into protected memory. On a
// terminal it disables echo; otherwise it reads a single line from
// stdin, which lets scripts pipe a password in. The prompt itself
// goes to stderr so stdout stays clean for command output.
func PromptPassword(prompt string) (*secret.Buffer, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, prompt)
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("empty password")
		}
		// NewFromBytes zeroes raw after copying it into locked memory.
		return secret.NewFromBytes(raw)
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return nil, fmt.Errorf("reading password from stdin: %w", err)
	}
	trimmed := strings.TrimRight(line, "\r\n")
	if trimmed == "" {
		return nil, fmt.Errorf("empty password")
	}
	return secret.NewFromBytes([]byte(trimmed))
}
