// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the gci
// command-line tool.
//
// Configuration comes from a single file named by either the
// GEMSTONE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no automatic file search: when
// neither names a file, callers use [Default] directly, so behavior
// stays deterministic and auditable.
//
// The file supports environment-specific sections (development,
// staging, production) that override base values when
// [Config].Environment matches. Variable expansion is performed on
// path fields after loading: ${HOME} and ${VAR:-default} patterns.
package config
