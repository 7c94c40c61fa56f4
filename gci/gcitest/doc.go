// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

// Package gcitest provides an in-memory gem speaking the GCI wire
// protocol over a real TCP listener, for testing code that uses
// package gci without a GemStone installation.
//
// The server holds an account table, a seeded set of well-known
// globals (String, Unicode16, Symbol, Array, IdentitySet, ...), an
// object table, a literal-only expression evaluator, and a small
// selector table with Smalltalk colon-count arity checking. Use
// [Server.Addr] as the gem locator:
//
//	server, _ := gcitest.Start(gcitest.Config{
//	    Accounts: map[string]string{"DataCurator": "swordfish"},
//	})
//	defer server.Close()
//	client := gci.NewClient(gci.ClientConfig{})
//	session, err := client.Login(ctx, gci.LoginRequest{
//	    GemLocator: server.Addr(), User: "DataCurator", Password: password,
//	})
package gcitest
