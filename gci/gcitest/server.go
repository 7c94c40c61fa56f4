// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gcitest

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/jgfoster/vscode-gemstone-sub002/gci"
	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/codec"
)

// Config holds configuration for starting a test gem.
type Config struct {
	// Accounts maps user names to plaintext passwords. Logins verify
	// against the plaintext or, when the login carries the
	// password-encrypted flag, against its EncryptPassword form.
	Accounts map[string]string

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger

	// LoginGate, when non-nil, delays every login response until the
	// channel is closed (or receives). Tests of the non-blocking
	// login poll use it to observe the pending state.
	LoginGate <-chan struct{}
}

// Server is an in-memory gem. It accepts any number of concurrent
// connections, one session each.
type Server struct {
	listener net.Listener
	logger   *slog.Logger
	config   Config

	mu          sync.Mutex
	objects     map[uint64]*object
	globals     map[string]uint64
	nextOop     uint64
	nextSession int64

	wg      sync.WaitGroup
	closing chan struct{}
}

// Start launches a test gem on a random loopback port.
func Start(config Config) (*Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("gcitest: listening: %w", err)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	server := &Server{
		listener: listener,
		logger:   logger,
		config:   config,
		objects:  make(map[uint64]*object),
		globals:  make(map[string]uint64),
		nextOop:  0x1000,
		closing:  make(chan struct{}),
	}
	server.seedGlobals()

	server.wg.Add(1)
	go server.acceptLoop()
	return server, nil
}

// Addr returns the server's "host:port" address, used as the opaque
// gem locator in login requests.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Close stops the listener and waits for connection handlers to
// finish.
func (s *Server) Close() {
	close(s.closing)
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closing:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Error("accept failed", "error", err)
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.serveConn(conn)
		}()
	}
}

// connState is the per-connection session state. The wire protocol
// is single-threaded per connection, so no locking is needed here.
type connState struct {
	loggedIn    bool
	sessionID   int64
	compression wire.CompressionTag
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	state := &connState{}
	for {
		payload, err := wire.ReadFrame(conn)
		if err != nil {
			return
		}

		var request wire.Request
		if err := codec.Unmarshal(payload, &request); err != nil {
			s.logger.Error("undecodable request envelope", "error", err)
			return
		}

		// The login response itself is always uncompressed; the
		// negotiated tag applies from the next frame on.
		tag := state.compression
		responsePayload, err := s.handle(state, &request)
		if err != nil {
			s.logger.Error("encoding response", "error", err)
			return
		}
		if err := wire.WriteFrame(conn, responsePayload, tag); err != nil {
			return
		}
	}
}

// handle dispatches one request and returns the encoded response
// payload.
func (s *Server) handle(state *connState, request *wire.Request) ([]byte, error) {
	if request.Op == wire.OpLogin {
		return s.handleLogin(state, request)
	}

	if !state.loggedIn || request.Session != state.sessionID {
		return wire.EncodeResponse(nil, &wire.Error{
			Code:     gci.CodeInvalidSession,
			Message:  "not logged in",
			Category: string(gci.CategoryProtocol),
		})
	}

	if request.Op == wire.OpLogout {
		state.loggedIn = false
		return wire.EncodeResponse(nil, nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	body, wireErr := s.dispatch(request)
	return wire.EncodeResponse(body, wireErr)
}

func (s *Server) handleLogin(state *connState, request *wire.Request) ([]byte, error) {
	var login wire.LoginRequest
	if err := codec.Unmarshal(request.Body, &login); err != nil {
		return wire.EncodeResponse(nil, &wire.Error{
			Code:     gci.CodeProtocolFailure,
			Message:  "undecodable login body",
			Fatal:    true,
			Category: string(gci.CategoryProtocol),
		})
	}

	if s.config.LoginGate != nil {
		<-s.config.LoginGate
	}

	stored, ok := s.config.Accounts[login.User]
	expected := stored
	if login.Flags&uint32(gci.LoginPasswordEncrypted) != 0 {
		expected = gci.EncryptPassword(stored)
	}
	if !ok || login.Password != expected {
		return wire.EncodeResponse(nil, &wire.Error{
			Code:     gci.CodeBadCredentials,
			Message:  fmt.Sprintf("authentication failed for user %q", login.User),
			Category: string(gci.CategoryAuth),
		})
	}

	compression := wire.CompressionNone
	if login.Flags&uint32(gci.LoginFullCompression) != 0 && login.Compression != "" {
		tag, err := wire.ParseCompressionTag(login.Compression)
		if err == nil {
			compression = tag
		}
	}

	s.mu.Lock()
	s.nextSession++
	sessionID := s.nextSession
	s.mu.Unlock()

	state.loggedIn = true
	state.sessionID = sessionID
	state.compression = compression

	s.logger.Info("test gem login",
		"user", login.User,
		"session", sessionID,
		"stone", login.Stone,
		"compression", compression.String(),
	)

	return wire.EncodeResponse(wire.LoginResponse{
		Session:             sessionID,
		ExecutedSessionInit: true,
		Compression:         compression.String(),
	}, nil)
}
