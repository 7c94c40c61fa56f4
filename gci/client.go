// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package gci

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/jgfoster/vscode-gemstone-sub002/internal/wire"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/codec"
	"github.com/jgfoster/vscode-gemstone-sub002/lib/secret"
)

// Dialer opens the transport connection to a gem. The gem locator is
// passed through verbatim; the bridge performs no parsing or
// validation of locator strings.
type Dialer interface {
	DialContext(ctx context.Context, address string) (net.Conn, error)
}

// TCPDialer is the default Dialer. It treats the gem locator as a
// TCP "host:port" address.
type TCPDialer struct {
	// Timeout is the maximum time to wait for the connection to be
	// established. Zero means only the context deadline applies.
	Timeout time.Duration
}

// DialContext opens a TCP connection to the given address.
func (d *TCPDialer) DialContext(ctx context.Context, address string) (net.Conn, error) {
	return (&net.Dialer{Timeout: d.Timeout}).DialContext(ctx, "tcp", address)
}

// Compression selects the wire payload codec requested at login.
// The gem may decline; the login response settles the choice.
type Compression uint8

const (
	CompressionNone Compression = Compression(wire.CompressionNone)
	CompressionLZ4  Compression = Compression(wire.CompressionLZ4)
	CompressionZstd Compression = Compression(wire.CompressionZstd)
)

func (c Compression) String() string {
	return wire.CompressionTag(c).String()
}

// ParseCompression parses a compression name ("none", "lz4", "zstd").
func ParseCompression(name string) (Compression, error) {
	tag, err := wire.ParseCompressionTag(name)
	return Compression(tag), err
}

// LoginFlags is the bitfield of login options.
type LoginFlags uint32

const (
	// LoginPasswordEncrypted declares that the submitted password
	// has already been passed through EncryptPassword. The flag must
	// match the submitted form exactly: an encrypted value without
	// the flag, or a plaintext value with it, is an authentication
	// failure.
	LoginPasswordEncrypted LoginFlags = 1 << 0
	// LoginFullCompression asks the gem to compress bulk payloads
	// with the client's preferred codec.
	LoginFullCompression LoginFlags = 1 << 2
	// LoginQuiet suppresses the gem's login banner output.
	LoginQuiet LoginFlags = 1 << 3
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Dialer opens gem connections. If nil, a TCPDialer is used.
	Dialer Dialer
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
	// Compression is the preferred payload codec, requested when a
	// login carries LoginFullCompression.
	Compression Compression
	// LoginTimeout bounds blocking logins whose context carries no
	// deadline and whose request has no explicit timeout. Zero
	// means no client-side bound.
	LoginTimeout time.Duration
}

// Client creates GCI sessions. A Client holds no connection state of
// its own; each successful login yields an independent Session with
// its own transport. Sessions from one Client may be used
// concurrently with each other.
type Client struct {
	dialer       Dialer
	logger       *slog.Logger
	compression  wire.CompressionTag
	loginTimeout time.Duration
}

// NewClient creates a Client.
func NewClient(config ClientConfig) *Client {
	dialer := config.Dialer
	if dialer == nil {
		dialer = &TCPDialer{}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		dialer:       dialer,
		logger:       logger,
		compression:  wire.CompressionTag(config.Compression),
		loginTimeout: config.LoginTimeout,
	}
}

// LoginRequest holds the parameters for a login. Locator strings are
// opaque pass-through tokens identifying the coordinating stone and
// the gem execution endpoint.
type LoginRequest struct {
	StoneLocator string
	GemLocator   string
	User         string
	// Password is read but not closed; the caller retains
	// ownership of the buffer.
	Password *secret.Buffer
	Flags    LoginFlags
	// Timeout is forwarded to the gem; expiry is reported as an
	// ordinary login error, not a distinct cancellation signal.
	// Zero means the gem's default.
	Timeout time.Duration
}

// Login authenticates with the gem named by the request's locators
// and returns a live Session. The Session is nil exactly when the
// error is non-nil: authentication and connectivity failures are
// ordinary non-fatal errors, never a partially usable handle.
func (c *Client) Login(ctx context.Context, request LoginRequest) (*Session, error) {
	return c.login(ctx, request, "")
}

// LoginWithDirectoryName is Login with an explicit
// network-location-directory name, for locators that do not embed
// one. Behaviorally identical otherwise.
func (c *Client) LoginWithDirectoryName(ctx context.Context, request LoginRequest, directory string) (*Session, error) {
	return c.login(ctx, request, directory)
}

func (c *Client) login(ctx context.Context, request LoginRequest, directory string) (*Session, error) {
	conn, err := c.dialLogin(ctx, request, directory)
	if err != nil {
		return nil, err
	}

	deadline, ok := ctx.Deadline()
	if !ok && c.loginTimeout > 0 {
		deadline = time.Now().Add(c.loginTimeout)
		ok = true
	}
	if ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, fmt.Errorf("gci: setting login deadline: %w", networkError("deadline", err))
		}
	}

	payload, err := wire.ReadFrame(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("gci: login failed: %w", networkError("reading login response", err))
	}

	session, err := c.finishLogin(conn, payload)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if ok {
		if err := conn.SetDeadline(time.Time{}); err != nil {
			session.closed.Store(true)
			conn.Close()
			return nil, fmt.Errorf("gci: clearing login deadline: %w", networkError("deadline", err))
		}
	}
	return session, nil
}

// dialLogin opens the transport and writes the login request frame.
// Shared by the blocking and non-blocking login paths.
func (c *Client) dialLogin(ctx context.Context, request LoginRequest, directory string) (net.Conn, error) {
	if request.User == "" {
		return nil, fmt.Errorf("gci: user is required for login")
	}
	if request.Password == nil {
		return nil, fmt.Errorf("gci: password is required for login")
	}

	conn, err := c.dialer.DialContext(ctx, request.GemLocator)
	if err != nil {
		return nil, fmt.Errorf("gci: login failed: %w", networkError("dialing gem", err))
	}

	compressionName := ""
	if request.Flags&LoginFullCompression != 0 && c.compression != wire.CompressionNone {
		compressionName = c.compression.String()
	}

	// Password is converted to string at the serialization boundary;
	// the heap copy is short-lived.
	body := wire.LoginRequest{
		Stone:       request.StoneLocator,
		Gem:         request.GemLocator,
		Directory:   directory,
		User:        request.User,
		Password:    request.Password.String(),
		Flags:       uint32(request.Flags),
		TimeoutMs:   int32(request.Timeout / time.Millisecond),
		Compression: compressionName,
	}

	payload, err := wire.EncodeRequest(wire.OpLogin, 0, body)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("gci: encoding login request: %w", err)
	}
	// The login exchange is always uncompressed: the codec is not
	// negotiated yet.
	if err := wire.WriteFrame(conn, payload, wire.CompressionNone); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gci: login failed: %w", networkError("writing login request", err))
	}
	return conn, nil
}

// finishLogin decodes a login response payload into a live Session.
// The caller owns conn on error.
func (c *Client) finishLogin(conn net.Conn, payload []byte) (*Session, error) {
	var response wire.Response
	if err := codec.Unmarshal(payload, &response); err != nil {
		return nil, fmt.Errorf("gci: login failed: %w", protocolError("decoding login response", err))
	}
	if response.Err != nil {
		return nil, fmt.Errorf("gci: login failed: %w", fromWire(response.Err))
	}

	var loginResponse wire.LoginResponse
	if err := codec.Unmarshal(response.Body, &loginResponse); err != nil {
		return nil, fmt.Errorf("gci: login failed: %w", protocolError("decoding login body", err))
	}

	accepted, err := wire.ParseCompressionTag(loginResponse.Compression)
	if err != nil {
		return nil, fmt.Errorf("gci: login failed: %w", protocolError("negotiating compression", err))
	}

	session := &Session{
		client:              c,
		conn:                conn,
		id:                  loginResponse.Session,
		executedSessionInit: loginResponse.ExecutedSessionInit,
		compression:         accepted,
	}

	c.logger.Info("logged in to gem",
		"session", session.id,
		"compression", accepted.String(),
	)
	return session, nil
}
