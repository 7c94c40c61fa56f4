// Copyright 2026 The vscode-gemstone Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/zeebo/blake3"
)

// Frame header layout, big-endian:
//
//	u32  payload length (on the wire, after compression)
//	u8   compression tag
//	u32  uncompressed payload length
//	u64  blake3-64 checksum of the on-wire payload
const HeaderSize = 4 + 1 + 4 + 8

// MaxPayloadSize bounds a single frame payload. Larger values in a
// header mean the stream is unsynchronized, not that a genuine
// payload is that large. GCI transfers are caller-capped well below
// this.
const MaxPayloadSize = 1 << 26

// checksum64 returns the first eight bytes of the blake3 digest of
// data as a big-endian integer.
func checksum64(data []byte) uint64 {
	digest := blake3.Sum256(data)
	return binary.BigEndian.Uint64(digest[:8])
}

// WriteFrame frames payload and writes it to w. When tag is not
// CompressionNone and the payload is at least CompressThreshold
// bytes, the payload is compressed; incompressible payloads fall
// back to an uncompressed frame.
func WriteFrame(w io.Writer, payload []byte, tag CompressionTag) error {
	if len(payload) > MaxPayloadSize {
		return fmt.Errorf("wire: payload is %d bytes, limit %d", len(payload), MaxPayloadSize)
	}

	uncompressedSize := len(payload)
	onWire := payload
	if tag != CompressionNone && len(payload) >= CompressThreshold {
		compressed, err := compress(payload, tag)
		switch {
		case err == nil:
			onWire = compressed
		case errors.Is(err, errIncompressible):
			tag = CompressionNone
		default:
			return err
		}
	} else {
		tag = CompressionNone
	}

	header := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(header[0:4], uint32(len(onWire)))
	header[4] = byte(tag)
	binary.BigEndian.PutUint32(header[5:9], uint32(uncompressedSize))
	binary.BigEndian.PutUint64(header[9:17], checksum64(onWire))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("wire: writing frame header: %w", err)
	}
	if _, err := w.Write(onWire); err != nil {
		return fmt.Errorf("wire: writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one frame from r, verifies its checksum, and
// returns the decompressed payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	payloadSize, tag, uncompressedSize, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	onWire := make([]byte, payloadSize)
	if _, err := io.ReadFull(r, onWire); err != nil {
		return nil, fmt.Errorf("wire: reading frame payload: %w", err)
	}

	return finishFrame(header, onWire, tag, uncompressedSize)
}

// parseHeader validates a frame header and returns its fields.
func parseHeader(header []byte) (payloadSize int, tag CompressionTag, uncompressedSize int, err error) {
	payloadSize = int(binary.BigEndian.Uint32(header[0:4]))
	tag = CompressionTag(header[4])
	uncompressedSize = int(binary.BigEndian.Uint32(header[5:9]))
	if payloadSize > MaxPayloadSize || uncompressedSize > MaxPayloadSize {
		return 0, 0, 0, fmt.Errorf("wire: frame of %d bytes (uncompressed %d) exceeds limit %d",
			payloadSize, uncompressedSize, MaxPayloadSize)
	}
	return payloadSize, tag, uncompressedSize, nil
}

// finishFrame verifies the checksum and decompresses the payload.
func finishFrame(header, onWire []byte, tag CompressionTag, uncompressedSize int) ([]byte, error) {
	expected := binary.BigEndian.Uint64(header[9:17])
	if actual := checksum64(onWire); actual != expected {
		return nil, fmt.Errorf("wire: frame checksum mismatch: got %016x, want %016x", actual, expected)
	}
	return decompress(onWire, tag, uncompressedSize)
}

// Accumulator assembles a frame from bounded reads. It exists for
// the non-blocking login poll: each Poll call drains whatever bytes
// the connection has ready and returns the payload once a complete
// frame has arrived.
type Accumulator struct {
	buf []byte
}

// pollReadWindow bounds a single Poll read. An already-expired
// deadline would make Read fail before the syscall, never delivering
// kernel-buffered bytes, so the window must be small but positive.
const pollReadWindow = time.Millisecond

// Poll performs one bounded read pass on conn. It returns
// (payload, true, nil) when a complete frame has been assembled,
// (nil, false, nil) when more bytes are needed, and a non-nil error
// when the connection failed or the frame is corrupt. The read
// deadline is left set; callers that switch back to blocking reads
// must clear it.
func (a *Accumulator) Poll(conn net.Conn) ([]byte, bool, error) {
	if payload, done, err := a.tryDecode(); done || err != nil {
		return payload, done, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(pollReadWindow)); err != nil {
		return nil, false, fmt.Errorf("wire: setting poll deadline: %w", err)
	}

	scratch := make([]byte, 4096)
	n, err := conn.Read(scratch)
	if n > 0 {
		a.buf = append(a.buf, scratch[:n]...)
	}
	if err != nil {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			return nil, false, err
		}
		// Timeout with no pending bytes: frame not ready yet.
	}

	return a.tryDecode()
}

// tryDecode attempts to decode a complete frame from the buffered
// bytes, consuming them on success.
func (a *Accumulator) tryDecode() ([]byte, bool, error) {
	if len(a.buf) < HeaderSize {
		return nil, false, nil
	}

	payloadSize, tag, uncompressedSize, err := parseHeader(a.buf[:HeaderSize])
	if err != nil {
		return nil, false, err
	}
	if len(a.buf) < HeaderSize+payloadSize {
		return nil, false, nil
	}

	header := a.buf[:HeaderSize]
	onWire := a.buf[HeaderSize : HeaderSize+payloadSize]
	payload, err := finishFrame(header, onWire, tag, uncompressedSize)
	if err != nil {
		return nil, false, err
	}
	a.buf = a.buf[HeaderSize+payloadSize:]
	return payload, true, nil
}
