// Package frame delimits payloads on a byte stream:
//
//	len(1) | payload(len) | checksum(1)
//
// The checksum is the byte sum of the payload mod 256.
package frame

import (
	"errors"
	"fmt"
	"io"
)

// MaxPayloadLen is the largest payload a 1-byte length prefix can carry.
const MaxPayloadLen = 255

var (
	ErrPayloadTooLarge  = errors.New("frame: payload too large")
	ErrShortRead        = errors.New("frame: short read")
	ErrChecksumMismatch = errors.New("frame: checksum mismatch")
)

// Checksum is the byte sum of b modulo 256.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// Encode builds the wire form [len][payload][checksum].
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	buf := make([]byte, 0, len(payload)+2)
	buf = append(buf, byte(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, Checksum(payload))
	return buf, nil
}

// WriteFrame writes payload as one frame with a single Write call.
func WriteFrame(w io.Writer, payload []byte) error {
	buf, err := Encode(payload)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// ReadFrame blocks until one complete frame has been read from r and
// returns its payload.
func ReadFrame(r io.Reader) ([]byte, error) {
	var b [1]byte
	if err := readFull(r, b[:], "length"); err != nil {
		return nil, err
	}

	payload := make([]byte, int(b[0]))
	if len(payload) > 0 {
		if err := readFull(r, payload, "payload"); err != nil {
			return nil, err
		}
	}

	if err := readFull(r, b[:], "checksum"); err != nil {
		return nil, err
	}
	if want := Checksum(payload); b[0] != want {
		return nil, fmt.Errorf("%w: got=%#02x want=%#02x", ErrChecksumMismatch, b[0], want)
	}
	return payload, nil
}

func readFull(r io.Reader, buf []byte, part string) error {
	n, err := io.ReadFull(r, buf)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s %d/%d bytes", ErrShortRead, part, n, len(buf))
	}
	return fmt.Errorf("frame: read %s: %w", part, err)
}
