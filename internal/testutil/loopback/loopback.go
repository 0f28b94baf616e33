// Package loopback provides an in-memory stream for protocol tests: reads
// come from a scripted inbound buffer, writes are captured.
package loopback

import (
	"bytes"
	"io"

	"github.com/danmuck/comando/internal/protocol/frame"
)

type Stream struct {
	in     bytes.Buffer
	writes [][]byte

	// OnWrite runs after every Write, e.g. to queue a reply.
	OnWrite func(s *Stream, p []byte)
}

func New() *Stream {
	return &Stream{}
}

// Read returns io.EOF once the inbound script is exhausted.
func (s *Stream) Read(p []byte) (int, error) {
	if s.in.Len() == 0 {
		return 0, io.EOF
	}
	return s.in.Read(p)
}

func (s *Stream) Write(p []byte) (int, error) {
	s.writes = append(s.writes, append([]byte(nil), p...))
	if s.OnWrite != nil {
		s.OnWrite(s, p)
	}
	return len(p), nil
}

// Feed queues raw inbound bytes.
func (s *Stream) Feed(b []byte) {
	s.in.Write(b)
}

// FeedFrame queues payload as one inbound frame.
func (s *Stream) FeedFrame(payload []byte) error {
	wire, err := frame.Encode(payload)
	if err != nil {
		return err
	}
	s.in.Write(wire)
	return nil
}

// Pending is the number of inbound bytes not read yet.
func (s *Stream) Pending() int {
	return s.in.Len()
}

// Writes returns each Write call's bytes in order.
func (s *Stream) Writes() [][]byte {
	return s.writes
}

// Frames decodes everything written so far as a sequence of frames.
func (s *Stream) Frames() ([][]byte, error) {
	r := bytes.NewReader(bytes.Join(s.writes, nil))
	var out [][]byte
	for r.Len() > 0 {
		payload, err := frame.ReadFrame(r)
		if err != nil {
			return out, err
		}
		out = append(out, payload)
	}
	return out, nil
}
