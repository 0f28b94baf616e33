package command

import (
	"fmt"

	"github.com/danmuck/comando/internal/protocol/codec"
)

// Cursor is the read position inside one command's argument bytes.
type Cursor struct {
	buf []byte
	off int
}

func (c *Cursor) Reset(buf []byte) {
	c.buf = buf
	c.off = 0
}

func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Read decodes the next value as t and advances past it. A failed read does
// not move the cursor.
func (c *Cursor) Read(t codec.Type) (any, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %s", codec.ErrUnknownType, t)
	}
	if c.Remaining() <= 0 {
		return nil, fmt.Errorf("%w: reading %s", ErrNoMoreArguments, t)
	}
	n, v, err := codec.Unpack(t, c.buf[c.off:])
	if err != nil {
		return nil, err
	}
	c.off += n
	return v, nil
}
