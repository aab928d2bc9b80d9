package roi

import (
	"encoding/binary"
	"fmt"
	"math"
)

// cursor is a big-endian sequential reader over an in-memory ROI buffer.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

// take returns the next width bytes and advances past them.
func (c *cursor) take(width int) ([]byte, error) {
	if width < 0 || c.pos+width > len(c.data) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedData, width, c.pos, len(c.data)-c.pos)
	}
	b := c.data[c.pos : c.pos+width]
	c.pos += width
	return b, nil
}

func (c *cursor) Uint8() (uint8, error) {
	b, err := c.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *cursor) Uint16() (uint16, error) {
	b, err := c.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (c *cursor) Int16() (int16, error) {
	v, err := c.Uint16()
	return int16(v), err
}

func (c *cursor) Uint32() (uint32, error) {
	b, err := c.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (c *cursor) Int32() (int32, error) {
	v, err := c.Uint32()
	return int32(v), err
}

func (c *cursor) Float32() (float32, error) {
	v, err := c.Uint32()
	return math.Float32frombits(v), err
}

// Bytes returns the next n bytes without copying.
func (c *cursor) Bytes(n int) ([]byte, error) {
	return c.take(n)
}

// Seek moves the read position to an absolute offset. Seeking to len(data)
// is allowed; any read from there fails.
func (c *cursor) Seek(offset int) error {
	if offset < 0 || offset > len(c.data) {
		return fmt.Errorf("%w: seek to %d beyond %d bytes", ErrTruncatedData, offset, len(c.data))
	}
	c.pos = offset
	return nil
}

// Remaining reports how many bytes are left after the read position.
func (c *cursor) Remaining() int {
	return len(c.data) - c.pos
}

// Pos returns the current read position.
func (c *cursor) Pos() int {
	return c.pos
}

func float32FromBytes(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
