package roi

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
)

// header2Size is the length of the extended header written by current
// versions of the format. Older writers stop after the image size field, so
// only the first header2MinSize bytes are required.
const (
	header2Size    = 64
	header2MinSize = h2ImageSize + 4
)

// Offsets within the extended header, relative to its start.
const (
	h2Channel        = 4
	h2Slice          = 8
	h2Frame          = 12
	h2NameOffset     = 16
	h2NameLength     = 20
	h2LabelColor     = 24
	h2FontSize       = 28
	h2Group          = 30
	h2Opacity        = 31
	h2ImageSize      = 32
	h2FloatStroke    = 36
	h2PropsOffset    = 40
	h2PropsLength    = 44
	h2CountersOffset = 48
)

// Extended holds the optional fields of the extended header. The zero value
// means no extended header was present.
type Extended struct {
	Present     bool
	Channel     int
	Slice       int
	Frame       int
	Name        string
	LabelColor  Color
	FontSize    int
	Group       int
	Opacity     int
	ImageSize   int
	StrokeWidth float32
	Properties  string
	Counters    []Counter
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// readExtended reads the extended header addressed by h.ExtOffset. Problems
// with it never fail the record: the affected fields are left out and a note
// describing the problem is returned instead.
func readExtended(data []byte, h Header, kind Kind) (Extended, []string) {
	var ext Extended
	if h.ExtOffset == 0 || h.Version < versionStrokeColor {
		return ext, nil
	}
	if h.ExtOffset < HeaderSize || h.ExtOffset+header2MinSize > len(data) {
		return ext, []string{fmt.Sprintf("%v: extended header at %d, buffer is %d bytes", ErrCorruptOffset, h.ExtOffset, len(data))}
	}

	c := newCursor(data)
	// has reports whether the field at rel is inside the buffer. Fields past
	// header2MinSize are missing from short extended headers.
	has := func(rel, width int) bool {
		return h.ExtOffset+rel+width <= len(data)
	}
	at := func(rel int) *cursor {
		_ = c.Seek(h.ExtOffset + rel)
		return c
	}
	word := func(rel int) int {
		v, _ := at(rel).Int32()
		return int(v)
	}

	// The fixed fields up to the image size were bounds checked above.
	ext.Present = true
	ext.Channel = word(h2Channel)
	ext.Slice = word(h2Slice)
	ext.Frame = word(h2Frame)
	labelColor, _ := at(h2LabelColor).Uint32()
	ext.LabelColor = Color(labelColor)
	fontSize, _ := at(h2FontSize).Int16()
	ext.FontSize = int(fontSize)
	opacity, _ := at(h2Opacity).Uint8()
	ext.Opacity = int(opacity)
	ext.ImageSize = word(h2ImageSize)
	if h.Version >= versionGroup {
		group, _ := at(h2Group).Uint8()
		ext.Group = int(group)
	}
	if h.Version >= versionFloatStrokeSize && has(h2FloatStroke, 4) {
		ext.StrokeWidth, _ = at(h2FloatStroke).Float32()
	}

	var notes []string
	name, err := readUTF16(c, word(h2NameOffset), word(h2NameLength))
	if err != nil {
		notes = append(notes, fmt.Sprintf("name: %v", err))
	}
	ext.Name = name

	if h.Version >= versionCounters && has(h2PropsLength, 4) {
		props, err := readUTF16(c, word(h2PropsOffset), word(h2PropsLength))
		if err != nil {
			notes = append(notes, fmt.Sprintf("properties: %v", err))
		}
		ext.Properties = props
	}
	if h.Version >= versionCounters && kind == KindPoint && has(h2CountersOffset, 4) {
		counters, err := readCounters(c, word(h2CountersOffset), h.N)
		if err != nil {
			notes = append(notes, fmt.Sprintf("counters: %v", err))
		}
		ext.Counters = counters
	}
	return ext, notes
}

// readUTF16 reads length UTF-16BE code units at an absolute offset. A zero
// offset or length means the string is absent.
func readUTF16(c *cursor, offset, length int) (string, error) {
	if offset <= 0 || length <= 0 {
		return "", nil
	}
	if offset+2*length > len(c.data) || offset+2*length < offset {
		return "", fmt.Errorf("%w: %d characters at %d", ErrCorruptOffset, length, offset)
	}
	_ = c.Seek(offset)
	raw, _ := c.Bytes(2 * length)
	s, err := utf16BE.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

// readCounters reads one packed counter word per point: the low byte is the
// counter index and the remaining bits the stack slice.
func readCounters(c *cursor, offset, n int) ([]Counter, error) {
	if offset <= 0 || n == 0 {
		return nil, nil
	}
	if offset+4*n > len(c.data) {
		return nil, fmt.Errorf("%w: %d counters at %d", ErrCorruptOffset, n, offset)
	}
	_ = c.Seek(offset)
	counters := make([]Counter, n)
	for i := range counters {
		v, _ := c.Uint32()
		counters[i] = Counter{Counter: int(v & 0xff), Slice: int(v >> 8)}
	}
	return counters, nil
}
