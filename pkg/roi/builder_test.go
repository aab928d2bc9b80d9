package roi

import (
	"encoding/binary"
	"math"
	"unicode/utf16"
)

// recordBuilder assembles ROI byte buffers for tests.
type recordBuilder struct {
	version     uint16
	typeCode    uint8
	top, left   int16
	bottom      int16
	right       int16
	n           int // overrides len(xs) when set
	x1, y1      float32
	x2, y2      float32
	strokeWidth int16
	shapeSize   int32
	strokeColor uint32
	fillColor   uint32
	subtype     uint16
	options     uint16
	arrowStyle  uint8
	arrowHead   uint8
	aspect      float32 // written over bytes 52..55 when non-zero
	arcSize     int16
	position    int32
	extOffset   int32 // forces the header-2 offset when ext is nil

	xs, ys     []int16
	subX, subY []float32
	floats     []float32 // composite path data or angle values

	ext *extBuilder
}

type extBuilder struct {
	channel, slice, frame int32
	name                  string
	labelColor            uint32
	fontSize              int16
	group                 uint8
	opacity               uint8
	strokeWidth           float32
	props                 string
	counters              []uint32
	nameOffset            int32 // forces the name offset when non-zero
}

func newRecord(typeCode uint8) *recordBuilder {
	return &recordBuilder{version: 228, typeCode: typeCode}
}

func (b *recordBuilder) box(top, left, bottom, right int16) *recordBuilder {
	b.top, b.left, b.bottom, b.right = top, left, bottom, right
	return b
}

func (b *recordBuilder) points(xs, ys []int16) *recordBuilder {
	b.xs, b.ys = xs, ys
	return b
}

func (b *recordBuilder) bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf, Magic)
	be := binary.BigEndian
	n := b.n
	if n == 0 {
		n = len(b.xs)
	}
	be.PutUint16(buf[4:], b.version)
	buf[6] = b.typeCode
	be.PutUint16(buf[8:], uint16(b.top))
	be.PutUint16(buf[10:], uint16(b.left))
	be.PutUint16(buf[12:], uint16(b.bottom))
	be.PutUint16(buf[14:], uint16(b.right))
	be.PutUint16(buf[16:], uint16(n))
	be.PutUint32(buf[18:], math.Float32bits(b.x1))
	be.PutUint32(buf[22:], math.Float32bits(b.y1))
	be.PutUint32(buf[26:], math.Float32bits(b.x2))
	be.PutUint32(buf[30:], math.Float32bits(b.y2))
	be.PutUint16(buf[34:], uint16(b.strokeWidth))
	be.PutUint32(buf[36:], uint32(b.shapeSize))
	be.PutUint32(buf[40:], b.strokeColor)
	be.PutUint32(buf[44:], b.fillColor)
	be.PutUint16(buf[48:], b.subtype)
	be.PutUint16(buf[50:], b.options)
	buf[52] = b.arrowStyle
	buf[53] = b.arrowHead
	be.PutUint16(buf[54:], uint16(b.arcSize))
	if b.aspect != 0 {
		be.PutUint32(buf[52:], math.Float32bits(b.aspect))
	}
	be.PutUint32(buf[56:], uint32(b.position))
	be.PutUint32(buf[60:], uint32(b.extOffset))

	for _, x := range b.xs {
		buf = be.AppendUint16(buf, uint16(x))
	}
	for _, y := range b.ys {
		buf = be.AppendUint16(buf, uint16(y))
	}
	for _, x := range b.subX {
		buf = be.AppendUint32(buf, math.Float32bits(x))
	}
	for _, y := range b.subY {
		buf = be.AppendUint32(buf, math.Float32bits(y))
	}
	for _, f := range b.floats {
		buf = be.AppendUint32(buf, math.Float32bits(f))
	}

	if b.ext == nil {
		return buf
	}
	e := b.ext
	off := len(buf)
	be.PutUint32(buf[60:], uint32(off))
	hdr2 := make([]byte, header2Size)
	be.PutUint32(hdr2[h2Channel:], uint32(e.channel))
	be.PutUint32(hdr2[h2Slice:], uint32(e.slice))
	be.PutUint32(hdr2[h2Frame:], uint32(e.frame))
	be.PutUint32(hdr2[h2LabelColor:], e.labelColor)
	be.PutUint16(hdr2[h2FontSize:], uint16(e.fontSize))
	hdr2[h2Group] = e.group
	hdr2[h2Opacity] = e.opacity
	be.PutUint32(hdr2[h2FloatStroke:], math.Float32bits(e.strokeWidth))
	buf = append(buf, hdr2...)

	if e.name != "" {
		nameOff := int32(len(buf))
		if e.nameOffset != 0 {
			nameOff = e.nameOffset
		}
		units := utf16.Encode([]rune(e.name))
		be.PutUint32(buf[off+h2NameOffset:], uint32(nameOff))
		be.PutUint32(buf[off+h2NameLength:], uint32(len(units)))
		for _, u := range units {
			buf = be.AppendUint16(buf, u)
		}
	}
	if e.props != "" {
		units := utf16.Encode([]rune(e.props))
		be.PutUint32(buf[off+h2PropsOffset:], uint32(len(buf)))
		be.PutUint32(buf[off+h2PropsLength:], uint32(len(units)))
		for _, u := range units {
			buf = be.AppendUint16(buf, u)
		}
	}
	if len(e.counters) > 0 {
		be.PutUint32(buf[off+h2CountersOffset:], uint32(len(buf)))
		for _, c := range e.counters {
			buf = be.AppendUint32(buf, c)
		}
	}
	return buf
}

func ptr[T any](v T) *T { return &v }
