package roi

import "fmt"

// Magic is the signature every ROI record starts with.
const Magic = "Iout"

// HeaderSize is the length of the primary header; coordinate data and
// composite path segments start here.
const HeaderSize = 64

// Format versions that introduced optional fields.
const (
	versionStrokeColor     = 218
	versionSubPixel        = 222
	versionSubPixelRect    = 223
	versionCounters        = 226
	versionGroup           = 227
	versionFloatStrokeSize = 228
)

// maxTypeCode is the highest type code the format defines (point).
const maxTypeCode = 10

// Header is the fixed-size primary header shared by every record.
type Header struct {
	Version     int
	TypeCode    uint8
	Box         Box
	N           int
	X1, Y1      float32 // line ends, sub-pixel rect origin or ellipse axis
	X2, Y2      float32 // line ends, sub-pixel rect size or ellipse axis
	StrokeWidth int
	ShapeSize   int // float count of composite path data
	StrokeColor Color
	FillColor   Color
	Subtype     Subtype
	Options     Options
	ArrowStyle  uint8
	ArrowHead   uint8
	AspectRatio float32 // aliases ArrowStyle, ArrowHead and ArcSize
	ArcSize     int
	Position    int
	ExtOffset   int
}

// Composite reports whether the record stores composite path data.
func (h Header) Composite() bool {
	return h.ShapeSize > 0
}

// SubPixel reports whether float coordinates follow the integer ones.
func (h Header) SubPixel() bool {
	return h.Version >= versionSubPixel && h.Options.Has(OptSubPixelResolution)
}

// parseHeader reads the primary header from the start of the cursor and
// leaves it positioned at HeaderSize.
func parseHeader(c *cursor) (Header, error) {
	var h Header
	if err := c.Seek(0); err != nil {
		return h, err
	}
	sig, err := c.Bytes(4)
	if err != nil {
		return h, err
	}
	if string(sig) != Magic {
		return h, fmt.Errorf("%w: got %q, want %q", ErrInvalidSignature, sig, Magic)
	}
	if c.Remaining() < HeaderSize-4 {
		return h, fmt.Errorf("%w: header needs %d bytes, buffer has %d", ErrTruncatedData, HeaderSize, len(c.data))
	}

	// The length check above covers every read below.
	version, _ := c.Uint16()
	typeCode, _ := c.Uint8()
	_, _ = c.Uint8()
	top, _ := c.Int16()
	left, _ := c.Int16()
	bottom, _ := c.Int16()
	right, _ := c.Int16()
	n, _ := c.Uint16()
	x1, _ := c.Float32()
	y1, _ := c.Float32()
	x2, _ := c.Float32()
	y2, _ := c.Float32()
	strokeWidth, _ := c.Int16()
	shapeSize, _ := c.Int32()
	strokeColor, _ := c.Uint32()
	fillColor, _ := c.Uint32()
	subtype, _ := c.Uint16()
	options, _ := c.Uint16()
	arrowStyle, _ := c.Uint8()
	arrowHead, _ := c.Uint8()
	arcSize, _ := c.Int16()
	position, _ := c.Int32()
	extOffset, _ := c.Int32()

	h = Header{
		Version:     int(version),
		TypeCode:    typeCode,
		Box:         Box{Top: int(top), Left: int(left), Bottom: int(bottom), Right: int(right)},
		N:           int(n),
		X1:          x1,
		Y1:          y1,
		X2:          x2,
		Y2:          y2,
		StrokeWidth: int(strokeWidth),
		ShapeSize:   int(shapeSize),
		StrokeColor: Color(strokeColor),
		FillColor:   Color(fillColor),
		Subtype:     Subtype(subtype),
		Options:     Options(options),
		ArrowStyle:  arrowStyle,
		ArrowHead:   arrowHead,
		AspectRatio: float32FromBytes(c.data[52:56]),
		ArcSize:     int(arcSize),
		Position:    int(position),
		ExtOffset:   int(extOffset),
	}
	if !h.Composite() && h.TypeCode > maxTypeCode {
		return h, fmt.Errorf("%w: type code %d", ErrUnsupportedShape, h.TypeCode)
	}
	return h, nil
}
