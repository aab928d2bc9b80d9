package roi

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Kind identifies the geometric shape of a ROI.
type Kind uint8

// Kinds 0 through 10 match the on-disk type codes. Composite has no code of
// its own; it is signalled by a non-zero shape size in the header.
const (
	KindPolygon Kind = iota
	KindRect
	KindOval
	KindLine
	KindFreeline
	KindPolyline
	KindNoRoi
	KindFreehand
	KindTraced
	KindAngle
	KindPoint
	KindComposite
)

var kindNames = [...]string{
	KindPolygon:   "polygon",
	KindRect:      "rectangle",
	KindOval:      "oval",
	KindLine:      "line",
	KindFreeline:  "freeline",
	KindPolyline:  "polyline",
	KindNoRoi:     "noroi",
	KindFreehand:  "freehand",
	KindTraced:    "traced",
	KindAngle:     "angle",
	KindPoint:     "point",
	KindComposite: "composite",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// MarshalText renders the kind by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// hasCoordinates reports whether the kind carries a point list.
func (k Kind) hasCoordinates() bool {
	switch k {
	case KindPolygon, KindFreeline, KindPolyline, KindFreehand, KindTraced, KindAngle, KindPoint:
		return true
	}
	return false
}

// Subtype refines a kind (arrow lines, ellipse freehands, ...).
type Subtype uint16

const (
	SubtypeNone Subtype = iota
	SubtypeText
	SubtypeArrow
	SubtypeEllipse
	SubtypeImage
	SubtypeRotatedRect
)

func (s Subtype) String() string {
	switch s {
	case SubtypeNone:
		return ""
	case SubtypeText:
		return "text"
	case SubtypeArrow:
		return "arrow"
	case SubtypeEllipse:
		return "ellipse"
	case SubtypeImage:
		return "image"
	case SubtypeRotatedRect:
		return "rotated-rect"
	}
	return fmt.Sprintf("subtype(%d)", uint16(s))
}

func (s Subtype) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options is the header option bit field.
type Options uint16

const (
	OptSplineFit Options = 1 << iota
	OptDoubleHeaded
	OptOutline
	OptOverlayLabels
	OptOverlayNames
	OptOverlayBackgrounds
	OptOverlayBold
	OptSubPixelResolution
	OptDrawOffset
	OptZeroTransparent
	OptShowLabels
	OptScaleLabels
	OptPromptBeforeDeleting
	OptScaleStrokeWidth
)

// Has reports whether every bit of o is set.
func (opts Options) Has(o Options) bool {
	return opts&o == o
}

// Box is the integer bounding box stored in the primary header.
type Box struct {
	Top    int `json:"top" yaml:"top"`
	Left   int `json:"left" yaml:"left"`
	Bottom int `json:"bottom" yaml:"bottom"`
	Right  int `json:"right" yaml:"right"`
}

func (b Box) Width() int  { return b.Right - b.Left }
func (b Box) Height() int { return b.Bottom - b.Top }

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Right <= b.Left || b.Bottom <= b.Top
}

// Valid reports whether right >= left and bottom >= top.
func (b Box) Valid() bool {
	return b.Right >= b.Left && b.Bottom >= b.Top
}

// Point is an integer pixel coordinate.
type Point struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// PointF is a sub-pixel coordinate.
type PointF struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// RectF is a floating point rectangle given by origin and size.
type RectF struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Position places a ROI within a stack or hyperstack. Position is the flat
// stack index; Channel, Slice and Frame are set for hyperstacks.
type Position struct {
	Position int `json:"position,omitempty" yaml:"position,omitempty"`
	Channel  int `json:"channel,omitempty" yaml:"channel,omitempty"`
	Slice    int `json:"slice,omitempty" yaml:"slice,omitempty"`
	Frame    int `json:"frame,omitempty" yaml:"frame,omitempty"`
}

// LineEnds holds the end points of a straight line ROI.
type LineEnds struct {
	X1 float64 `json:"x1" yaml:"x1"`
	Y1 float64 `json:"y1" yaml:"y1"`
	X2 float64 `json:"x2" yaml:"x2"`
	Y2 float64 `json:"y2" yaml:"y2"`
}

// Arrow carries the arrow styling of a line.
type Arrow struct {
	Style        int  `json:"style" yaml:"style"`
	HeadSize     int  `json:"head_size" yaml:"head_size"`
	DoubleHeaded bool `json:"double_headed" yaml:"double_headed"`
}

// Ellipse is a freehand ROI stored as major axis plus aspect ratio.
type Ellipse struct {
	X1          float64 `json:"x1" yaml:"x1"`
	Y1          float64 `json:"y1" yaml:"y1"`
	X2          float64 `json:"x2" yaml:"x2"`
	Y2          float64 `json:"y2" yaml:"y2"`
	AspectRatio float64 `json:"aspect_ratio" yaml:"aspect_ratio"`
}

// RotatedRect is a freehand ROI stored as center line plus width.
type RotatedRect struct {
	X1    float64 `json:"x1" yaml:"x1"`
	Y1    float64 `json:"y1" yaml:"y1"`
	X2    float64 `json:"x2" yaml:"x2"`
	Y2    float64 `json:"y2" yaml:"y2"`
	Width float64 `json:"width" yaml:"width"`
}

// ArcAngles are the directions, in degrees, of the two arms of an angle ROI.
type ArcAngles struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// Span returns the opening of the angle in degrees, in [0, 180].
func (a ArcAngles) Span() float64 {
	d := a.End - a.Start
	for d < 0 {
		d += 360
	}
	for d >= 360 {
		d -= 360
	}
	if d > 180 {
		d = 360 - d
	}
	return d
}

// Counter tags one point of a multi-point ROI with its counter and slice.
type Counter struct {
	Counter int `json:"counter" yaml:"counter"`
	Slice   int `json:"slice" yaml:"slice"`
}

// Color is a packed 32-bit ARGB color word.
type Color uint32

func (c Color) Alpha() uint8 { return uint8(c >> 24) }

// RGBA converts the color to the standard library representation.
func (c Color) RGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: c.Alpha()}
}

// Colorful returns the opaque color in the go-colorful space.
func (c Color) Colorful() colorful.Color {
	rgba := c.RGBA()
	return colorful.Color{R: float64(rgba.R) / 255, G: float64(rgba.G) / 255, B: float64(rgba.B) / 255}
}

// Hex renders the color as #rrggbb, appending the alpha byte when the color
// is not fully opaque.
func (c Color) Hex() string {
	hex := c.Colorful().Hex()
	if a := c.Alpha(); a != 0xff {
		hex += fmt.Sprintf("%02x", a)
	}
	return hex
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// ParseKind maps a kind name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if strings.EqualFold(n, name) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedShape, name)
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

func (s *Subtype) UnmarshalText(text []byte) error {
	for v := SubtypeNone; v <= SubtypeRotatedRect; v++ {
		if v.String() == string(text) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown subtype %q", text)
}

// UnmarshalText parses the #rrggbb[aa] form written by MarshalText.
func (c *Color) UnmarshalText(text []byte) error {
	s := string(text)
	alpha := uint64(0xff)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return fmt.Errorf("invalid color %q: %w", s, err)
		}
		alpha = a
		s = s[:7]
	}
	rgb, err := colorful.Hex(s)
	if err != nil {
		return fmt.Errorf("invalid color %q: %w", text, err)
	}
	r, g, b := rgb.RGB255()
	*c = Color(uint32(alpha)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b))
	return nil
}
