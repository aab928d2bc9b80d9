package roi

import (
	"fmt"
	"math"
)

// shape holds the kind-specific part of a record before assembly.
type shape struct {
	kind        Kind
	coords      []Point
	subPixel    []PointF
	subPixelBox *RectF
	arcSize     int
	line        *LineEnds
	arrow       *Arrow
	ellipse     *Ellipse
	rotated     *RotatedRect
	angles      *ArcAngles
	children    []*ROI
	paths       [][]Segment
	notes       []string
}

// decodeShape dispatches on the header type code. The cursor must sit just
// past the primary header.
func decodeShape(c *cursor, h Header) (shape, error) {
	if h.Version >= versionStrokeColor && (h.Subtype == SubtypeText || h.Subtype == SubtypeImage) {
		return shape{}, fmt.Errorf("%w: %s subtype", ErrUnsupportedShape, h.Subtype)
	}
	if h.Composite() {
		return decodeComposite(c, h)
	}

	kind := Kind(h.TypeCode)
	switch kind {
	case KindRect, KindOval:
		return decodeRect(h, kind), nil
	case KindLine:
		return decodeLine(h), nil
	case KindNoRoi:
		return shape{kind: KindNoRoi}, nil
	case KindAngle:
		return decodeAngle(c, h)
	case KindPolygon, KindFreeline, KindPolyline, KindFreehand, KindTraced, KindPoint:
		return decodePolygon(c, h, kind)
	}
	return shape{}, fmt.Errorf("%w: type code %d", ErrUnsupportedShape, h.TypeCode)
}

func decodeRect(h Header, kind Kind) shape {
	s := shape{kind: kind}
	if h.ArcSize > 0 {
		// Rounded corners only exist on rectangles.
		s.kind = KindRect
		s.arcSize = h.ArcSize
	}
	if h.Version >= versionSubPixelRect && h.Options.Has(OptSubPixelResolution) {
		s.subPixelBox = &RectF{
			X:      float64(h.X1),
			Y:      float64(h.Y1),
			Width:  float64(h.X2),
			Height: float64(h.Y2),
		}
	}
	return s
}

func decodeLine(h Header) shape {
	s := shape{
		kind: KindLine,
		line: &LineEnds{
			X1: float64(h.X1),
			Y1: float64(h.Y1),
			X2: float64(h.X2),
			Y2: float64(h.Y2),
		},
	}
	if h.Subtype == SubtypeArrow || h.Options.Has(OptDoubleHeaded) {
		s.arrow = &Arrow{
			Style:        int(h.ArrowStyle),
			HeadSize:     int(h.ArrowHead),
			DoubleHeaded: h.Options.Has(OptDoubleHeaded),
		}
	}
	return s
}

func decodePolygon(c *cursor, h Header, kind Kind) (shape, error) {
	coords, subPixel, err := readPoints(c, h)
	if err != nil {
		return shape{}, err
	}
	s := shape{kind: kind, coords: coords, subPixel: subPixel}

	if kind == KindFreehand {
		switch h.Subtype {
		case SubtypeEllipse:
			s.ellipse = &Ellipse{
				X1:          float64(h.X1),
				Y1:          float64(h.Y1),
				X2:          float64(h.X2),
				Y2:          float64(h.Y2),
				AspectRatio: float64(h.AspectRatio),
			}
		case SubtypeRotatedRect:
			s.rotated = &RotatedRect{
				X1:    float64(h.X1),
				Y1:    float64(h.Y1),
				X2:    float64(h.X2),
				Y2:    float64(h.Y2),
				Width: float64(h.AspectRatio),
			}
		}
	}
	return s, nil
}

// readPoints reads n X offsets followed by n Y offsets, then the optional
// sub-pixel X and Y blocks. Offsets are relative to the box origin; negative
// offsets are clamped to zero.
func readPoints(c *cursor, h Header) ([]Point, []PointF, error) {
	n := h.N
	if n == 0 {
		return []Point{}, nil, nil
	}

	xs := make([]int16, n)
	for i := range xs {
		v, err := c.Int16()
		if err != nil {
			return nil, nil, fmt.Errorf("x coordinate %d: %w", i, err)
		}
		xs[i] = v
	}
	coords := make([]Point, n)
	for i := range coords {
		y, err := c.Int16()
		if err != nil {
			return nil, nil, fmt.Errorf("y coordinate %d: %w", i, err)
		}
		coords[i] = Point{
			X: h.Box.Left + int(max(xs[i], 0)),
			Y: h.Box.Top + int(max(y, 0)),
		}
	}

	if !h.SubPixel() {
		return coords, nil, nil
	}
	subPixel := make([]PointF, n)
	for i := range subPixel {
		x, err := c.Float32()
		if err != nil {
			return nil, nil, fmt.Errorf("sub-pixel x %d: %w", i, err)
		}
		subPixel[i].X = float64(x)
	}
	for i := range subPixel {
		y, err := c.Float32()
		if err != nil {
			return nil, nil, fmt.Errorf("sub-pixel y %d: %w", i, err)
		}
		subPixel[i].Y = float64(y)
	}
	return coords, subPixel, nil
}

// decodeAngle reads the three points of an angle (arm, vertex, arm) and
// derives the arm directions. Records without points carry the two angles
// as floats in place of the coordinate blocks.
func decodeAngle(c *cursor, h Header) (shape, error) {
	if h.N == 0 {
		start, err := c.Float32()
		if err != nil {
			return shape{}, fmt.Errorf("start angle: %w", err)
		}
		end, err := c.Float32()
		if err != nil {
			return shape{}, fmt.Errorf("end angle: %w", err)
		}
		return shape{
			kind:   KindAngle,
			coords: []Point{},
			angles: &ArcAngles{Start: float64(start), End: float64(end)},
		}, nil
	}

	coords, subPixel, err := readPoints(c, h)
	if err != nil {
		return shape{}, err
	}
	s := shape{kind: KindAngle, coords: coords, subPixel: subPixel}
	pts := (&ROI{Kind: KindAngle, Coordinates: coords, SubPixel: subPixel}).Points()
	if len(pts) < 3 {
		s.notes = append(s.notes, fmt.Sprintf("angle has %d points, need 3", len(pts)))
		return s, nil
	}
	s.angles = &ArcAngles{
		Start: direction(pts[1], pts[0]),
		End:   direction(pts[1], pts[2]),
	}
	return s, nil
}

// direction returns the heading from a to b in degrees, counter-clockwise
// from the positive x axis with y pointing down the image.
func direction(a, b PointF) float64 {
	deg := math.Atan2(a.Y-b.Y, b.X-a.X) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	return deg
}
