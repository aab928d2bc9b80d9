package roi

import (
	"fmt"
	"math"
)

// SegmentOp is the operation code that opens each composite path segment.
type SegmentOp int

const (
	SegMoveTo SegmentOp = iota
	SegLineTo
	SegQuadTo
	SegCubicTo
	SegClose
)

// segmentArity is the number of coordinate pairs following each op.
var segmentArity = [...]int{
	SegMoveTo:  1,
	SegLineTo:  1,
	SegQuadTo:  2,
	SegCubicTo: 3,
	SegClose:   0,
}

var segmentNames = [...]string{
	SegMoveTo:  "moveto",
	SegLineTo:  "lineto",
	SegQuadTo:  "quadto",
	SegCubicTo: "cubicto",
	SegClose:   "close",
}

func (op SegmentOp) String() string {
	if op >= 0 && int(op) < len(segmentNames) {
		return segmentNames[op]
	}
	return fmt.Sprintf("segment(%d)", int(op))
}

func (op SegmentOp) MarshalText() ([]byte, error) {
	return []byte(op.String()), nil
}

func (op *SegmentOp) UnmarshalText(text []byte) error {
	for i, name := range segmentNames {
		if name == string(text) {
			*op = SegmentOp(i)
			return nil
		}
	}
	return fmt.Errorf("unknown segment op %q", text)
}

// Segment is one element of a composite outline.
type Segment struct {
	Op     SegmentOp `json:"op" yaml:"op"`
	Points []PointF  `json:"points,omitempty" yaml:"points,omitempty"`
}

// curveSteps is how many points a quadratic or cubic segment is flattened to.
const curveSteps = 8

// subpath accumulates one moveto-delimited run of segments.
type subpath struct {
	segments []Segment
	points   []PointF
	closed   bool
}

// decodeComposite reads ShapeSize floats of path data and turns each
// subpath into a child record: closed subpaths become polygons, open ones
// polylines. Curves are flattened for the child geometry but kept verbatim
// in Paths.
func decodeComposite(c *cursor, h Header) (shape, error) {
	if avail := c.Remaining() / 4; h.ShapeSize > avail {
		return shape{}, fmt.Errorf("composite needs %d values, %d present: %w", h.ShapeSize, avail, ErrTruncatedData)
	}
	values := make([]float64, h.ShapeSize)
	for i := range values {
		v, err := c.Float32()
		if err != nil {
			return shape{}, fmt.Errorf("composite value %d of %d: %w", i, h.ShapeSize, err)
		}
		values[i] = float64(v)
	}

	var (
		paths []*subpath
		cur   *subpath
	)
	for i := 0; i < len(values); {
		v := values[i]
		if v != math.Trunc(v) || v < float64(SegMoveTo) || v > float64(SegClose) {
			return shape{}, fmt.Errorf("%w: composite segment type %v at value %d", ErrUnsupportedShape, v, i)
		}
		op := SegmentOp(v)
		i++
		arity := segmentArity[op]
		if i+2*arity > len(values) {
			return shape{}, fmt.Errorf("%w: %s segment at value %d needs %d values", ErrTruncatedData, op, i-1, 2*arity)
		}
		seg := Segment{Op: op}
		for k := 0; k < arity; k++ {
			seg.Points = append(seg.Points, PointF{X: values[i], Y: values[i+1]})
			i += 2
		}

		if op == SegMoveTo || cur == nil || cur.closed {
			cur = &subpath{}
			paths = append(paths, cur)
		}
		cur.append(seg)
	}

	s := shape{kind: KindComposite}
	for _, p := range paths {
		if len(p.points) == 0 {
			continue
		}
		s.paths = append(s.paths, p.segments)
		s.children = append(s.children, p.record(h))
	}
	return s, nil
}

func (p *subpath) append(seg Segment) {
	p.segments = append(p.segments, seg)
	var last PointF
	if len(p.points) > 0 {
		last = p.points[len(p.points)-1]
	}
	switch seg.Op {
	case SegMoveTo, SegLineTo:
		p.points = append(p.points, seg.Points[0])
	case SegQuadTo:
		p0, c1, p1 := last, seg.Points[0], seg.Points[1]
		for k := 1; k <= curveSteps; k++ {
			t := float64(k) / curveSteps
			u := 1 - t
			p.points = append(p.points, PointF{
				X: u*u*p0.X + 2*u*t*c1.X + t*t*p1.X,
				Y: u*u*p0.Y + 2*u*t*c1.Y + t*t*p1.Y,
			})
		}
	case SegCubicTo:
		p0, c1, c2, p1 := last, seg.Points[0], seg.Points[1], seg.Points[2]
		for k := 1; k <= curveSteps; k++ {
			t := float64(k) / curveSteps
			u := 1 - t
			p.points = append(p.points, PointF{
				X: u*u*u*p0.X + 3*u*u*t*c1.X + 3*u*t*t*c2.X + t*t*t*p1.X,
				Y: u*u*u*p0.Y + 3*u*u*t*c1.Y + 3*u*t*t*c2.Y + t*t*t*p1.Y,
			})
		}
	case SegClose:
		p.closed = true
	}
}

// record builds the child ROI for a subpath, inheriting version, position
// and styling context from the composite header.
func (p *subpath) record(h Header) *ROI {
	kind := KindPolyline
	if p.closed {
		kind = KindPolygon
	}
	coords := make([]Point, len(p.points))
	for i, pt := range p.points {
		coords[i] = Point{X: int(math.Floor(pt.X)), Y: int(math.Floor(pt.Y))}
	}
	b := boundsOf(p.points)
	return &ROI{
		Kind:    kind,
		Version: h.Version,
		Options: OptSubPixelResolution,
		Box: Box{
			Top:    int(math.Floor(b.Y)),
			Left:   int(math.Floor(b.X)),
			Bottom: int(math.Ceil(b.Y + b.Height)),
			Right:  int(math.Ceil(b.X + b.Width)),
		},
		Coordinates: coords,
		SubPixel:    append([]PointF(nil), p.points...),
	}
}

// unionBox returns the smallest box holding every child box.
func unionBox(children []*ROI) Box {
	b := children[0].Box
	for _, child := range children[1:] {
		b.Top = min(b.Top, child.Box.Top)
		b.Left = min(b.Left, child.Box.Left)
		b.Bottom = max(b.Bottom, child.Box.Bottom)
		b.Right = max(b.Right, child.Box.Right)
	}
	return b
}
