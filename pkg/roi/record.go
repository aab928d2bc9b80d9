package roi

import "math"

// ROI is one decoded region of interest. Records are built once by Decode
// and never modified afterwards; they are safe to share between goroutines.
//
// Which optional fields are populated depends on Kind: Coordinates and
// SubPixel for point-list kinds, Line and Arrow for lines, ArcSize and
// SubPixelBox for rectangles and ovals, Ellipse and RotatedRect for freehand
// subtypes, ArcAngles for angles, Counters for points, Children and Paths for
// composites.
type ROI struct {
	Name     string    `json:"name" yaml:"name"`
	Kind     Kind      `json:"type" yaml:"type"`
	Subtype  Subtype   `json:"subtype,omitempty" yaml:"subtype,omitempty"`
	Version  int       `json:"version" yaml:"version"`
	Options  Options   `json:"options,omitempty" yaml:"options,omitempty"`
	Box      Box       `json:"box" yaml:"box"`
	Position *Position `json:"position,omitempty" yaml:"position,omitempty"`

	StrokeWidth *float64 `json:"stroke_width,omitempty" yaml:"stroke_width,omitempty"`
	StrokeColor *Color   `json:"stroke_color,omitempty" yaml:"stroke_color,omitempty"`
	FillColor   *Color   `json:"fill_color,omitempty" yaml:"fill_color,omitempty"`

	Coordinates []Point  `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	SubPixel    []PointF `json:"sub_pixel,omitempty" yaml:"sub_pixel,omitempty"`

	ArcSize     int          `json:"arc_size,omitempty" yaml:"arc_size,omitempty"`
	SubPixelBox *RectF       `json:"sub_pixel_box,omitempty" yaml:"sub_pixel_box,omitempty"`
	Line        *LineEnds    `json:"line,omitempty" yaml:"line,omitempty"`
	Arrow       *Arrow       `json:"arrow,omitempty" yaml:"arrow,omitempty"`
	Ellipse     *Ellipse     `json:"ellipse,omitempty" yaml:"ellipse,omitempty"`
	RotatedRect *RotatedRect `json:"rotated_rect,omitempty" yaml:"rotated_rect,omitempty"`
	ArcAngles   *ArcAngles   `json:"arc_angles,omitempty" yaml:"arc_angles,omitempty"`
	Counters    []Counter    `json:"counters,omitempty" yaml:"counters,omitempty"`
	Children    []*ROI       `json:"children,omitempty" yaml:"children,omitempty"`
	Paths       [][]Segment  `json:"paths,omitempty" yaml:"paths,omitempty"`

	Properties string `json:"properties,omitempty" yaml:"properties,omitempty"`
	LabelColor *Color `json:"label_color,omitempty" yaml:"label_color,omitempty"`
	FontSize   int    `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	Group      int    `json:"group,omitempty" yaml:"group,omitempty"`
	Opacity    int    `json:"opacity,omitempty" yaml:"opacity,omitempty"`

	// Notes lists data-quality problems that did not stop the decode.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// Points returns the geometry of a point-list ROI at the best available
// precision: the sub-pixel coordinates when present, else the integer ones.
func (r *ROI) Points() []PointF {
	if len(r.SubPixel) > 0 {
		return r.SubPixel
	}
	pts := make([]PointF, len(r.Coordinates))
	for i, p := range r.Coordinates {
		pts[i] = PointF{X: float64(p.X), Y: float64(p.Y)}
	}
	return pts
}

// Bounds recomputes the extent of the ROI from its geometry. Sub-pixel data
// takes precedence over integer coordinates, which take precedence over the
// header box.
func (r *ROI) Bounds() RectF {
	switch {
	case r.Kind == KindComposite && len(r.Children) > 0:
		b := r.Children[0].Bounds()
		for _, child := range r.Children[1:] {
			b = b.Union(child.Bounds())
		}
		return b
	case r.Kind.hasCoordinates() && (len(r.SubPixel) > 0 || len(r.Coordinates) > 0):
		return boundsOf(r.Points())
	case r.SubPixelBox != nil:
		return *r.SubPixelBox
	case r.Line != nil:
		return boundsOf([]PointF{{X: r.Line.X1, Y: r.Line.Y1}, {X: r.Line.X2, Y: r.Line.Y2}})
	}
	return RectF{
		X:      float64(r.Box.Left),
		Y:      float64(r.Box.Top),
		Width:  float64(r.Box.Width()),
		Height: float64(r.Box.Height()),
	}
}

// Union returns the smallest rectangle containing both r and o.
func (r RectF) Union(o RectF) RectF {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.X+r.Width, o.X+o.Width)
	y1 := math.Max(r.Y+r.Height, o.Y+o.Height)
	return RectF{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func boundsOf(pts []PointF) RectF {
	if len(pts) == 0 {
		return RectF{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return RectF{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
