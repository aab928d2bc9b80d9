package roi

import "fmt"

// defaultName is used when neither the record nor the caller supplies one.
const defaultName = "roi"

// Decode parses one ROI record. name is the fallback used when the record
// does not carry its own name, typically the archive entry or file name.
//
// Decode either returns a complete record or an error wrapping one of
// ErrTruncatedData, ErrInvalidSignature or ErrUnsupportedShape. Problems
// confined to the extended header are reported in ROI.Notes instead.
func Decode(name string, data []byte) (*ROI, error) {
	c := newCursor(data)
	h, err := parseHeader(c)
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	s, err := decodeShape(c, h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", shapeLabel(h), err)
	}
	ext, notes := readExtended(data, h, s.kind)
	return assemble(name, h, s, ext, notes), nil
}

func shapeLabel(h Header) string {
	if h.Composite() {
		return KindComposite.String()
	}
	return Kind(h.TypeCode).String()
}

// assemble merges the header, shape and extended fields into the final
// record. It allocates a fresh ROI and never mutates its inputs.
func assemble(name string, h Header, s shape, ext Extended, extNotes []string) *ROI {
	r := &ROI{
		Name:        resolveName(ext.Name, name),
		Kind:        s.kind,
		Subtype:     h.Subtype,
		Version:     h.Version,
		Options:     h.Options,
		Box:         h.Box,
		Position:    resolvePosition(h, ext),
		StrokeWidth: resolveStrokeWidth(h, ext),
		Properties:  ext.Properties,
		FontSize:    ext.FontSize,
		Group:       ext.Group,
		Opacity:     ext.Opacity,
	}
	if h.Version >= versionStrokeColor {
		r.StrokeColor = optionalColor(h.StrokeColor)
		r.FillColor = optionalColor(h.FillColor)
	}
	r.LabelColor = optionalColor(ext.LabelColor)

	switch s.kind {
	case KindRect, KindOval:
		r.ArcSize = s.arcSize
		r.SubPixelBox = s.subPixelBox
	case KindLine:
		r.Line = s.line
		r.Arrow = s.arrow
	case KindComposite:
		r.Children = s.children
		r.Paths = s.paths
		for i, child := range r.Children {
			child.Name = fmt.Sprintf("%s-%d", r.Name, i+1)
			child.Position = r.Position
		}
		if r.Box.Empty() && len(r.Children) > 0 {
			r.Box = unionBox(r.Children)
		}
	case KindNoRoi:
	default:
		r.Coordinates = s.coords
		r.SubPixel = s.subPixel
		r.Ellipse = s.ellipse
		r.RotatedRect = s.rotated
		r.ArcAngles = s.angles
		if s.kind == KindPoint {
			r.Counters = ext.Counters
		}
	}

	if !r.Box.Valid() {
		r.Notes = append(r.Notes, fmt.Sprintf("inverted bounding box %+v", r.Box))
	}
	r.Notes = append(r.Notes, s.notes...)
	r.Notes = append(r.Notes, extNotes...)
	return r
}

func resolveName(extended, fallback string) string {
	switch {
	case extended != "":
		return extended
	case fallback != "":
		return fallback
	}
	return defaultName
}

// resolvePosition prefers hyperstack coordinates from the extended header
// over the flat stack position of the primary header.
func resolvePosition(h Header, ext Extended) *Position {
	if ext.Channel > 0 || ext.Slice > 0 || ext.Frame > 0 {
		return &Position{Channel: ext.Channel, Slice: ext.Slice, Frame: ext.Frame}
	}
	if h.Position > 0 {
		return &Position{Position: h.Position}
	}
	return nil
}

func resolveStrokeWidth(h Header, ext Extended) *float64 {
	var w float64
	switch {
	case ext.StrokeWidth > 0:
		w = float64(ext.StrokeWidth)
	case h.Version >= versionStrokeColor && h.StrokeWidth > 0:
		w = float64(h.StrokeWidth)
	default:
		return nil
	}
	return &w
}

func optionalColor(c Color) *Color {
	if c == 0 {
		return nil
	}
	return &c
}
