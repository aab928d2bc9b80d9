package roi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PolygonCoordinates(t *testing.T) {
	data := newRecord(uint8(KindPolygon)).
		box(10, 5, 20, 15).
		points([]int16{0, 5, 5}, []int16{0, 0, 10}).
		bytes()

	r, err := Decode("poly", data)
	require.NoError(t, err)

	assert.Equal(t, KindPolygon, r.Kind)
	assert.Equal(t, "poly", r.Name)
	assert.Equal(t, Box{Top: 10, Left: 5, Bottom: 20, Right: 15}, r.Box)
	assert.Equal(t, []Point{{5, 10}, {10, 10}, {10, 20}}, r.Coordinates)
	assert.Nil(t, r.SubPixel)
	assert.Empty(t, r.Notes)
}

func TestDecode_PointListKinds(t *testing.T) {
	kinds := []Kind{KindPolygon, KindFreeline, KindPolyline, KindFreehand, KindTraced, KindPoint}
	for _, kind := range kinds {
		t.Run(kind.String(), func(t *testing.T) {
			data := newRecord(uint8(kind)).
				box(0, 100, 50, 200).
				points([]int16{1, 2}, []int16{3, 4}).
				bytes()

			r, err := Decode("x", data)
			require.NoError(t, err)
			assert.Equal(t, kind, r.Kind)
			assert.Equal(t, []Point{{101, 3}, {102, 4}}, r.Coordinates)
			assert.Nil(t, r.Line)
			assert.Nil(t, r.ArcAngles)
			assert.Nil(t, r.Children)
		})
	}
}

func TestDecode_EmptyPointList(t *testing.T) {
	data := newRecord(uint8(KindPolygon)).box(0, 0, 10, 10).bytes()

	r, err := Decode("empty", data)
	require.NoError(t, err)
	assert.NotNil(t, r.Coordinates)
	assert.Empty(t, r.Coordinates)
}

func TestDecode_NegativeOffsetsClamped(t *testing.T) {
	data := newRecord(uint8(KindPolygon)).
		box(10, 10, 20, 20).
		points([]int16{-3, 4}, []int16{2, -1}).
		bytes()

	r, err := Decode("neg", data)
	require.NoError(t, err)
	assert.Equal(t, []Point{{10, 12}, {14, 10}}, r.Coordinates)
}

func TestDecode_SubPixel(t *testing.T) {
	b := newRecord(uint8(KindPolygon)).
		box(10, 10, 30, 40).
		points([]int16{0, 20, 30}, []int16{0, 20, 0})
	b.options = uint16(OptSubPixelResolution)
	b.subX = []float32{10.25, 30.5, 39.75}
	b.subY = []float32{10.5, 29.25, 10.0}

	r, err := Decode("sub", b.bytes())
	require.NoError(t, err)

	require.Len(t, r.SubPixel, 3)
	assert.Len(t, r.Coordinates, len(r.SubPixel))
	assert.Equal(t, []Point{{10, 10}, {30, 30}, {40, 10}}, r.Coordinates, "integer coordinates are kept")
	assert.Equal(t, PointF{X: 30.5, Y: 29.25}, r.SubPixel[1])

	bounds := r.Bounds()
	assert.Equal(t, 10.25, bounds.X)
	assert.Equal(t, 10.0, bounds.Y)
	assert.Equal(t, 39.75-10.25, bounds.Width)
	assert.Equal(t, 29.25-10.0, bounds.Height)
}

func TestDecode_SubPixelIgnoredBeforeVersion222(t *testing.T) {
	b := newRecord(uint8(KindPolygon)).box(0, 0, 5, 5).points([]int16{1}, []int16{1})
	b.version = 221
	b.options = uint16(OptSubPixelResolution)

	r, err := Decode("old", b.bytes())
	require.NoError(t, err)
	assert.Nil(t, r.SubPixel)
}

func TestDecode_SubPixelTruncated(t *testing.T) {
	b := newRecord(uint8(KindPolygon)).box(0, 0, 5, 5).points([]int16{1, 2}, []int16{1, 2})
	b.options = uint16(OptSubPixelResolution)
	b.subX = []float32{1, 2}

	_, err := Decode("short", b.bytes())
	assert.ErrorIs(t, err, ErrTruncatedData)
}

func TestDecode_RectAndOval(t *testing.T) {
	testCases := []struct {
		name     string
		build    func() *recordBuilder
		wantKind Kind
		wantArc  int
		wantBox  *RectF
	}{
		{
			name:     "rectangle",
			build:    func() *recordBuilder { return newRecord(uint8(KindRect)).box(5, 6, 25, 46) },
			wantKind: KindRect,
		},
		{
			name:     "oval",
			build:    func() *recordBuilder { return newRecord(uint8(KindOval)).box(5, 6, 25, 46) },
			wantKind: KindOval,
		},
		{
			name: "rounded rectangle",
			build: func() *recordBuilder {
				b := newRecord(uint8(KindRect)).box(5, 6, 25, 46)
				b.arcSize = 12
				return b
			},
			wantKind: KindRect,
			wantArc:  12,
		},
		{
			name: "oval with arc size is a rounded rectangle",
			build: func() *recordBuilder {
				b := newRecord(uint8(KindOval)).box(5, 6, 25, 46)
				b.arcSize = 4
				return b
			},
			wantKind: KindRect,
			wantArc:  4,
		},
		{
			name: "sub-pixel rectangle",
			build: func() *recordBuilder {
				b := newRecord(uint8(KindRect)).box(5, 6, 25, 46)
				b.options = uint16(OptSubPixelResolution)
				b.x1, b.y1, b.x2, b.y2 = 6.5, 5.25, 39.5, 20
				return b
			},
			wantKind: KindRect,
			wantBox:  &RectF{X: 6.5, Y: 5.25, Width: 39.5, Height: 20},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Decode(tc.name, tc.build().bytes())
			require.NoError(t, err)

			assert.Equal(t, tc.wantKind, r.Kind)
			assert.Equal(t, Box{Top: 5, Left: 6, Bottom: 25, Right: 46}, r.Box)
			assert.Equal(t, tc.wantArc, r.ArcSize)
			assert.Equal(t, tc.wantBox, r.SubPixelBox)
			assert.Empty(t, r.Coordinates)
			if tc.wantBox == nil {
				assert.Equal(t, RectF{X: 6, Y: 5, Width: 40, Height: 20}, r.Bounds())
			} else {
				assert.Equal(t, *tc.wantBox, r.Bounds())
			}
		})
	}
}

func TestDecode_Line(t *testing.T) {
	t.Run("plain line", func(t *testing.T) {
		b := newRecord(uint8(KindLine)).box(52, 89, 104, 261)
		b.x1, b.y1, b.x2, b.y2 = 260, 52, 89, 103

		r, err := Decode("line1", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, KindLine, r.Kind)
		assert.Equal(t, &LineEnds{X1: 260, Y1: 52, X2: 89, Y2: 103}, r.Line)
		assert.Nil(t, r.Arrow)
		assert.Empty(t, r.Coordinates)
	})

	t.Run("sub-pixel ends", func(t *testing.T) {
		b := newRecord(uint8(KindLine)).box(156, 100, 159, 133)
		b.x1, b.y1, b.x2, b.y2 = 100.5, 158.5, 132.5, 156.5

		r, err := Decode("line2", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, &LineEnds{X1: 100.5, Y1: 158.5, X2: 132.5, Y2: 156.5}, r.Line)
		assert.Equal(t, RectF{X: 100.5, Y: 156.5, Width: 32, Height: 2}, r.Bounds())
	})

	t.Run("double headed arrow", func(t *testing.T) {
		b := newRecord(uint8(KindLine)).box(0, 0, 10, 10)
		b.subtype = uint16(SubtypeArrow)
		b.options = uint16(OptDoubleHeaded)
		b.arrowStyle = 2
		b.arrowHead = 15
		b.x2, b.y2 = 10, 10

		r, err := Decode("arrow", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, SubtypeArrow, r.Subtype)
		assert.Equal(t, &Arrow{Style: 2, HeadSize: 15, DoubleHeaded: true}, r.Arrow)
	})
}

func TestDecode_Angle(t *testing.T) {
	t.Run("three points", func(t *testing.T) {
		data := newRecord(uint8(KindAngle)).
			box(0, 0, 10, 10).
			points([]int16{10, 0, 0}, []int16{10, 10, 0}).
			bytes()

		r, err := Decode("angle", data)
		require.NoError(t, err)
		require.NotNil(t, r.ArcAngles)
		assert.InDelta(t, 0, r.ArcAngles.Start, 1e-9)
		assert.InDelta(t, 90, r.ArcAngles.End, 1e-9)
		assert.InDelta(t, 90, r.ArcAngles.Span(), 1e-9)
		assert.Len(t, r.Coordinates, 3)
	})

	t.Run("stored angles", func(t *testing.T) {
		b := newRecord(uint8(KindAngle)).box(0, 0, 10, 10)
		b.floats = []float32{30, 135}

		r, err := Decode("angle", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, &ArcAngles{Start: 30, End: 135}, r.ArcAngles)
		assert.Empty(t, r.Coordinates)
	})

	t.Run("stored angles truncated", func(t *testing.T) {
		b := newRecord(uint8(KindAngle)).box(0, 0, 10, 10)
		b.floats = []float32{30}

		_, err := Decode("angle", b.bytes())
		assert.ErrorIs(t, err, ErrTruncatedData)
	})

	t.Run("too few points", func(t *testing.T) {
		data := newRecord(uint8(KindAngle)).box(0, 0, 10, 10).points([]int16{1, 2}, []int16{1, 2}).bytes()

		r, err := Decode("angle", data)
		require.NoError(t, err)
		assert.Nil(t, r.ArcAngles)
		assert.NotEmpty(t, r.Notes)
	})
}

func TestDecode_FreehandSubtypes(t *testing.T) {
	t.Run("ellipse", func(t *testing.T) {
		b := newRecord(uint8(KindFreehand)).box(0, 0, 20, 40).points([]int16{0, 40}, []int16{10, 10})
		b.subtype = uint16(SubtypeEllipse)
		b.x1, b.y1, b.x2, b.y2 = 0, 10, 40, 10
		b.aspect = 0.5

		r, err := Decode("ellipse", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, &Ellipse{X1: 0, Y1: 10, X2: 40, Y2: 10, AspectRatio: 0.5}, r.Ellipse)
		assert.Nil(t, r.RotatedRect)
	})

	t.Run("rotated rectangle", func(t *testing.T) {
		b := newRecord(uint8(KindFreehand)).box(0, 0, 20, 40)
		b.subtype = uint16(SubtypeRotatedRect)
		b.x1, b.y1, b.x2, b.y2 = 0, 10, 40, 10
		b.aspect = 8

		r, err := Decode("rotated", b.bytes())
		require.NoError(t, err)
		assert.Equal(t, &RotatedRect{X1: 0, Y1: 10, X2: 40, Y2: 10, Width: 8}, r.RotatedRect)
		assert.Nil(t, r.Ellipse)
	})
}

func TestDecode_NoRoi(t *testing.T) {
	data := newRecord(uint8(KindNoRoi)).box(1, 2, 3, 4).bytes()

	r, err := Decode("deleted", data)
	require.NoError(t, err)
	assert.Equal(t, KindNoRoi, r.Kind)
	assert.Equal(t, Box{Top: 1, Left: 2, Bottom: 3, Right: 4}, r.Box)
	assert.Empty(t, r.Coordinates)
}

func TestDecode_Composite(t *testing.T) {
	b := newRecord(uint8(KindRect))
	b.floats = []float32{
		0, 0, 0, 1, 10, 0, 1, 10, 10, 1, 0, 10, 4,
		0, 20, 20, 1, 30, 20, 1, 30, 30, 4,
	}
	b.shapeSize = int32(len(b.floats))

	r, err := Decode("comp", b.bytes())
	require.NoError(t, err)

	assert.Equal(t, KindComposite, r.Kind)
	require.Len(t, r.Children, 2)
	require.Len(t, r.Paths, 2)
	assert.Equal(t, Box{Top: 0, Left: 0, Bottom: 30, Right: 30}, r.Box, "box is the union of the children")
	assert.Empty(t, r.Coordinates)

	first := r.Children[0]
	assert.Equal(t, KindPolygon, first.Kind)
	assert.Equal(t, "comp-1", first.Name)
	assert.Equal(t, []PointF{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, first.SubPixel)
	assert.Equal(t, Box{Top: 0, Left: 0, Bottom: 10, Right: 10}, first.Box)
	assert.Len(t, first.Coordinates, len(first.SubPixel))

	second := r.Children[1]
	assert.Equal(t, "comp-2", second.Name)
	assert.Equal(t, Box{Top: 20, Left: 20, Bottom: 30, Right: 30}, second.Box)
	assert.Equal(t, SegClose, r.Paths[1][len(r.Paths[1])-1].Op)

	assert.Equal(t, RectF{X: 0, Y: 0, Width: 30, Height: 30}, r.Bounds())
}

func TestDecode_CompositeCurves(t *testing.T) {
	b := newRecord(uint8(KindRect)).box(0, 0, 10, 10)
	b.floats = []float32{0, 0, 0, 2, 5, 10, 10, 0}
	b.shapeSize = int32(len(b.floats))

	r, err := Decode("curve", b.bytes())
	require.NoError(t, err)
	require.Len(t, r.Children, 1)

	child := r.Children[0]
	assert.Equal(t, KindPolyline, child.Kind, "open subpath")
	assert.Len(t, child.SubPixel, 1+curveSteps)
	assert.Equal(t, PointF{X: 10, Y: 0}, child.SubPixel[len(child.SubPixel)-1])
	assert.Equal(t, []Segment{
		{Op: SegMoveTo, Points: []PointF{{0, 0}}},
		{Op: SegQuadTo, Points: []PointF{{5, 10}, {10, 0}}},
	}, r.Paths[0])
	assert.Equal(t, Box{Top: 0, Left: 0, Bottom: 10, Right: 10}, r.Box, "header box is kept")
}

func TestDecode_CompositeErrors(t *testing.T) {
	testCases := []struct {
		name    string
		floats  []float32
		size    int32
		wantErr error
	}{
		{name: "unknown segment", floats: []float32{0, 0, 0, 7}, size: 4, wantErr: ErrUnsupportedShape},
		{name: "fractional segment", floats: []float32{0.5, 0, 0}, size: 3, wantErr: ErrUnsupportedShape},
		{name: "segment cut short", floats: []float32{0, 0, 0, 1, 5}, size: 5, wantErr: ErrTruncatedData},
		{name: "fewer floats than declared", floats: []float32{0, 0, 0}, size: 10, wantErr: ErrTruncatedData},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := newRecord(uint8(KindRect))
			b.floats = tc.floats
			b.shapeSize = tc.size

			r, err := Decode("bad", b.bytes())
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	valid := newRecord(uint8(KindPolygon)).box(0, 0, 10, 10).points([]int16{1, 2}, []int16{3, 4}).bytes()

	mutate := func(fn func([]byte) []byte) []byte {
		buf := append([]byte(nil), valid...)
		return fn(buf)
	}

	testCases := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "empty", data: nil, wantErr: ErrTruncatedData},
		{name: "ten bytes", data: valid[:10], wantErr: ErrTruncatedData},
		{name: "header only partly present", data: valid[:HeaderSize-1], wantErr: ErrTruncatedData},
		{name: "coordinates cut", data: valid[:len(valid)-1], wantErr: ErrTruncatedData},
		{name: "bad magic", data: mutate(func(b []byte) []byte { copy(b, "Ioux"); return b }), wantErr: ErrInvalidSignature},
		{name: "zeroed magic", data: mutate(func(b []byte) []byte { copy(b, []byte{0, 0, 0, 0}); return b }), wantErr: ErrInvalidSignature},
		{name: "type 99", data: mutate(func(b []byte) []byte { b[6] = 99; return b }), wantErr: ErrUnsupportedShape},
		{name: "type 11", data: mutate(func(b []byte) []byte { b[6] = 11; return b }), wantErr: ErrUnsupportedShape},
		{name: "text subtype", data: mutate(func(b []byte) []byte { b[49] = byte(SubtypeText); return b }), wantErr: ErrUnsupportedShape},
		{name: "image subtype", data: mutate(func(b []byte) []byte { b[49] = byte(SubtypeImage); return b }), wantErr: ErrUnsupportedShape},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Decode("bad", tc.data)
			require.Error(t, err)
			assert.Nil(t, r, "no partial record")
			assert.True(t, errors.Is(err, tc.wantErr), "got %v, want %v", err, tc.wantErr)
		})
	}
}

func TestDecode_SignatureMutationAlwaysRejected(t *testing.T) {
	valid := newRecord(uint8(KindRect)).box(0, 0, 10, 10).bytes()
	for i := 0; i < 4; i++ {
		buf := append([]byte(nil), valid...)
		buf[i] ^= 0xff

		_, err := Decode("sig", buf)
		assert.ErrorIs(t, err, ErrInvalidSignature, "byte %d", i)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	builders := map[string]*recordBuilder{
		"rect":    newRecord(uint8(KindRect)).box(1, 2, 3, 4),
		"oval":    newRecord(uint8(KindOval)).box(1, 2, 30, 40),
		"line":    newRecord(uint8(KindLine)).box(1, 2, 3, 4),
		"point":   newRecord(uint8(KindPoint)).box(0, 0, 9, 9).points([]int16{1, 2, 3}, []int16{3, 2, 1}),
		"polygon": newRecord(uint8(KindPolygon)).box(0, 0, 9, 9).points([]int16{0, 9, 9, 0}, []int16{0, 0, 9, 9}),
	}
	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			data := b.bytes()
			first, err := Decode(name, data)
			require.NoError(t, err)
			second, err := Decode(name, data)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestDecode_InvertedBoxIsNoted(t *testing.T) {
	data := newRecord(uint8(KindRect)).box(20, 20, 10, 10).bytes()

	r, err := Decode("inverted", data)
	require.NoError(t, err)
	require.Len(t, r.Notes, 1)
	assert.Contains(t, r.Notes[0], "inverted")
}

func TestDecode_StylingAndPosition(t *testing.T) {
	b := newRecord(uint8(KindRect)).box(0, 0, 10, 10)
	b.strokeWidth = 3
	b.strokeColor = 0xffff0000
	b.fillColor = 0x8000ff00
	b.position = 7

	r, err := Decode("styled", b.bytes())
	require.NoError(t, err)

	require.NotNil(t, r.StrokeWidth)
	assert.Equal(t, 3.0, *r.StrokeWidth)
	require.NotNil(t, r.StrokeColor)
	assert.Equal(t, "#ff0000", r.StrokeColor.Hex())
	require.NotNil(t, r.FillColor)
	assert.Equal(t, "#00ff0080", r.FillColor.Hex())
	assert.Equal(t, &Position{Position: 7}, r.Position)

	b.version = 217
	old, err := Decode("styled", b.bytes())
	require.NoError(t, err)
	assert.Nil(t, old.StrokeWidth)
	assert.Nil(t, old.StrokeColor)
	assert.Nil(t, old.FillColor)
}

func TestDecode_UnsetOptionalFields(t *testing.T) {
	r, err := Decode("plain", newRecord(uint8(KindRect)).box(0, 0, 1, 1).bytes())
	require.NoError(t, err)

	assert.Nil(t, r.Position)
	assert.Nil(t, r.StrokeWidth)
	assert.Nil(t, r.StrokeColor)
	assert.Nil(t, r.FillColor)
	assert.Nil(t, r.LabelColor)
	assert.Empty(t, r.Counters)
}

func TestDecode_NameFallback(t *testing.T) {
	data := newRecord(uint8(KindRect)).box(0, 0, 1, 1).bytes()

	r, err := Decode("", data)
	require.NoError(t, err)
	assert.Equal(t, defaultName, r.Name)
}
