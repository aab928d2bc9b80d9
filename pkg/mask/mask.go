// Package mask rasterises decoded ROIs into images. A pixel belongs to a
// region when its centre lies inside the region's outline, with polygons
// filled by the even-odd rule.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ssargent/roiread/pkg/roi"
)

// ErrNoArea is returned for kinds that enclose no pixels: lines, angles,
// points and empty records.
var ErrNoArea = errors.New("roi encloses no area")

// Extent returns the smallest image size that holds every given ROI.
func Extent(rs ...*roi.ROI) (width, height int) {
	for _, r := range rs {
		b := r.Bounds()
		width = max(width, int(math.Ceil(b.X+b.Width)))
		height = max(height, int(math.Ceil(b.Y+b.Height)))
	}
	return width, height
}

// Render returns a white-on-black mask of r. A zero width or height is
// replaced by the extent of r.
func Render(r *roi.ROI, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		width, height = Extent(r)
	}
	img := imaging.New(width, height, color.Black)
	if err := Fill(img, r, color.White); err != nil {
		return nil, err
	}
	return img, nil
}

// RenderCollection draws every area ROI of coll onto one image, later
// entries on top. Each ROI uses its own fill color when it has one, else a
// color from Palette. ROIs without area are skipped.
func RenderCollection(coll *roi.Collection, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		var rs []*roi.ROI
		for _, r := range coll.All() {
			rs = append(rs, r)
		}
		width, height = Extent(rs...)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: empty collection", ErrNoArea)
	}

	img := imaging.New(width, height, color.Black)
	palette := Palette(coll.Len())
	i := 0
	for key, r := range coll.All() {
		var c color.Color = palette[i]
		if r.FillColor != nil {
			c = r.FillColor.RGBA()
		}
		i++
		if err := Fill(img, r, c); err != nil {
			if errors.Is(err, ErrNoArea) {
				continue
			}
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}
	return img, nil
}

// Palette returns n visually distinct opaque colors, evenly spaced in hue.
func Palette(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		hue := 360 * float64(i) / float64(max(n, 1))
		c := colorful.Hcl(hue, 0.8, 0.7).Clamped()
		r, g, b := c.RGB255()
		colors[i] = color.NRGBA{R: r, G: g, B: b, A: 0xff}
	}
	return colors
}

// Fill paints the pixels of dst covered by r with c.
func Fill(dst *image.NRGBA, r *roi.ROI, c color.Color) error {
	inside, err := coverage(r)
	if err != nil {
		return err
	}
	nc := color.NRGBAModel.Convert(c).(color.NRGBA)
	inside(dst.Bounds(), func(x, y int) {
		dst.SetNRGBA(x, y, nc)
	})
	return nil
}

// Save writes img to path; the format follows the file extension.
func Save(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save mask %s: %w", path, err)
	}
	return nil
}

// scanFunc calls set for every covered pixel within clip.
type scanFunc func(clip image.Rectangle, set func(x, y int))

func coverage(r *roi.ROI) (scanFunc, error) {
	switch r.Kind {
	case roi.KindRect:
		return rectScan(r), nil
	case roi.KindOval:
		return ovalScan(r), nil
	case roi.KindPolygon, roi.KindFreehand, roi.KindTraced:
		pts := r.Points()
		if len(pts) < 3 {
			return nil, fmt.Errorf("%w: %s with %d points", ErrNoArea, r.Kind, len(pts))
		}
		return polygonScan([][]roi.PointF{pts}), nil
	case roi.KindComposite:
		var rings [][]roi.PointF
		for _, child := range r.Children {
			if pts := child.Points(); len(pts) >= 3 {
				rings = append(rings, pts)
			}
		}
		if len(rings) == 0 {
			return nil, fmt.Errorf("%w: composite without closed paths", ErrNoArea)
		}
		return polygonScan(rings), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoArea, r.Kind)
}

// frame is the rectangle of a rect or oval at the best available precision.
func frame(r *roi.ROI) roi.RectF {
	if r.SubPixelBox != nil {
		return *r.SubPixelBox
	}
	return roi.RectF{
		X:      float64(r.Box.Left),
		Y:      float64(r.Box.Top),
		Width:  float64(r.Box.Width()),
		Height: float64(r.Box.Height()),
	}
}

func rectScan(r *roi.ROI) scanFunc {
	f := frame(r)
	radius := math.Min(float64(r.ArcSize)/2, math.Min(f.Width, f.Height)/2)
	return func(clip image.Rectangle, set func(x, y int)) {
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			py := float64(y) + 0.5
			if py < f.Y || py >= f.Y+f.Height {
				continue
			}
			for x := clip.Min.X; x < clip.Max.X; x++ {
				px := float64(x) + 0.5
				if px < f.X || px >= f.X+f.Width {
					continue
				}
				if radius > 0 && !inRoundedCorner(f, radius, px, py) {
					continue
				}
				set(x, y)
			}
		}
	}
}

// inRoundedCorner reports whether a point already inside f survives the
// rounding of its corners.
func inRoundedCorner(f roi.RectF, radius, px, py float64) bool {
	cx := math.Max(f.X+radius, math.Min(px, f.X+f.Width-radius))
	cy := math.Max(f.Y+radius, math.Min(py, f.Y+f.Height-radius))
	dx, dy := px-cx, py-cy
	return dx*dx+dy*dy <= radius*radius
}

func ovalScan(r *roi.ROI) scanFunc {
	f := frame(r)
	a, b := f.Width/2, f.Height/2
	cx, cy := f.X+a, f.Y+b
	return func(clip image.Rectangle, set func(x, y int)) {
		if a <= 0 || b <= 0 {
			return
		}
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			dy := (float64(y) + 0.5 - cy) / b
			if dy*dy > 1 {
				continue
			}
			for x := clip.Min.X; x < clip.Max.X; x++ {
				dx := (float64(x) + 0.5 - cx) / a
				if dx*dx+dy*dy <= 1 {
					set(x, y)
				}
			}
		}
	}
}

// polygonScan fills the even-odd union of rings row by row, sampling each
// row at its pixel centres.
func polygonScan(rings [][]roi.PointF) scanFunc {
	return func(clip image.Rectangle, set func(x, y int)) {
		var xs []float64
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			py := float64(y) + 0.5
			xs = xs[:0]
			for _, ring := range rings {
				for i := range ring {
					p, q := ring[i], ring[(i+1)%len(ring)]
					if (p.Y <= py) == (q.Y <= py) {
						continue
					}
					xs = append(xs, p.X+(py-p.Y)*(q.X-p.X)/(q.Y-p.Y))
				}
			}
			sort.Float64s(xs)
			for i := 0; i+1 < len(xs); i += 2 {
				from := max(int(math.Ceil(xs[i]-0.5)), clip.Min.X)
				to := min(int(math.Ceil(xs[i+1]-0.5)), clip.Max.X)
				for x := from; x < to; x++ {
					set(x, y)
				}
			}
		}
	}
}
