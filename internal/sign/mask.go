package sign

import (
	"fmt"
	"math"

	"sign-relight/internal/imgtensor"
	"sign-relight/pkg/geometry"
)

// Octagon corner-cut fraction: a regular octagon inscribed in a unit square
// starts its diagonal edges at 1/(2+sqrt(2)) from each corner.
var octCut = 1 / (2 + math.Sqrt2)

// Pentagon geometry for a point-up sign blank: the side vertices sit at
// roughly 38% of the height.
const pentagonShoulder = 0.38

// GenerateMask rasterizes the canonical (frontal) outline of a sign shape
// into a single-channel binary mask of the given pixel width, with height
// derived from the physical height/width ratio. It also returns the source
// corner points used for correspondence with annotated photographs: three
// points for circles and triangles, four for everything else, in clockwise
// order starting at the top/left.
func GenerateMask(shape Shape, hwRatio float64, widthPx int) (*imgtensor.Tensor, []geometry.Point2D, error) {
	if widthPx < 2 {
		return nil, nil, fmt.Errorf("mask width must be at least 2 pixels, got %d", widthPx)
	}
	if hwRatio <= 0 {
		return nil, nil, fmt.Errorf("height/width ratio must be positive, got %g", hwRatio)
	}
	heightPx := int(math.Round(float64(widthPx) * hwRatio))
	if heightPx < 2 {
		return nil, nil, fmt.Errorf("mask height %d is degenerate", heightPx)
	}

	w := float64(widthPx)
	h := float64(heightPx)

	var polygon, src []geometry.Point2D
	switch shape {
	case ShapeCircle:
		// Handled by the ellipse equation below; the correspondence points
		// are the top, right, and bottom extremes.
		src = []geometry.Point2D{{X: w / 2, Y: 0}, {X: w, Y: h / 2}, {X: w / 2, Y: h}}
	case ShapeTriangle:
		polygon = []geometry.Point2D{{X: w / 2, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
		src = polygon
	case ShapeTriangleInverted:
		polygon = []geometry.Point2D{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w / 2, Y: h}}
		src = polygon
	case ShapeSquare, ShapeRect:
		polygon = []geometry.Point2D{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
		src = polygon
	case ShapeDiamond:
		polygon = []geometry.Point2D{{X: w / 2, Y: 0}, {X: w, Y: h / 2}, {X: w / 2, Y: h}, {X: 0, Y: h / 2}}
		src = polygon
	case ShapePentagon:
		sy := pentagonShoulder * h
		polygon = []geometry.Point2D{
			{X: w / 2, Y: 0}, {X: w, Y: sy}, {X: 0.82 * w, Y: h}, {X: 0.18 * w, Y: h}, {X: 0, Y: sy},
		}
		src = []geometry.Point2D{
			{X: 0, Y: sy}, {X: w / 2, Y: 0}, {X: w, Y: sy}, {X: w / 2, Y: h},
		}
	case ShapeOctagon:
		cx, cy := octCut*w, octCut*h
		polygon = []geometry.Point2D{
			{X: cx, Y: 0}, {X: w - cx, Y: 0},
			{X: w, Y: cy}, {X: w, Y: h - cy},
			{X: w - cx, Y: h}, {X: cx, Y: h},
			{X: 0, Y: h - cy}, {X: 0, Y: cy},
		}
		// Midpoints of the diagonal edges, i.e. the visual corners.
		src = []geometry.Point2D{
			{X: cx / 2, Y: cy / 2}, {X: w - cx/2, Y: cy / 2},
			{X: w - cx/2, Y: h - cy/2}, {X: cx / 2, Y: h - cy/2},
		}
	default:
		return nil, nil, fmt.Errorf("unknown sign shape %q", shape)
	}

	mask := imgtensor.New(1, 1, heightPx, widthPx)
	for y := 0; y < heightPx; y++ {
		for x := 0; x < widthPx; x++ {
			p := geometry.Point2D{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			inside := false
			if shape == ShapeCircle {
				dx := (p.X - w/2) / (w / 2)
				dy := (p.Y - h/2) / (h / 2)
				inside = dx*dx+dy*dy <= 1
			} else {
				inside = geometry.PointInPolygon(p, polygon)
			}
			if inside {
				mask.Set(0, 0, y, x, 1)
			}
		}
	}
	return mask, src, nil
}

// GenerateClassMask is a convenience wrapper that looks up the class
// metadata and rasterizes its canonical mask.
func (r *Registry) GenerateClassMask(name string, widthPx int) (*imgtensor.Tensor, []geometry.Point2D, error) {
	meta, err := r.ClassByName(name)
	if err != nil {
		return nil, nil, err
	}
	return GenerateMask(meta.Shape, meta.HWRatio(), widthPx)
}
