// Package geometry provides basic geometric types used throughout the application.
package geometry

import (
	"math"
)

// Point2D represents a 2D point with floating-point coordinates.
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint2D creates a new Point2D.
func NewPoint2D(x, y float64) Point2D {
	return Point2D{X: x, Y: y}
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Add returns the sum of two points.
func (p Point2D) Add(other Point2D) Point2D {
	return Point2D{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points.
func (p Point2D) Sub(other Point2D) Point2D {
	return Point2D{X: p.X - other.X, Y: p.Y - other.Y}
}

// Scale returns the point scaled by a factor.
func (p Point2D) Scale(factor float64) Point2D {
	return Point2D{X: p.X * factor, Y: p.Y * factor}
}

// Rect represents a rectangle with floating-point coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point2D) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point2D {
	return Point2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Centroid computes the centroid (average position) of a set of points.
func Centroid(points []Point2D) Point2D {
	if len(points) == 0 {
		return Point2D{}
	}
	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(points))
	return Point2D{X: sumX / n, Y: sumY / n}
}

// BoundingBox computes the axis-aligned bounding box of a set of points.
func BoundingBox(points []Point2D) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// AffineTransform represents a 2x3 affine transformation matrix.
// [a b tx]
// [c d ty]
type AffineTransform struct {
	A, B, TX float64
	C, D, TY float64
}

// Identity returns the identity transform.
func Identity() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// Translation returns a translation transform.
func Translation(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, TX: tx, TY: ty}
}

// Apply applies the transform to a point.
func (t AffineTransform) Apply(p Point2D) Point2D {
	return Point2D{
		X: t.A*p.X + t.B*p.Y + t.TX,
		Y: t.C*p.X + t.D*p.Y + t.TY,
	}
}

// Compose returns this transform composed with another (this * other).
func (t AffineTransform) Compose(other AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*other.A + t.B*other.C,
		B:  t.A*other.B + t.B*other.D,
		TX: t.A*other.TX + t.B*other.TY + t.TX,
		C:  t.C*other.A + t.D*other.C,
		D:  t.C*other.B + t.D*other.D,
		TY: t.C*other.TX + t.D*other.TY + t.TY,
	}
}

// ToProjective embeds the affine transform into a 3x3 projective transform
// by appending the homogeneous row [0, 0, 1].
func (t AffineTransform) ToProjective() ProjectiveTransform {
	return ProjectiveTransform{
		{t.A, t.B, t.TX},
		{t.C, t.D, t.TY},
		{0, 0, 1},
	}
}

// ProjectiveTransform represents a 3x3 homography in row-major order,
// mapping source point coordinates to target coordinates.
type ProjectiveTransform [3][3]float64

// IdentityProjective returns the identity homography.
func IdentityProjective() ProjectiveTransform {
	return ProjectiveTransform{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply maps a point through the homography, including the perspective divide.
func (h ProjectiveTransform) Apply(p Point2D) Point2D {
	w := h[2][0]*p.X + h[2][1]*p.Y + h[2][2]
	if w == 0 {
		return Point2D{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point2D{
		X: (h[0][0]*p.X + h[0][1]*p.Y + h[0][2]) / w,
		Y: (h[1][0]*p.X + h[1][1]*p.Y + h[1][2]) / w,
	}
}

// ApplyAll maps a slice of points through the homography.
func (h ProjectiveTransform) ApplyAll(points []Point2D) []Point2D {
	out := make([]Point2D, len(points))
	for i, p := range points {
		out[i] = h.Apply(p)
	}
	return out
}

// Det returns the determinant of the 3x3 matrix.
func (h ProjectiveTransform) Det() float64 {
	return h[0][0]*(h[1][1]*h[2][2]-h[1][2]*h[2][1]) -
		h[0][1]*(h[1][0]*h[2][2]-h[1][2]*h[2][0]) +
		h[0][2]*(h[1][0]*h[2][1]-h[1][1]*h[2][0])
}

// Inverse returns the inverse homography, if it exists.
func (h ProjectiveTransform) Inverse() (ProjectiveTransform, bool) {
	det := h.Det()
	if math.Abs(det) < 1e-12 {
		return ProjectiveTransform{}, false
	}
	inv := 1.0 / det
	var out ProjectiveTransform
	out[0][0] = (h[1][1]*h[2][2] - h[1][2]*h[2][1]) * inv
	out[0][1] = (h[0][2]*h[2][1] - h[0][1]*h[2][2]) * inv
	out[0][2] = (h[0][1]*h[1][2] - h[0][2]*h[1][1]) * inv
	out[1][0] = (h[1][2]*h[2][0] - h[1][0]*h[2][2]) * inv
	out[1][1] = (h[0][0]*h[2][2] - h[0][2]*h[2][0]) * inv
	out[1][2] = (h[0][2]*h[1][0] - h[0][0]*h[1][2]) * inv
	out[2][0] = (h[1][0]*h[2][1] - h[1][1]*h[2][0]) * inv
	out[2][1] = (h[0][1]*h[2][0] - h[0][0]*h[2][1]) * inv
	out[2][2] = (h[0][0]*h[1][1] - h[0][1]*h[1][0]) * inv
	return out, true
}

// Mul returns this transform composed with another (this * other).
func (h ProjectiveTransform) Mul(other ProjectiveTransform) ProjectiveTransform {
	var out ProjectiveTransform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += h[i][k] * other[k][j]
			}
		}
	}
	return out
}
