package geometry

import (
	"math"
	"testing"
)

func TestAffineToProjectiveHomogeneousRow(t *testing.T) {
	a := AffineTransform{A: 2, B: 0.5, TX: 10, C: -0.5, D: 3, TY: -4}
	h := a.ToProjective()
	if h[2][0] != 0 || h[2][1] != 0 || h[2][2] != 1 {
		t.Fatalf("homogeneous row is [%g %g %g], want [0 0 1]", h[2][0], h[2][1], h[2][2])
	}

	p := Point2D{X: 3, Y: -2}
	got := h.Apply(p)
	want := a.Apply(p)
	if got != want {
		t.Errorf("projective apply %v differs from affine apply %v", got, want)
	}
}

func TestProjectiveInverseRoundTrip(t *testing.T) {
	h := ProjectiveTransform{
		{1.2, 0.1, 30},
		{-0.2, 0.9, -12},
		{0.0005, -0.0002, 1},
	}
	inv, ok := h.Inverse()
	if !ok {
		t.Fatal("Inverse() reported a singular matrix")
	}

	points := []Point2D{{X: 0, Y: 0}, {X: 100, Y: 40}, {X: -30, Y: 75}}
	for _, p := range points {
		back := inv.Apply(h.Apply(p))
		if p.Distance(back) > 1e-9 {
			t.Errorf("round trip of %v drifted to %v", p, back)
		}
	}
}

func TestProjectiveInverseSingular(t *testing.T) {
	var zero ProjectiveTransform
	if _, ok := zero.Inverse(); ok {
		t.Error("Inverse() of the zero matrix should fail")
	}
}

func TestProjectiveApplyVanishingPoint(t *testing.T) {
	h := ProjectiveTransform{{1, 0, 0}, {0, 1, 0}, {1, 0, 0}}
	got := h.Apply(Point2D{X: 0, Y: 5})
	if !math.IsInf(got.X, 1) || !math.IsInf(got.Y, 1) {
		t.Errorf("point on the line at infinity mapped to %v, want +Inf", got)
	}
}

func TestProjectiveMulMatchesSequentialApply(t *testing.T) {
	a := AffineTransform{A: 1, D: 1, TX: 5, TY: -3}.ToProjective()
	b := AffineTransform{A: 2, D: 2}.ToProjective()

	p := Point2D{X: 7, Y: 11}
	composed := a.Mul(b).Apply(p)
	sequential := a.Apply(b.Apply(p))
	if composed.Distance(sequential) > 1e-12 {
		t.Errorf("composed apply %v differs from sequential %v", composed, sequential)
	}
}

func TestCentroidAndBoundingBox(t *testing.T) {
	points := []Point2D{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 2}, {X: 0, Y: 2}}
	c := Centroid(points)
	if c.X != 2 || c.Y != 1 {
		t.Errorf("centroid = %v, want (2, 1)", c)
	}
	box := BoundingBox(points)
	if box.X != 0 || box.Y != 0 || box.Width != 4 || box.Height != 2 {
		t.Errorf("bounding box = %+v", box)
	}
}
