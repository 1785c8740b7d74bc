// Package transform estimates geometric transforms from point
// correspondences and warps image tensors through them.
package transform

import (
	"fmt"
	"math"

	"sign-relight/pkg/geometry"

	"gonum.org/v1/gonum/mat"
)

// Mode selects how a transform is estimated from correspondences.
type Mode int

const (
	ModePerspective Mode = iota // 4-point homography (DLT)
	ModeAffine                  // 3-point affine
	ModeTranslateScale          // centroid translation + area-ratio scale
)

func (m Mode) String() string {
	switch m {
	case ModePerspective:
		return "perspective"
	case ModeAffine:
		return "affine"
	case ModeTranslateScale:
		return "translate_scale"
	default:
		return "unknown"
	}
}

// ParseMode parses a mode name as used on the command line.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "perspective":
		return ModePerspective, nil
	case "affine":
		return ModeAffine, nil
	case "translate_scale", "translate+scale":
		return ModeTranslateScale, nil
	default:
		return 0, fmt.Errorf("unknown transform mode %q", name)
	}
}

// Estimate computes a 3x3 transform mapping src points to tgt points using
// the requested mode. Perspective mode with only 3 correspondences falls
// back to the affine solution.
func Estimate(mode Mode, src, tgt []geometry.Point2D) (geometry.ProjectiveTransform, error) {
	if len(src) != len(tgt) {
		return geometry.ProjectiveTransform{}, fmt.Errorf(
			"point count mismatch: %d vs %d", len(src), len(tgt))
	}
	if len(src) < 3 {
		return geometry.ProjectiveTransform{}, fmt.Errorf(
			"need at least 3 points, got %d", len(src))
	}

	switch mode {
	case ModeAffine:
		return EstimateAffine(src[:3], tgt[:3])
	case ModePerspective:
		if len(src) == 3 {
			return EstimateAffine(src, tgt)
		}
		return EstimateHomography(src[:4], tgt[:4])
	case ModeTranslateScale:
		return EstimateTranslateScale(src, tgt)
	default:
		return geometry.ProjectiveTransform{}, fmt.Errorf("unknown transform mode %d", mode)
	}
}

// EstimateAffine computes an affine transform from exactly 3 point pairs and
// embeds it into homogeneous 3x3 form with last row [0, 0, 1].
//
// Collinear correspondences make the system singular; the solver error is
// returned when it detects this, but near-collinear inputs still produce a
// numerically unstable transform.
func EstimateAffine(src, tgt []geometry.Point2D) (geometry.ProjectiveTransform, error) {
	if len(src) != 3 || len(tgt) != 3 {
		return geometry.ProjectiveTransform{}, fmt.Errorf(
			"affine estimation needs exactly 3 points, got %d", len(src))
	}

	// Build matrix equation: [x', y'] = [a, b, tx; c, d, ty] * [x, y, 1]
	A := mat.NewDense(6, 6, nil)
	B := mat.NewVecDense(6, nil)

	for i := 0; i < 3; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := tgt[i].X, tgt[i].Y

		// x' = a*x + b*y + tx
		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		B.SetVec(i*2, xp)

		// y' = c*x + d*y + ty
		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		B.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return geometry.ProjectiveTransform{}, fmt.Errorf("affine solve failed: %w", err)
	}

	affine := geometry.AffineTransform{
		A:  params.AtVec(0),
		B:  params.AtVec(1),
		TX: params.AtVec(2),
		C:  params.AtVec(3),
		D:  params.AtVec(4),
		TY: params.AtVec(5),
	}
	return affine.ToProjective(), nil
}

// EstimateHomography computes a homography from exactly 4 point pairs using
// the direct linear transform: 8 unknowns h00..h21 with h22 fixed to 1.
func EstimateHomography(src, tgt []geometry.Point2D) (geometry.ProjectiveTransform, error) {
	if len(src) != 4 || len(tgt) != 4 {
		return geometry.ProjectiveTransform{}, fmt.Errorf(
			"homography estimation needs exactly 4 points, got %d", len(src))
	}

	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		xp, yp := tgt[i].X, tgt[i].Y
		r := i * 2

		// x' = (h00*x + h01*y + h02) / (h20*x + h21*y + 1)
		A.Set(r, 0, x)
		A.Set(r, 1, y)
		A.Set(r, 2, 1)
		A.Set(r, 6, -x*xp)
		A.Set(r, 7, -y*xp)
		B.SetVec(r, xp)

		// y' = (h10*x + h11*y + h12) / (h20*x + h21*y + 1)
		A.Set(r+1, 3, x)
		A.Set(r+1, 4, y)
		A.Set(r+1, 5, 1)
		A.Set(r+1, 6, -x*yp)
		A.Set(r+1, 7, -y*yp)
		B.SetVec(r+1, yp)
	}

	var h mat.VecDense
	if err := h.SolveVec(A, B); err != nil {
		return geometry.ProjectiveTransform{}, fmt.Errorf("homography solve failed: %w", err)
	}

	return geometry.ProjectiveTransform{
		{h.AtVec(0), h.AtVec(1), h.AtVec(2)},
		{h.AtVec(3), h.AtVec(4), h.AtVec(5)},
		{h.AtVec(6), h.AtVec(7), 1},
	}, nil
}

// EstimateTranslateScale computes a uniform scale from the polygon area
// ratio and a translation between the point set centroids.
func EstimateTranslateScale(src, tgt []geometry.Point2D) (geometry.ProjectiveTransform, error) {
	if len(tgt) > len(src) {
		tgt = tgt[:len(src)]
	}
	srcArea := geometry.Area(src)
	tgtArea := geometry.Area(tgt)
	if srcArea == 0 {
		return geometry.ProjectiveTransform{}, fmt.Errorf("source polygon has zero area")
	}
	scale := math.Sqrt(tgtArea / srcArea)

	srcCenter := geometry.Centroid(src)
	tgtCenter := geometry.Centroid(tgt)

	affine := geometry.AffineTransform{
		A: scale, TX: tgtCenter.X - scale*srcCenter.X,
		D: scale, TY: tgtCenter.Y - scale*srcCenter.Y,
	}
	return affine.ToProjective(), nil
}

// AlignmentError calculates the mean L2 distance between transformed source
// points and their target points.
func AlignmentError(src, tgt []geometry.Point2D, h geometry.ProjectiveTransform) float64 {
	if len(src) != len(tgt) || len(src) == 0 {
		return math.Inf(1)
	}
	var total float64
	for i := range src {
		total += h.Apply(src[i]).Distance(tgt[i])
	}
	return total / float64(len(src))
}
