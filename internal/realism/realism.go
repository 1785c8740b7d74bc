package realism

import (
	"fmt"
	"math"

	"sign-relight/internal/imgtensor"
	"sign-relight/internal/relight"
	"sign-relight/internal/transform"
	"sign-relight/pkg/geometry"

	"github.com/edaniels/golog"
	"gonum.org/v1/gonum/stat"
)

// Evaluator fits relight coefficients on clean frames and scores patched
// frames against their labeled patch corners.
type Evaluator struct {
	Method  relight.Method
	GeoMode transform.Mode
	Interp  transform.Interp

	applier *relight.Applier
	logger  golog.Logger
}

// NewEvaluator creates an Evaluator for one experiment configuration.
func NewEvaluator(method relight.Method, geoMode transform.Mode, logger golog.Logger) *Evaluator {
	return &Evaluator{
		Method:  method,
		GeoMode: geoMode,
		Interp:  transform.InterpBilinear,
		applier: relight.NewApplier(logger),
		logger:  logger,
	}
}

// FitSign estimates the canonical-to-image transform from the sign corner
// correspondence and fits relight coefficients from the sign region.
func (e *Evaluator) FitSign(img, signMask, synObj *imgtensor.Tensor,
	src, tgt []geometry.Point2D) (relight.Coeffs, geometry.ProjectiveTransform, error) {

	h, err := transform.Estimate(e.GeoMode, src, tgt)
	if err != nil {
		return relight.Coeffs{}, geometry.ProjectiveTransform{}, err
	}
	coeffs, err := relight.Fit(e.Method, relight.FitInput{
		Image:     img,
		Mask:      signMask,
		SynObj:    synObj,
		Transform: h,
		Interp:    e.Interp,
	})
	if err != nil {
		return relight.Coeffs{}, geometry.ProjectiveTransform{}, err
	}
	return coeffs, h, nil
}

// PatchResult holds the per-frame scores of one patched photograph.
type PatchResult struct {
	// GeometricError is the mean L2 distance between the canonical patch
	// corners projected through the sign transform and the labeled corners.
	GeometricError float64
	// RelightError is the RMSE between the rendered patch and the real
	// photograph inside the warped patch mask.
	RelightError float64
	// Render is the photograph with the relit patch composited in.
	Render *imgtensor.Tensor
	// WarpedMask is the patch mask in image coordinates.
	WarpedMask *imgtensor.Tensor
}

// EvaluatePatch renders the relit synthetic patch into the photograph and
// scores it. patchSrc are the patch corners in the canonical sign frame,
// patchTgt the labeled corners in the photograph, and signTf the transform
// fitted from the sign correspondence.
func (e *Evaluator) EvaluatePatch(img, patch, patchMask *imgtensor.Tensor,
	patchSrc, patchTgt []geometry.Point2D, signTf geometry.ProjectiveTransform,
	coeffs relight.Coeffs) (*PatchResult, error) {

	if len(patchSrc) != 4 || len(patchTgt) != 4 {
		return nil, fmt.Errorf("patch evaluation needs 4 corner pairs, got %d/%d",
			len(patchSrc), len(patchTgt))
	}

	// Where the sign transform alone would place the patch, versus where the
	// annotators saw it.
	projected := signTf.ApplyAll(patchSrc)
	var geoErr float64
	for i := range projected {
		geoErr += projected[i].Distance(patchTgt[i])
	}
	geoErr /= float64(len(projected))

	patchTf, err := transform.EstimateHomography(patchSrc, patchTgt)
	if err != nil {
		return nil, fmt.Errorf("patch transform estimation failed: %w", err)
	}

	relit, err := e.applier.Apply(patch, coeffs)
	if err != nil {
		return nil, fmt.Errorf("relighting failed: %w", err)
	}
	warpedPatch, err := transform.WarpPerspective(relit, patchTf, img.H, img.W, e.Interp)
	if err != nil {
		return nil, fmt.Errorf("patch warp failed: %w", err)
	}
	warpedPatch.Clamp01()
	warpedMask, err := relight.WarpMask(patchMask, patchTf, img.H, img.W)
	if err != nil {
		return nil, err
	}

	realPix, err := relight.ExtractMaskedPixels(img, warpedMask)
	if err != nil {
		return nil, fmt.Errorf("patch region extraction failed: %w", err)
	}
	rendPix, err := relight.ExtractMaskedPixels(warpedPatch, warpedMask)
	if err != nil {
		return nil, err
	}
	var sqSum float64
	var count int
	for c := 0; c < 3; c++ {
		for i := range realPix[c] {
			d := realPix[c][i] - rendPix[c][i]
			sqSum += d * d
			count++
		}
	}
	relightErr := math.Sqrt(sqSum / float64(count))

	render, err := imgtensor.Composite(img, warpedPatch, warpedMask)
	if err != nil {
		return nil, err
	}

	return &PatchResult{
		GeometricError: geoErr,
		RelightError:   relightErr,
		Render:         render,
		WarpedMask:     warpedMask,
	}, nil
}

// Summary holds aggregate statistics over per-frame errors.
type Summary struct {
	Mean, Std, Max, Min float64
	Count               int
}

// Summarize computes mean, population standard deviation, max, and min.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN(), Max: math.NaN(), Min: math.NaN()}
	}
	s := Summary{
		Mean:  stat.Mean(values, nil),
		Max:   values[0],
		Min:   values[0],
		Count: len(values),
	}
	var sqSum float64
	for _, v := range values {
		d := v - s.Mean
		sqSum += d * d
		if v > s.Max {
			s.Max = v
		}
		if v < s.Min {
			s.Min = v
		}
	}
	s.Std = math.Sqrt(sqSum / float64(len(values)))
	return s
}
