package relight

import (
	"fmt"
	"math"
	"sort"

	"sign-relight/internal/colorspace"
	"sign-relight/internal/imgtensor"
	"sign-relight/internal/transform"
	"sign-relight/pkg/geometry"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// epsStd keeps color-transfer scale factors away from division by zero.
const epsStd = 1e-6

// FitInput bundles everything a fitter can consume. Image is the real
// photograph; Mask and SynObj live in the canonical (frontal) frame;
// Transform maps canonical coordinates into the image frame.
type FitInput struct {
	Image     *imgtensor.Tensor
	Mask      *imgtensor.Tensor
	SynObj    *imgtensor.Tensor
	Transform geometry.ProjectiveTransform
	Interp    transform.Interp
}

// FitPoints is a convenience wrapper that estimates the canonical-to-image
// transform from corner correspondences before fitting.
func FitPoints(method Method, in FitInput, mode transform.Mode,
	src, tgt []geometry.Point2D) (Coeffs, error) {

	h, err := transform.Estimate(mode, src, tgt)
	if err != nil {
		return Coeffs{}, fmt.Errorf("transform estimation failed: %w", err)
	}
	in.Transform = h
	return Fit(method, in)
}

// Fit computes relighting coefficients for one (image, mask, transform)
// triple using the configured method.
func Fit(method Method, in FitInput) (Coeffs, error) {
	if err := method.Validate(); err != nil {
		return Coeffs{}, err
	}
	if method.Base == None {
		return IdentityCoeffs(), nil
	}
	if err := in.Image.ValidateImage(); err != nil {
		return Coeffs{}, fmt.Errorf("invalid input image: %w", err)
	}
	if in.Mask == nil {
		return Coeffs{}, fmt.Errorf("object mask is required")
	}

	switch method.Base {
	case Percentile:
		return fitPercentile(method, in)
	case Polynomial:
		return fitPolynomial(method, in)
	case ColorTransfer:
		return fitColorTransfer(method, in)
	default:
		return Coeffs{}, fmt.Errorf("relight method %s is not implemented", method.Base)
	}
}

// realPixelsInImageFrame warps the canonical mask into the image frame,
// converts the image into the working space, and gathers the masked
// per-channel pixel populations together with the warped mask.
func realPixelsInImageFrame(method Method, in FitInput) ([3][]float64, *imgtensor.Tensor, error) {
	warpedMask, err := WarpMask(in.Mask, in.Transform, in.Image.H, in.Image.W)
	if err != nil {
		return [3][]float64{}, nil, err
	}
	spaceImg, err := colorspace.ToSpace(in.Image, method.Space)
	if err != nil {
		return [3][]float64{}, nil, err
	}
	realPix, err := ExtractMaskedPixels(spaceImg, warpedMask)
	if err != nil {
		return [3][]float64{}, nil, err
	}
	return realPix, warpedMask, nil
}

// fitPercentile anchors a linear scaling on symmetric distribution
// percentiles of the real pixels: scale = max - min, offset = min, where min
// and max are the p-th and (100-p)-th percentiles. The percentile is folded
// so p and 1-p yield identical coefficients.
func fitPercentile(method Method, in FitInput) (Coeffs, error) {
	realPix, _, err := realPixelsInImageFrame(method, in)
	if err != nil {
		return Coeffs{}, err
	}

	p := math.Round(math.Min(method.Percentile, 1-method.Percentile) * 100)

	var populations [][]float64
	if method.Channels == ChannelsPooled {
		pooled := make([]float64, 0, 3*len(realPix[0]))
		for c := 0; c < 3; c++ {
			pooled = append(pooled, realPix[c]...)
		}
		populations = [][]float64{pooled}
	} else {
		for _, c := range method.Channels.Indices() {
			populations = append(populations, realPix[c])
		}
	}

	values := make([][]float64, len(populations))
	for i, pop := range populations {
		lo := nanPercentile(pop, p)
		hi := nanPercentile(pop, 100-p)
		values[i] = []float64{hi - lo, lo}
	}
	return Coeffs{Method: method, Values: values}, nil
}

// fitPolynomial warps the synthetic object into the image frame, pairs its
// masked pixels with the real ones, trims the worst residuals, and fits one
// polynomial per fitted channel.
func fitPolynomial(method Method, in FitInput) (Coeffs, error) {
	if in.SynObj == nil {
		return Coeffs{}, fmt.Errorf("polynomial fitting requires a synthetic object")
	}
	realPix, warpedMask, err := realPixelsInImageFrame(method, in)
	if err != nil {
		return Coeffs{}, err
	}

	synWarped, err := transform.WarpPerspective(
		in.SynObj, in.Transform, in.Image.H, in.Image.W, in.Interp)
	if err != nil {
		return Coeffs{}, fmt.Errorf("synthetic object warp failed: %w", err)
	}
	synSpace, err := colorspace.ToSpace(synWarped, method.Space)
	if err != nil {
		return Coeffs{}, err
	}
	var syn [3][]float64
	for c := 0; c < 3; c++ {
		syn[c] = synSpace.MaskedSelect(c, warpedMask)
	}

	var synPops, realPops [][]float64
	switch method.Reduce {
	case ReduceMax:
		synPops = [][]float64{reduceMax(syn)}
		realPops = [][]float64{reduceMax(realPix)}
	case ReduceMean:
		synPops = [][]float64{reduceMean(syn)}
		realPops = [][]float64{reduceMean(realPix)}
	default:
		for _, c := range method.Channels.Indices() {
			synPops = append(synPops, syn[c])
			realPops = append(realPops, realPix[c])
		}
	}

	values := make([][]float64, len(synPops))
	for i := range synPops {
		row, err := fitChannelPolynomial(synPops[i], realPops[i], method.Degree, method.Percentile)
		if err != nil {
			return Coeffs{}, err
		}
		values[i] = row
	}
	return Coeffs{Method: method, Values: values}, nil
}

// fitChannelPolynomial drops the top-percentile pixel pairs by absolute
// residual and fits real = poly(syn) by least squares. An all-zero synthetic
// sample degenerates to a constant polynomial at the real-pixel mean.
func fitChannelPolynomial(syn, realPix []float64, degree int, percentile float64) ([]float64, error) {
	if len(syn) != len(realPix) {
		return nil, fmt.Errorf("pixel population mismatch: %d vs %d", len(syn), len(realPix))
	}

	numKept := int(math.Round((1 - percentile) * float64(len(realPix))))
	if numKept < 1 {
		return nil, fmt.Errorf("outlier trimming keeps no pixels (%d of %d)", numKept, len(realPix))
	}
	indices := make([]int, len(syn))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return math.Abs(syn[indices[a]]-realPix[indices[a]]) <
			math.Abs(syn[indices[b]]-realPix[indices[b]])
	})
	keptSyn := make([]float64, numKept)
	keptReal := make([]float64, numKept)
	var synSum float64
	for i := 0; i < numKept; i++ {
		keptSyn[i] = syn[indices[i]]
		keptReal[i] = realPix[indices[i]]
		synSum += keptSyn[i]
	}

	if synSum == 0 {
		row := make([]float64, degree+1)
		row[degree] = stat.Mean(keptReal, nil)
		return row, nil
	}
	return polyfit(keptSyn, keptReal, degree)
}

// fitColorTransfer matches per-channel mean and standard deviation between
// the synthetic object and the real sign region. The real pixels come from
// warping the photograph back into the canonical frame, so the canonical
// mask selects both populations.
func fitColorTransfer(method Method, in FitInput) (Coeffs, error) {
	if in.SynObj == nil {
		return Coeffs{}, fmt.Errorf("color transfer requires a synthetic object")
	}
	inv, ok := in.Transform.Inverse()
	if !ok {
		return Coeffs{}, fmt.Errorf("transform is not invertible")
	}
	imgCanon, err := transform.WarpPerspective(
		in.Image, inv, in.Mask.H, in.Mask.W, in.Interp)
	if err != nil {
		return Coeffs{}, fmt.Errorf("image warp failed: %w", err)
	}

	imgSpace, err := colorspace.ToSpace(imgCanon, method.Space)
	if err != nil {
		return Coeffs{}, err
	}
	realPix, err := ExtractMaskedPixels(imgSpace, in.Mask)
	if err != nil {
		return Coeffs{}, err
	}

	synSpace, err := colorspace.ToSpace(in.SynObj, method.Space)
	if err != nil {
		return Coeffs{}, err
	}
	syn, err := ExtractMaskedPixels(synSpace, in.Mask)
	if err != nil {
		return Coeffs{}, err
	}

	values := make([][]float64, 3)
	for c := 0; c < 3; c++ {
		synStd := stat.StdDev(syn[c], nil)
		if synStd < epsStd {
			synStd = epsStd
		}
		scale := stat.StdDev(realPix[c], nil) / synStd
		offset := stat.Mean(realPix[c], nil) - stat.Mean(syn[c], nil)*scale
		values[c] = []float64{scale, offset}
	}
	coeffs := Coeffs{Method: method, Values: values}
	if !coeffs.IsFinite() {
		return Coeffs{}, fmt.Errorf("non-finite color transfer coefficients: %v", coeffs.Values)
	}
	return coeffs, nil
}

// nanPercentile computes the q-th percentile (0-100) with linear
// interpolation between order statistics, ignoring NaN values.
func nanPercentile(values []float64, q float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	if len(clean) == 1 {
		return clean[0]
	}
	pos := q / 100 * float64(len(clean)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// polyfit fits a polynomial of the given degree by least squares and returns
// the coefficients highest degree first.
func polyfit(x, y []float64, degree int) ([]float64, error) {
	n := len(x)
	if n < degree+1 {
		return nil, fmt.Errorf("polynomial fit of degree %d needs at least %d points, got %d",
			degree, degree+1, n)
	}

	// Vandermonde matrix, highest power in the first column.
	A := mat.NewDense(n, degree+1, nil)
	B := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		pow := 1.0
		for j := degree; j >= 0; j-- {
			A.Set(i, j, pow)
			pow *= x[i]
		}
		B.SetVec(i, y[i])
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, B); err != nil {
		return nil, fmt.Errorf("polynomial solve failed: %w", err)
	}

	row := make([]float64, degree+1)
	for j := range row {
		row[j] = params.AtVec(j)
	}
	return row, nil
}

func reduceMax(channels [3][]float64) []float64 {
	out := make([]float64, len(channels[0]))
	for i := range out {
		out[i] = math.Max(channels[0][i], math.Max(channels[1][i], channels[2][i]))
	}
	return out
}

func reduceMean(channels [3][]float64) []float64 {
	out := make([]float64, len(channels[0]))
	for i := range out {
		out[i] = (channels[0][i] + channels[1][i] + channels[2][i]) / 3
	}
	return out
}
