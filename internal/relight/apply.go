package relight

import (
	"fmt"

	"sign-relight/internal/colorspace"
	"sign-relight/internal/imgtensor"

	"github.com/edaniels/golog"
)

// Applier applies fitted relighting coefficients to image batches.
type Applier struct {
	logger golog.Logger
}

// NewApplier creates an Applier. A nil logger disables clamp diagnostics.
func NewApplier(logger golog.Logger) *Applier {
	return &Applier{logger: logger}
}

// Apply relights an RGB image batch with previously fitted coefficients.
// The functional form mirrors the fitter that produced them: per-channel
// scale+offset for color transfer, polynomial evaluation for percentile and
// polynomial coefficients. The result is always clipped to [0, 1].
func (a *Applier) Apply(img *imgtensor.Tensor, coeffs Coeffs) (*imgtensor.Tensor, error) {
	method := coeffs.Method
	if err := method.Validate(); err != nil {
		return nil, err
	}
	if method.Base == None {
		return img.Clone(), nil
	}
	if err := img.ValidateImage(); err != nil {
		return nil, err
	}
	if err := validateCoeffShape(method, coeffs); err != nil {
		return nil, err
	}

	switch method.Base {
	case Percentile, Polynomial:
		return a.applyPolynomial(img, coeffs)
	case ColorTransfer:
		return a.applyColorTransfer(img, coeffs)
	default:
		return nil, fmt.Errorf("relight method %s is not implemented", method.Base)
	}
}

func validateCoeffShape(method Method, coeffs Coeffs) error {
	if len(coeffs.Values) == 0 {
		return fmt.Errorf("no relight coefficients")
	}
	want := len(method.Channels.Indices())
	if method.Channels == ChannelsPooled || method.Reduce != ReduceNone {
		want = 1
	}
	if method.Base == ColorTransfer {
		want = 3
	}
	if len(coeffs.Values) != want {
		return fmt.Errorf("expected %d coefficient rows for method %s, got %d",
			want, method, len(coeffs.Values))
	}
	width := len(coeffs.Values[0])
	for _, row := range coeffs.Values[1:] {
		if len(row) != width {
			return fmt.Errorf("ragged coefficient rows")
		}
	}
	if width == 0 {
		return fmt.Errorf("empty coefficient row")
	}
	return nil
}

// applyPolynomial evaluates the fitted polynomial per channel in the working
// color space. A single coefficient row is shared by every selected channel.
func (a *Applier) applyPolynomial(img *imgtensor.Tensor, coeffs Coeffs) (*imgtensor.Tensor, error) {
	method := coeffs.Method
	space, err := colorspace.ToSpace(img, method.Space)
	if err != nil {
		return nil, err
	}

	selected := method.Channels.Indices()
	if method.Channels == ChannelsPooled || method.Reduce != ReduceNone {
		selected = []int{0, 1, 2}
	}
	out := space.Clone()
	for rowIdx, c := range selected {
		row := coeffs.Values[0]
		if len(coeffs.Values) > 1 {
			row = coeffs.Values[rowIdx]
		}
		for n := 0; n < out.N; n++ {
			for y := 0; y < out.H; y++ {
				for x := 0; x < out.W; x++ {
					out.Set(n, c, y, x, polyeval(row, space.At(n, c, y, x)))
				}
			}
		}
	}

	rgb, err := colorspace.ToRGB(out, method.Space)
	if err != nil {
		return nil, err
	}
	rgb.Clamp01()
	return rgb, nil
}

// applyColorTransfer rescales each selected channel by its fitted
// scale+offset. Out-of-range RGB values after the inverse conversion are
// logged and clipped rather than treated as an error.
func (a *Applier) applyColorTransfer(img *imgtensor.Tensor, coeffs Coeffs) (*imgtensor.Tensor, error) {
	method := coeffs.Method
	space, err := colorspace.ToSpace(img, method.Space)
	if err != nil {
		return nil, err
	}

	out := space.Clone()
	for _, c := range method.Channels.Indices() {
		scale, offset := coeffs.Values[c][0], coeffs.Values[c][1]
		for n := 0; n < out.N; n++ {
			for y := 0; y < out.H; y++ {
				for x := 0; x < out.W; x++ {
					out.Set(n, c, y, x, space.At(n, c, y, x)*scale+offset)
				}
			}
		}
	}

	rgb, err := colorspace.ToRGB(out, method.Space)
	if err != nil {
		return nil, err
	}
	oob, min, max := rgb.Clamp01()
	if oob > 0 && a.logger != nil {
		a.logger.Debugf(
			"found %d (out of %d) invalid RGB values (min: %.4f, max: %.4f) in color transfer; clipping to [0, 1]",
			oob, len(rgb.Data), min, max)
	}
	return rgb, nil
}

// polyeval evaluates a polynomial with coefficients ordered highest degree
// first using Horner's method.
func polyeval(coeffs []float64, x float64) float64 {
	v := coeffs[0]
	for _, c := range coeffs[1:] {
		v = v*x + c
	}
	return v
}
