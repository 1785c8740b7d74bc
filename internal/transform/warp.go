package transform

import (
	"fmt"

	"sign-relight/internal/imgtensor"
	"sign-relight/pkg/geometry"
)

// Interp selects the sampling filter used by WarpPerspective.
type Interp int

const (
	InterpNearest Interp = iota
	InterpBilinear
)

func (i Interp) String() string {
	switch i {
	case InterpNearest:
		return "nearest"
	case InterpBilinear:
		return "bilinear"
	default:
		return "unknown"
	}
}

// ParseInterp parses an interpolation name.
func ParseInterp(name string) (Interp, error) {
	switch name {
	case "nearest":
		return InterpNearest, nil
	case "bilinear":
		return InterpBilinear, nil
	default:
		return 0, fmt.Errorf("unknown interpolation %q", name)
	}
}

// WarpPerspective warps a tensor through the homography h into an output of
// the given spatial size. Output pixels are inverse-mapped into the source
// and sampled with the requested filter; samples outside the source are zero.
func WarpPerspective(src *imgtensor.Tensor, h geometry.ProjectiveTransform,
	outH, outW int, interp Interp) (*imgtensor.Tensor, error) {

	inv, ok := h.Inverse()
	if !ok {
		return nil, fmt.Errorf("transform is not invertible")
	}

	out := imgtensor.New(src.N, src.C, outH, outW)
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			p := inv.Apply(geometry.Point2D{X: float64(x), Y: float64(y)})
			for n := 0; n < src.N; n++ {
				for c := 0; c < src.C; c++ {
					var v float64
					switch interp {
					case InterpBilinear:
						v = sampleBilinear(src, n, c, p.X, p.Y)
					default:
						v = sampleNearest(src, n, c, p.X, p.Y)
					}
					if v != 0 {
						out.Set(n, c, y, x, v)
					}
				}
			}
		}
	}
	return out, nil
}

func sampleNearest(t *imgtensor.Tensor, n, c int, x, y float64) float64 {
	xi := int(x + 0.5)
	yi := int(y + 0.5)
	if x < -0.5 || y < -0.5 || xi < 0 || yi < 0 || xi >= t.W || yi >= t.H {
		return 0
	}
	return t.At(n, c, yi, xi)
}

func sampleBilinear(t *imgtensor.Tensor, n, c int, x, y float64) float64 {
	x0 := int(x)
	y0 := int(y)
	if x < 0 {
		x0--
	}
	if y < 0 {
		y0--
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	v00 := sampleAt(t, n, c, x0, y0)
	v01 := sampleAt(t, n, c, x0+1, y0)
	v10 := sampleAt(t, n, c, x0, y0+1)
	v11 := sampleAt(t, n, c, x0+1, y0+1)

	top := v00*(1-fx) + v01*fx
	bot := v10*(1-fx) + v11*fx
	return top*(1-fy) + bot*fy
}

func sampleAt(t *imgtensor.Tensor, n, c, x, y int) float64 {
	if x < 0 || y < 0 || x >= t.W || y >= t.H {
		return 0
	}
	return t.At(n, c, y, x)
}
