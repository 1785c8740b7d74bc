// Package colorspace converts image tensors between RGB and the working
// color spaces used for relighting (HSV, CIE Lab, and a perceptual Lab
// variant built from a log-compressed cone-response basis).
package colorspace

import (
	"fmt"

	"sign-relight/internal/imgtensor"

	"github.com/lucasb-eyer/go-colorful"
)

// Space identifies a working color space.
type Space int

const (
	RGB Space = iota
	HSV
	LabCIE // standard CIE Lab
	LabLMS // log-compressed cone-response Lab
)

func (s Space) String() string {
	switch s {
	case RGB:
		return "rgb"
	case HSV:
		return "hsv"
	case LabCIE:
		return "lab"
	case LabLMS:
		return "lab_lms"
	default:
		return "unknown"
	}
}

// ToSpace converts an RGB tensor into the given space. RGB returns a copy.
func ToSpace(t *imgtensor.Tensor, s Space) (*imgtensor.Tensor, error) {
	if err := t.ValidateImage(); err != nil {
		return nil, err
	}
	switch s {
	case RGB:
		return t.Clone(), nil
	case HSV:
		return convertPixels(t, rgbToHSV), nil
	case LabCIE:
		return convertPixels(t, rgbToLabCIE), nil
	case LabLMS:
		return RGBToLabLMS(t), nil
	default:
		return nil, fmt.Errorf("unknown color space %d", s)
	}
}

// ToRGB converts a tensor in the given space back to RGB. The result is not
// clipped; callers decide how to handle out-of-range values.
func ToRGB(t *imgtensor.Tensor, s Space) (*imgtensor.Tensor, error) {
	if err := t.ValidateImage(); err != nil {
		return nil, err
	}
	switch s {
	case RGB:
		return t.Clone(), nil
	case HSV:
		return convertPixels(t, hsvToRGB), nil
	case LabCIE:
		return convertPixels(t, labCIEToRGB), nil
	case LabLMS:
		return LabLMSToRGB(t), nil
	default:
		return nil, fmt.Errorf("unknown color space %d", s)
	}
}

func convertPixels(t *imgtensor.Tensor, f func(a, b, c float64) (float64, float64, float64)) *imgtensor.Tensor {
	out := imgtensor.New(t.N, t.C, t.H, t.W)
	for n := 0; n < t.N; n++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				a, b, c := f(t.At(n, 0, y, x), t.At(n, 1, y, x), t.At(n, 2, y, x))
				out.Set(n, 0, y, x, a)
				out.Set(n, 1, y, x, b)
				out.Set(n, 2, y, x, c)
			}
		}
	}
	return out
}

// rgbToHSV converts one RGB pixel to HSV with hue normalized to [0, 1].
func rgbToHSV(r, g, b float64) (float64, float64, float64) {
	h, s, v := colorful.Color{R: r, G: g, B: b}.Hsv()
	return h / 360.0, s, v
}

func hsvToRGB(h, s, v float64) (float64, float64, float64) {
	c := colorful.Hsv(h*360.0, s, v)
	return c.R, c.G, c.B
}

func rgbToLabCIE(r, g, b float64) (float64, float64, float64) {
	return colorful.Color{R: r, G: g, B: b}.Lab()
}

func labCIEToRGB(l, a, b float64) (float64, float64, float64) {
	c := colorful.Lab(l, a, b)
	return c.R, c.G, c.B
}
