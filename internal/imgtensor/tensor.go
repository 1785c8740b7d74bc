// Package imgtensor provides a float64 image tensor type in NCHW layout
// with values in [0, 1], plus loading, resizing, and compositing helpers.
package imgtensor

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// Tensor is a 4D image array [batch, channel, height, width] with values
// normally in [0, 1]. A single-channel tensor doubles as a mask.
type Tensor struct {
	N, C, H, W int
	Data       []float64
}

// New allocates a zero-filled tensor with the given dimensions.
func New(n, c, h, w int) *Tensor {
	return &Tensor{N: n, C: c, H: h, W: w, Data: make([]float64, n*c*h*w)}
}

// At returns the value at (batch, channel, y, x).
func (t *Tensor) At(n, c, y, x int) float64 {
	return t.Data[((n*t.C+c)*t.H+y)*t.W+x]
}

// Set stores the value at (batch, channel, y, x).
func (t *Tensor) Set(n, c, y, x int, v float64) {
	t.Data[((n*t.C+c)*t.H+y)*t.W+x] = v
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	out := &Tensor{N: t.N, C: t.C, H: t.H, W: t.W, Data: make([]float64, len(t.Data))}
	copy(out.Data, t.Data)
	return out
}

// SameShape reports whether two tensors have identical dimensions.
func (t *Tensor) SameShape(other *Tensor) bool {
	return t.N == other.N && t.C == other.C && t.H == other.H && t.W == other.W
}

// ValidateImage checks that the tensor looks like an RGB image batch.
func (t *Tensor) ValidateImage() error {
	if t.C != 3 {
		return fmt.Errorf("expected 3 channels, got %d", t.C)
	}
	if t.N < 1 || t.H < 1 || t.W < 1 {
		return fmt.Errorf("invalid tensor shape [%d %d %d %d]", t.N, t.C, t.H, t.W)
	}
	return nil
}

// Clamp01 clips all values into [0, 1] in place and returns the number of
// values that were out of range, along with the pre-clip min and max.
func (t *Tensor) Clamp01() (oob int, min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for i, v := range t.Data {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		if v < 0 {
			t.Data[i] = 0
			oob++
		} else if v > 1 {
			t.Data[i] = 1
			oob++
		}
	}
	return oob, min, max
}

// MaskedSelect gathers the values of channel c (over all batches) at
// positions where the single-channel mask is strictly one.
func (t *Tensor) MaskedSelect(c int, mask *Tensor) []float64 {
	var out []float64
	for n := 0; n < t.N; n++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				if mask.At(0, 0, y, x) == 1 {
					out = append(out, t.At(n, c, y, x))
				}
			}
		}
	}
	return out
}

// FromImage converts a decoded image into a [1, 3, H, W] tensor in [0, 1].
func FromImage(img image.Image) *Tensor {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	t := New(1, 3, h, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			t.Set(0, 0, y, x, float64(r)/65535.0)
			t.Set(0, 1, y, x, float64(g)/65535.0)
			t.Set(0, 2, y, x, float64(b)/65535.0)
		}
	}
	return t
}

// ToImage converts one batch entry back into an 8-bit RGBA image.
// Values are clipped to [0, 1] during quantization.
func (t *Tensor) ToImage(n int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, t.W, t.H))
	for y := 0; y < t.H; y++ {
		for x := 0; x < t.W; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(t.At(n, 0, y, x)),
				G: quantize(t.At(n, 1, y, x)),
				B: quantize(t.At(n, 2, y, x)),
				A: 255,
			})
		}
	}
	return img
}

func quantize(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
