package imgtensor

import (
	"fmt"
	"math"

	"sign-relight/pkg/geometry"
)

// Composite renders a patch onto an image through a single-channel mask:
// out = (1 - mask) * img + mask * patch. All three tensors must share the
// same spatial resolution.
func Composite(img, patch, mask *Tensor) (*Tensor, error) {
	if img.H != patch.H || img.W != patch.W || img.H != mask.H || img.W != mask.W {
		return nil, fmt.Errorf("composite shape mismatch: img %dx%d, patch %dx%d, mask %dx%d",
			img.H, img.W, patch.H, patch.W, mask.H, mask.W)
	}
	out := img.Clone()
	for n := 0; n < out.N; n++ {
		for c := 0; c < out.C; c++ {
			for y := 0; y < out.H; y++ {
				for x := 0; x < out.W; x++ {
					m := mask.At(0, 0, y, x)
					if m == 0 {
						continue
					}
					v := (1-m)*img.At(n, c, y, x) + m*patch.At(n%patch.N, c, y, x)
					out.Set(n, c, y, x, v)
				}
			}
		}
	}
	return out, nil
}

// CropAround extracts a square-ish crop around the bounding box of the given
// points, padded by padFactor (e.g. 1.25 pads the longer side by 25%).
// The crop is truncated at image borders.
func CropAround(t *Tensor, points []geometry.Point2D, padFactor float64) *Tensor {
	box := geometry.BoundingBox(points)
	height := int(box.Height)
	width := int(box.Width)
	size := math.Max(float64(height), float64(width)) * padFactor
	ypad := int(math.Round((size - float64(height)) / 2))
	xpad := int(math.Round((size - float64(width)) / 2))

	y0 := clampInt(int(box.Y)-ypad, 0, t.H)
	y1 := clampInt(int(box.Y)+height+ypad, 0, t.H)
	x0 := clampInt(int(box.X)-xpad, 0, t.W)
	x1 := clampInt(int(box.X)+width+xpad, 0, t.W)

	out := New(t.N, t.C, y1-y0, x1-x0)
	for n := 0; n < t.N; n++ {
		for c := 0; c < t.C; c++ {
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					out.Set(n, c, y-y0, x-x0, t.At(n, c, y, x))
				}
			}
		}
	}
	return out
}

// MaskBounds returns the bounding box of the nonzero region of a
// single-channel mask. Max coordinates are exclusive.
func MaskBounds(mask *Tensor) (minX, minY, maxX, maxY int, err error) {
	if mask.C != 1 {
		return 0, 0, 0, 0, fmt.Errorf("mask bounds expect a single channel, got %d", mask.C)
	}
	minX, minY = mask.W, mask.H
	for y := 0; y < mask.H; y++ {
		for x := 0; x < mask.W; x++ {
			if mask.At(0, 0, y, x) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x+1 > maxX {
				maxX = x + 1
			}
			if y+1 > maxY {
				maxY = y + 1
			}
		}
	}
	if maxX == 0 || maxY == 0 {
		return 0, 0, 0, 0, fmt.Errorf("mask has no nonzero pixels")
	}
	return minX, minY, maxX, maxY, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
