package relight

import (
	"errors"
	"fmt"

	"sign-relight/internal/imgtensor"
	"sign-relight/internal/transform"
	"sign-relight/pkg/geometry"
)

// ErrEmptyRegion is returned when an object mask warps to a region with no
// positive pixels, which would make every downstream statistic undefined.
var ErrEmptyRegion = errors.New("object mask warps to an empty region")

// WarpMask warps a canonical single-channel binary mask into an image frame
// using nearest-neighbor interpolation and zero padding, then thresholds at
// exactly one so interpolation artifacts never leak into the region.
func WarpMask(mask *imgtensor.Tensor, h geometry.ProjectiveTransform,
	outH, outW int) (*imgtensor.Tensor, error) {

	if mask.C != 1 {
		return nil, fmt.Errorf("expected single-channel mask, got %d channels", mask.C)
	}
	warped, err := transform.WarpPerspective(mask, h, outH, outW, transform.InterpNearest)
	if err != nil {
		return nil, fmt.Errorf("mask warp failed: %w", err)
	}
	for i, v := range warped.Data {
		if v == 1 {
			warped.Data[i] = 1
		} else {
			warped.Data[i] = 0
		}
	}
	return warped, nil
}

// ExtractMaskedPixels gathers per-channel pixel populations of img at
// positions where the mask is one. Both tensors must share spatial
// resolution. An empty region is an explicit fitting failure.
func ExtractMaskedPixels(img, mask *imgtensor.Tensor) ([3][]float64, error) {
	var pixels [3][]float64
	if img.H != mask.H || img.W != mask.W {
		return pixels, fmt.Errorf("mask resolution %dx%d does not match image %dx%d",
			mask.H, mask.W, img.H, img.W)
	}
	for c := 0; c < 3; c++ {
		pixels[c] = img.MaskedSelect(c, mask)
	}
	if len(pixels[0]) == 0 {
		return pixels, ErrEmptyRegion
	}
	return pixels, nil
}
