package relight

import (
	"errors"
	"testing"

	"sign-relight/internal/imgtensor"
	"sign-relight/pkg/geometry"
)

func TestWarpMaskThresholdsInterpolation(t *testing.T) {
	mask := imgtensor.New(1, 1, 4, 4)
	mask.Set(0, 0, 1, 1, 1)
	mask.Set(0, 0, 2, 2, 0.6) // soft value must not survive

	warped, err := WarpMask(mask, geometry.IdentityProjective(), 4, 4)
	if err != nil {
		t.Fatalf("warp failed: %v", err)
	}
	if got := warped.At(0, 0, 1, 1); got != 1 {
		t.Errorf("hard mask pixel = %g, want 1", got)
	}
	if got := warped.At(0, 0, 2, 2); got != 0 {
		t.Errorf("soft mask pixel = %g, want thresholded to 0", got)
	}
}

func TestWarpMaskPlacesRegion(t *testing.T) {
	mask := fullMask(2, 2)
	h := geometry.Translation(3, 3).ToProjective()

	warped, err := WarpMask(mask, h, 8, 8)
	if err != nil {
		t.Fatalf("warp failed: %v", err)
	}
	var count int
	for _, v := range warped.Data {
		if v == 1 {
			count++
		}
	}
	if count != 4 {
		t.Errorf("warped region has %d pixels, want 4", count)
	}
	if got := warped.At(0, 0, 3, 3); got != 1 {
		t.Errorf("translated mask corner = %g, want 1", got)
	}
}

func TestWarpMaskRejectsMultiChannel(t *testing.T) {
	if _, err := WarpMask(imgtensor.New(1, 3, 2, 2), geometry.IdentityProjective(), 2, 2); err == nil {
		t.Error("multi-channel mask should be rejected")
	}
}

func TestExtractMaskedPixels(t *testing.T) {
	img := constantImage(4, 4, 0.1, 0.2, 0.3)
	mask := imgtensor.New(1, 1, 4, 4)
	mask.Set(0, 0, 0, 0, 1)
	mask.Set(0, 0, 3, 3, 1)

	pixels, err := ExtractMaskedPixels(img, mask)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := []float64{0.1, 0.2, 0.3}
	for c := 0; c < 3; c++ {
		if len(pixels[c]) != 2 {
			t.Fatalf("channel %d has %d pixels, want 2", c, len(pixels[c]))
		}
		for _, v := range pixels[c] {
			if v != want[c] {
				t.Errorf("channel %d value = %g, want %g", c, v, want[c])
			}
		}
	}
}

func TestExtractMaskedPixelsErrors(t *testing.T) {
	img := constantImage(4, 4, 0.5, 0.5, 0.5)

	if _, err := ExtractMaskedPixels(img, imgtensor.New(1, 1, 2, 2)); err == nil {
		t.Error("resolution mismatch should be rejected")
	}
	_, err := ExtractMaskedPixels(img, imgtensor.New(1, 1, 4, 4))
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("empty mask error = %v, want ErrEmptyRegion", err)
	}
}
