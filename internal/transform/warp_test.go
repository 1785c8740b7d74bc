package transform

import (
	"math"
	"testing"

	"sign-relight/internal/imgtensor"
	"sign-relight/pkg/geometry"
)

func gradientImage(h, w int) *imgtensor.Tensor {
	t := imgtensor.New(1, 3, h, w)
	for c := 0; c < 3; c++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				t.Set(0, c, y, x, float64(y*w+x)/float64(h*w))
			}
		}
	}
	return t
}

func TestWarpPerspectiveIdentity(t *testing.T) {
	src := gradientImage(8, 8)
	for _, interp := range []Interp{InterpNearest, InterpBilinear} {
		out, err := WarpPerspective(src, geometry.IdentityProjective(), 8, 8, interp)
		if err != nil {
			t.Fatalf("%s: warp failed: %v", interp, err)
		}
		for i := range src.Data {
			if math.Abs(out.Data[i]-src.Data[i]) > 1e-12 {
				t.Fatalf("%s: identity warp changed pixel %d: %g vs %g",
					interp, i, out.Data[i], src.Data[i])
			}
		}
	}
}

func TestWarpPerspectiveTranslation(t *testing.T) {
	src := imgtensor.New(1, 1, 6, 6)
	src.Set(0, 0, 2, 3, 1)

	h := geometry.Translation(2, 1).ToProjective()
	out, err := WarpPerspective(src, h, 6, 6, InterpNearest)
	if err != nil {
		t.Fatalf("warp failed: %v", err)
	}
	if got := out.At(0, 0, 3, 5); got != 1 {
		t.Errorf("translated pixel = %g at (5, 3), want 1", got)
	}
	if got := out.At(0, 0, 2, 3); got != 0 {
		t.Errorf("original location still %g, want 0", got)
	}
}

func TestWarpPerspectiveZeroPadding(t *testing.T) {
	src := imgtensor.New(1, 1, 4, 4)
	for i := range src.Data {
		src.Data[i] = 1
	}

	// Shift content half out of frame; the vacated strip must be zero.
	h := geometry.Translation(2, 0).ToProjective()
	out, err := WarpPerspective(src, h, 4, 4, InterpBilinear)
	if err != nil {
		t.Fatalf("warp failed: %v", err)
	}
	for y := 0; y < 4; y++ {
		if got := out.At(0, 0, y, 0); got != 0 {
			t.Errorf("padded pixel (0, %d) = %g, want 0", y, got)
		}
		if got := out.At(0, 0, y, 3); got != 1 {
			t.Errorf("shifted pixel (3, %d) = %g, want 1", y, got)
		}
	}
}

func TestWarpPerspectiveBilinearAveraging(t *testing.T) {
	src := imgtensor.New(1, 1, 2, 2)
	src.Set(0, 0, 0, 0, 0)
	src.Set(0, 0, 0, 1, 1)

	// Half-pixel shift samples midway between the two top pixels.
	h := geometry.Translation(0.5, 0).ToProjective()
	out, err := WarpPerspective(src, h, 2, 2, InterpBilinear)
	if err != nil {
		t.Fatalf("warp failed: %v", err)
	}
	if got := out.At(0, 0, 0, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("interpolated pixel = %g, want 0.5", got)
	}
}

func TestWarpPerspectiveSingular(t *testing.T) {
	src := gradientImage(4, 4)
	var degenerate geometry.ProjectiveTransform
	if _, err := WarpPerspective(src, degenerate, 4, 4, InterpNearest); err == nil {
		t.Error("warping through a singular transform should fail")
	}
}

func TestParseInterp(t *testing.T) {
	if _, err := ParseInterp("lanczos"); err == nil {
		t.Error("expected error for unknown interpolation")
	}
	got, err := ParseInterp("nearest")
	if err != nil || got != InterpNearest {
		t.Errorf("ParseInterp(nearest) = %v, %v", got, err)
	}
}
