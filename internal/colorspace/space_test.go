package colorspace

import (
	"math"
	"testing"

	"sign-relight/internal/imgtensor"
)

func TestToSpaceRGBReturnsCopy(t *testing.T) {
	in := singlePixel(0.2, 0.4, 0.6)
	out, err := ToSpace(in, RGB)
	if err != nil {
		t.Fatalf("ToSpace failed: %v", err)
	}
	out.Set(0, 0, 0, 0, 0.99)
	if in.At(0, 0, 0, 0) != 0.2 {
		t.Error("ToSpace(RGB) returned a view instead of a copy")
	}
}

func TestHSVRoundTrip(t *testing.T) {
	colors := [][3]float64{
		{1, 0, 0},
		{0.2, 0.8, 0.3},
		{0.5, 0.5, 0.5},
		{0.1, 0.2, 0.9},
	}
	for _, c := range colors {
		in := singlePixel(c[0], c[1], c[2])
		hsv, err := ToSpace(in, HSV)
		if err != nil {
			t.Fatalf("ToSpace failed: %v", err)
		}
		if h := hsv.At(0, 0, 0, 0); h < 0 || h > 1 {
			t.Errorf("hue %g for %v outside [0, 1]", h, c)
		}
		rgb, err := ToRGB(hsv, HSV)
		if err != nil {
			t.Fatalf("ToRGB failed: %v", err)
		}
		for ch := 0; ch < 3; ch++ {
			if got := rgb.At(0, ch, 0, 0); math.Abs(got-c[ch]) > 1e-9 {
				t.Errorf("HSV round trip of %v channel %d: got %g", c, ch, got)
			}
		}
	}
}

func TestHSVPureRedHue(t *testing.T) {
	hsv, err := ToSpace(singlePixel(1, 0, 0), HSV)
	if err != nil {
		t.Fatalf("ToSpace failed: %v", err)
	}
	if h := hsv.At(0, 0, 0, 0); h != 0 {
		t.Errorf("hue of pure red = %g, want 0", h)
	}
	if s := hsv.At(0, 1, 0, 0); s != 1 {
		t.Errorf("saturation of pure red = %g, want 1", s)
	}
	if v := hsv.At(0, 2, 0, 0); v != 1 {
		t.Errorf("value of pure red = %g, want 1", v)
	}
}

func TestLabCIERoundTrip(t *testing.T) {
	in := singlePixel(0.3, 0.6, 0.1)
	lab, err := ToSpace(in, LabCIE)
	if err != nil {
		t.Fatalf("ToSpace failed: %v", err)
	}
	rgb, err := ToRGB(lab, LabCIE)
	if err != nil {
		t.Fatalf("ToRGB failed: %v", err)
	}
	for ch := 0; ch < 3; ch++ {
		if math.Abs(rgb.At(0, ch, 0, 0)-in.At(0, ch, 0, 0)) > 1e-6 {
			t.Errorf("Lab round trip channel %d: got %g, want %g",
				ch, rgb.At(0, ch, 0, 0), in.At(0, ch, 0, 0))
		}
	}
}

func TestToSpaceRejectsNonImage(t *testing.T) {
	mask := imgtensor.New(1, 1, 2, 2)
	if _, err := ToSpace(mask, HSV); err == nil {
		t.Error("single-channel tensor should be rejected")
	}
}
