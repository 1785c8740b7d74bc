package imgtensor

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestAtSetLayout(t *testing.T) {
	tensor := New(2, 3, 4, 5)
	tensor.Set(1, 2, 3, 4, 0.75)
	if got := tensor.At(1, 2, 3, 4); got != 0.75 {
		t.Errorf("At = %g, want 0.75", got)
	}
	// The last element of the buffer is the last index of the last batch.
	if got := tensor.Data[len(tensor.Data)-1]; got != 0.75 {
		t.Errorf("flat layout: last element = %g, want 0.75", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	a := New(1, 3, 2, 2)
	a.Set(0, 0, 0, 0, 0.5)
	b := a.Clone()
	b.Set(0, 0, 0, 0, 0.9)
	if a.At(0, 0, 0, 0) != 0.5 {
		t.Error("Clone shares the underlying buffer")
	}
}

func TestClamp01(t *testing.T) {
	tensor := New(1, 1, 1, 4)
	copy(tensor.Data, []float64{-0.5, 0.25, 1.5, 1.0})
	oob, min, max := tensor.Clamp01()
	if oob != 2 {
		t.Errorf("oob = %d, want 2", oob)
	}
	if min != -0.5 || max != 1.5 {
		t.Errorf("min/max = %g/%g, want -0.5/1.5", min, max)
	}
	want := []float64{0, 0.25, 1, 1}
	for i, v := range tensor.Data {
		if v != want[i] {
			t.Errorf("Data[%d] = %g, want %g", i, v, want[i])
		}
	}
}

func TestMaskedSelect(t *testing.T) {
	img := New(1, 3, 2, 2)
	for i := range img.Data {
		img.Data[i] = float64(i)
	}
	mask := New(1, 1, 2, 2)
	mask.Set(0, 0, 0, 1, 1)
	mask.Set(0, 0, 1, 0, 0.5) // not strictly one, excluded

	got := img.MaskedSelect(0, mask)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("MaskedSelect = %v, want [1]", got)
	}
}

func TestFromImageToImageRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	src.SetRGBA(1, 0, color.RGBA{G: 128, A: 255})
	src.SetRGBA(2, 1, color.RGBA{B: 64, A: 255})

	tensor := FromImage(src)
	if tensor.H != 2 || tensor.W != 3 {
		t.Fatalf("tensor shape %dx%d, want 2x3", tensor.H, tensor.W)
	}
	if got := tensor.At(0, 0, 0, 0); math.Abs(got-1) > 1e-9 {
		t.Errorf("red channel = %g, want 1", got)
	}

	back := tensor.ToImage(0)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			want := src.RGBAAt(x, y)
			got := back.RGBAAt(x, y)
			if got != want {
				t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestComposite(t *testing.T) {
	img := New(1, 3, 2, 2)
	for i := range img.Data {
		img.Data[i] = 0.2
	}
	patch := New(1, 3, 2, 2)
	for i := range patch.Data {
		patch.Data[i] = 0.8
	}
	mask := New(1, 1, 2, 2)
	mask.Set(0, 0, 0, 0, 1)
	mask.Set(0, 0, 1, 1, 0.5)

	out, err := Composite(img, patch, mask)
	if err != nil {
		t.Fatalf("Composite failed: %v", err)
	}
	if got := out.At(0, 0, 0, 0); got != 0.8 {
		t.Errorf("masked pixel = %g, want 0.8", got)
	}
	if got := out.At(0, 0, 0, 1); got != 0.2 {
		t.Errorf("unmasked pixel = %g, want 0.2", got)
	}
	if got := out.At(0, 0, 1, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("blended pixel = %g, want 0.5", got)
	}
}

func TestCompositeShapeMismatch(t *testing.T) {
	img := New(1, 3, 2, 2)
	patch := New(1, 3, 3, 3)
	mask := New(1, 1, 2, 2)
	if _, err := Composite(img, patch, mask); err == nil {
		t.Error("expected shape mismatch error")
	}
}

func TestMaskBounds(t *testing.T) {
	mask := New(1, 1, 6, 8)
	mask.Set(0, 0, 2, 3, 1)
	mask.Set(0, 0, 4, 5, 1)

	x0, y0, x1, y1, err := MaskBounds(mask)
	if err != nil {
		t.Fatalf("MaskBounds failed: %v", err)
	}
	if x0 != 3 || y0 != 2 || x1 != 6 || y1 != 5 {
		t.Errorf("bounds = (%d, %d, %d, %d), want (3, 2, 6, 5)", x0, y0, x1, y1)
	}
}

func TestMaskBoundsEmpty(t *testing.T) {
	if _, _, _, _, err := MaskBounds(New(1, 1, 4, 4)); err == nil {
		t.Error("empty mask should report an error")
	}
}

func TestValidateImage(t *testing.T) {
	if err := New(1, 3, 2, 2).ValidateImage(); err != nil {
		t.Errorf("valid image rejected: %v", err)
	}
	if err := New(1, 1, 2, 2).ValidateImage(); err == nil {
		t.Error("single-channel tensor accepted as image")
	}
}
