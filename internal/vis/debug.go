// Package vis renders debug images for inspecting geometric fits: annotated
// correspondence points and downscaled previews written through OpenCV.
package vis

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"sign-relight/internal/imgtensor"
	"sign-relight/pkg/geometry"

	"gocv.io/x/gocv"
)

// palette cycles through distinct marker colors so corresponding points in
// the source and target images can be matched by eye.
var palette = []color.RGBA{
	{R: 255, G: 64, B: 64, A: 255},
	{R: 64, G: 200, B: 64, A: 255},
	{R: 64, G: 96, B: 255, A: 255},
	{R: 240, G: 200, B: 32, A: 255},
	{R: 200, G: 64, B: 220, A: 255},
	{R: 32, G: 210, B: 210, A: 255},
}

// MarkerColor returns the palette color for the i-th correspondence point.
func MarkerColor(i int) color.RGBA {
	return palette[i%len(palette)]
}

// tensorToMat converts an RGB tensor into a BGR OpenCV matrix.
func tensorToMat(t *imgtensor.Tensor) (gocv.Mat, error) {
	if err := t.ValidateImage(); err != nil {
		return gocv.NewMat(), err
	}
	rgb, err := gocv.ImageToMatRGB(t.ToImage(0))
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert tensor to mat: %w", err)
	}
	defer rgb.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	return bgr, nil
}

// DrawPoints marks each point on the image with a filled circle and returns
// the annotated copy. Radius scales with the image width so markers stay
// visible after downscaling.
func DrawPoints(img *imgtensor.Tensor, points []geometry.Point2D) (*imgtensor.Tensor, error) {
	mat, err := tensorToMat(img)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	radius := img.W / 80
	if radius < 3 {
		radius = 3
	}
	for i, p := range points {
		center := image.Point{X: int(math.Round(p.X)), Y: int(math.Round(p.Y))}
		c := MarkerColor(i)
		// OpenCV expects BGR channel order.
		gocv.Circle(&mat, center, radius, color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}, -1)
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(mat, &rgb, gocv.ColorBGRToRGB)
	out, err := rgb.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert annotated mat: %w", err)
	}
	return imgtensor.FromImage(out), nil
}

// SavePreview writes the image to disk, downscaled so its width does not
// exceed maxWidth. A maxWidth of 0 disables downscaling.
func SavePreview(img *imgtensor.Tensor, path string, maxWidth int) error {
	mat, err := tensorToMat(img)
	if err != nil {
		return err
	}
	defer mat.Close()

	out := mat
	if maxWidth > 0 && img.W > maxWidth {
		scale := float64(maxWidth) / float64(img.W)
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(mat, &scaled, image.Point{}, scale, scale, gocv.InterpolationArea)
		out = scaled
	}
	if ok := gocv.IMWrite(path, out); !ok {
		return fmt.Errorf("failed to write preview image %s", path)
	}
	return nil
}

// SaveMaskPreview writes a single-channel mask as a grayscale preview by
// replicating it across the color channels.
func SaveMaskPreview(mask *imgtensor.Tensor, path string, maxWidth int) error {
	if mask.C != 1 {
		return fmt.Errorf("mask preview expects a single channel, got %d", mask.C)
	}
	rgb := imgtensor.New(1, 3, mask.H, mask.W)
	for c := 0; c < 3; c++ {
		for y := 0; y < mask.H; y++ {
			for x := 0; x < mask.W; x++ {
				rgb.Set(0, c, y, x, mask.At(0, 0, y, x))
			}
		}
	}
	return SavePreview(rgb, path, maxWidth)
}
