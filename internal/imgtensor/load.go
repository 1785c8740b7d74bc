package imgtensor

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	_ "golang.org/x/image/tiff"
)

// Load decodes an image file into a [1, 3, H, W] tensor. If workingWidth is
// positive, the image is resized to that width with bicubic (Catmull-Rom)
// interpolation, preserving the aspect ratio.
func Load(path string, workingWidth int) (*Tensor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	if workingWidth > 0 && img.Bounds().Dx() != workingWidth {
		bounds := img.Bounds()
		height := int(math.Round(float64(workingWidth) / float64(bounds.Dx()) * float64(bounds.Dy())))
		img = imaging.Resize(img, workingWidth, height, imaging.CatmullRom)
	}

	return FromImage(img), nil
}

// Save writes one batch entry of the tensor to disk. The format is chosen
// from the file extension (png, jpg/jpeg, tif/tiff).
func Save(t *Tensor, n int, path string) error {
	if err := imaging.Save(t.ToImage(n), path); err != nil {
		return fmt.Errorf("failed to save image %s: %w", path, err)
	}
	return nil
}

// SupportedFormats returns the list of supported image file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
