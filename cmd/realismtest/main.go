// Command realismtest replays an annotated photo sequence: clean frames fit
// relight coefficients from the labeled sign, patched frames render the
// synthetic patch with those coefficients and report geometric and
// photometric errors against the real photograph.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"sign-relight/internal/imgtensor"
	"sign-relight/internal/realism"
	"sign-relight/internal/relight"
	"sign-relight/internal/sign"
	"sign-relight/internal/transform"
	"sign-relight/internal/version"
	"sign-relight/internal/vis"
	"sign-relight/pkg/geometry"

	"github.com/edaniels/golog"
)

func main() {
	anno := flag.String("anno", "realism_test_anno.csv", "Path to annotation CSV")
	imageDir := flag.String("images", "", "Directory containing the annotated photographs")
	patchDir := flag.String("patches", "", "Directory with per-class patch.png and patch_mask.png")
	methodName := flag.String("method", "percentile", "Relight method name")
	degree := flag.Int("degree", 1, "Polynomial degree")
	percentile := flag.Float64("percentile", 0.1, "Percentile / residual trim fraction")
	geoName := flag.String("geo", "perspective", "Geometric transform: perspective, affine, translate_scale")
	interpName := flag.String("interp", "bilinear", "Patch warp interpolation: bilinear, nearest")
	workingWidth := flag.Int("width", 2048, "Working image width in pixels")
	annoWidth := flag.Int("anno-width", 6036, "Pixel width the annotations were labeled at")
	objWidth := flag.Int("obj-width", 64, "Canonical sign width in pixels")
	registryPath := flag.String("classes", "", "Optional JSON sign class registry (defaults to built-in)")
	coeffsDir := flag.String("coeffs", "", "Directory to save fitted coefficients as JSON")
	debugDir := flag.String("debug", "", "Directory to save debug images")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("realismtest", version.String())
		return
	}
	if *imageDir == "" || *patchDir == "" {
		fmt.Println("Usage: realismtest -anno <csv> -images <dir> -patches <dir> [-method <name>] [-geo <mode>]")
		os.Exit(1)
	}

	logger := golog.NewDevelopmentLogger("realismtest")

	method, err := relight.ParseMethod(*methodName, *degree, *percentile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid relight method: %v\n", err)
		os.Exit(1)
	}
	geoMode, err := transform.ParseMode(*geoName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid geometric mode: %v\n", err)
		os.Exit(1)
	}
	interp, err := transform.ParseInterp(*interpName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid interpolation: %v\n", err)
		os.Exit(1)
	}

	registry := sign.NewRegistry()
	if *registryPath != "" {
		registry, err = sign.LoadRegistry(*registryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load class registry: %v\n", err)
			os.Exit(1)
		}
	}

	annotations, err := realism.LoadAnnotations(*anno)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load annotations: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("=== %d annotated frames, method %s, geometry %s ===\n",
		len(annotations), method.String(), geoMode)

	evaluator := realism.NewEvaluator(method, geoMode, logger)
	evaluator.Interp = interp
	classNames := registry.Names()

	// Frames alternate clean/patched per class; the clean frame's fit carries
	// over to the patched frame that follows it.
	var coeffs relight.Coeffs
	var signTf geometry.ProjectiveTransform
	var haveFit bool
	var geoErrs, relightErrs []float64

	for index, a := range annotations {
		isClean := index%2 == 0
		className := classNames[(index/2)%len(classNames)]

		imgPath := filepath.Join(*imageDir, a.FileName)
		if _, err := os.Stat(imgPath); err != nil {
			logger.Warnw("image not found, skipping frame", "path", imgPath)
			haveFit = false
			continue
		}
		img, err := imgtensor.Load(imgPath, *workingWidth)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", imgPath, err)
			os.Exit(1)
		}
		scaled := a.Scaled(float64(*workingWidth) / float64(*annoWidth))

		signMask, src, err := registry.GenerateClassMask(className, *objWidth)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate mask for %s: %v\n", className, err)
			os.Exit(1)
		}
		tgt := scaled.SignCorners
		if len(src) < len(tgt) {
			tgt = tgt[:len(src)]
		}

		if isClean {
			synObj, err := loadSynObj(*patchDir, className, signMask)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to load synthetic object for %s: %v\n", className, err)
				os.Exit(1)
			}
			coeffs, signTf, err = evaluator.FitSign(img, signMask, synObj, src, tgt)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Frame %d (%s): relight fit failed: %v\n", index, className, err)
				os.Exit(1)
			}
			haveFit = true
			fmt.Printf("[%03d] %-12s fit coeffs: %v\n", index, className, coeffs.Values)
			if *coeffsDir != "" {
				path := filepath.Join(*coeffsDir, fmt.Sprintf("%03d_%s.json", index, className))
				if err := coeffs.Save(path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to save coefficients: %v\n", err)
					os.Exit(1)
				}
			}
			saveDebug(*debugDir, index, img, tgt, logger)
			continue
		}

		if !haveFit {
			logger.Warnw("no fit from preceding clean frame, skipping", "frame", index)
			continue
		}
		if len(scaled.PatchCorners) != 4 {
			logger.Warnw("patched frame without patch corners, skipping", "frame", index)
			continue
		}

		patch, patchMask, patchSrc, err := loadPatch(*patchDir, className)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load patch for %s: %v\n", className, err)
			os.Exit(1)
		}

		result, err := evaluator.EvaluatePatch(img, patch, patchMask,
			patchSrc, scaled.PatchCorners, signTf, coeffs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Frame %d (%s): evaluation failed: %v\n", index, className, err)
			os.Exit(1)
		}
		geoErrs = append(geoErrs, result.GeometricError)
		relightErrs = append(relightErrs, result.RelightError)
		fmt.Printf("[%03d] %-12s geometric error: %6.2f px, relight RMSE: %.4f\n",
			index, className, result.GeometricError, result.RelightError)

		if *debugDir != "" {
			crop := imgtensor.CropAround(result.Render, tgt, 1.25)
			path := filepath.Join(*debugDir, fmt.Sprintf("%03d_render.png", index))
			if err := vis.SavePreview(crop, path, 0); err != nil {
				logger.Warnw("failed to save render crop", "error", err)
			}
			saveDebug(*debugDir, index, result.Render, append(tgt, scaled.PatchCorners...), logger)
		}
	}

	printSummary("Geometric error (px)", realism.Summarize(geoErrs))
	printSummary("Relight RMSE", realism.Summarize(relightErrs))
}

// loadPatch reads a class's adversarial patch and its mask and derives the
// canonical patch corners from the mask's bounding box.
func loadPatch(dir, className string) (*imgtensor.Tensor, *imgtensor.Tensor, []geometry.Point2D, error) {
	patch, err := imgtensor.Load(filepath.Join(dir, className, "patch.png"), 0)
	if err != nil {
		return nil, nil, nil, err
	}
	maskImg, err := imgtensor.Load(filepath.Join(dir, className, "patch_mask.png"), 0)
	if err != nil {
		return nil, nil, nil, err
	}
	mask := imgtensor.New(1, 1, maskImg.H, maskImg.W)
	for y := 0; y < maskImg.H; y++ {
		for x := 0; x < maskImg.W; x++ {
			if maskImg.At(0, 0, y, x) > 0.5 {
				mask.Set(0, 0, y, x, 1)
			}
		}
	}
	x0, y0, x1, y1, err := imgtensor.MaskBounds(mask)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("patch mask for %s: %w", className, err)
	}
	src := []geometry.Point2D{
		{X: float64(x0), Y: float64(y0)},
		{X: float64(x1), Y: float64(y0)},
		{X: float64(x1), Y: float64(y1)},
		{X: float64(x0), Y: float64(y1)},
	}
	return patch, mask, src, nil
}

// loadSynObj reads the class's synthetic sign image if present, falling back
// to the mask itself replicated to three channels. The fallback supports
// percentile and color-transfer fits, which only need the mask footprint.
func loadSynObj(dir, className string, signMask *imgtensor.Tensor) (*imgtensor.Tensor, error) {
	path := filepath.Join(dir, className, "syn_obj.png")
	if _, err := os.Stat(path); err == nil {
		return imgtensor.Load(path, 0)
	}
	syn := imgtensor.New(1, 3, signMask.H, signMask.W)
	for c := 0; c < 3; c++ {
		for y := 0; y < signMask.H; y++ {
			for x := 0; x < signMask.W; x++ {
				syn.Set(0, c, y, x, signMask.At(0, 0, y, x))
			}
		}
	}
	return syn, nil
}

func saveDebug(dir string, index int, img *imgtensor.Tensor, points []geometry.Point2D, logger golog.Logger) {
	if dir == "" {
		return
	}
	annotated, err := vis.DrawPoints(img, points)
	if err != nil {
		logger.Warnw("failed to draw debug points", "error", err)
		return
	}
	path := filepath.Join(dir, fmt.Sprintf("%03d_points.png", index))
	if err := vis.SavePreview(annotated, path, img.W/8); err != nil {
		logger.Warnw("failed to save debug image", "error", err)
	}
}

func printSummary(name string, s realism.Summary) {
	fmt.Printf("\n=== %s over %d frames ===\n", name, s.Count)
	fmt.Printf("Mean: %.4f\n", s.Mean)
	fmt.Printf("Std:  %.4f\n", s.Std)
	fmt.Printf("Max:  %.4f\n", s.Max)
	fmt.Printf("Min:  %.4f\n", s.Min)
}
