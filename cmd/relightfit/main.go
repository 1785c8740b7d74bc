// Command relightfit estimates relight coefficients for a single photograph
// from labeled sign corners, saves them as JSON, and can optionally apply
// them to a patch image.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sign-relight/internal/imgtensor"
	"sign-relight/internal/relight"
	"sign-relight/internal/sign"
	"sign-relight/internal/transform"
	"sign-relight/internal/version"
	"sign-relight/pkg/geometry"

	"github.com/edaniels/golog"
)

func main() {
	imagePath := flag.String("image", "", "Path to the photograph")
	className := flag.String("class", "", "Sign class name (e.g. 'octagon')")
	corners := flag.String("corners", "", "Labeled sign corners as x1,y1,x2,y2,... in image pixels")
	methodName := flag.String("method", "percentile", "Relight method name")
	degree := flag.Int("degree", 1, "Polynomial degree")
	percentile := flag.Float64("percentile", 0.1, "Percentile / residual trim fraction")
	geoName := flag.String("geo", "perspective", "Geometric transform: perspective, affine, translate_scale")
	workingWidth := flag.Int("width", 0, "Resize photograph to this width (0 keeps original)")
	objWidth := flag.Int("obj-width", 64, "Canonical sign width in pixels")
	synPath := flag.String("syn", "", "Optional synthetic sign image (required for polynomial methods)")
	outPath := flag.String("out", "", "Write fitted coefficients to this JSON file")
	applyPath := flag.String("apply", "", "Apply coefficients to this image")
	relitPath := flag.String("relit", "relit.png", "Output path for the relit -apply image")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("relightfit", version.String())
		return
	}
	if *imagePath == "" || *className == "" || *corners == "" {
		fmt.Println("Usage: relightfit -image <photo> -class <name> -corners x1,y1,... [-method <name>] [-out <json>]")
		os.Exit(1)
	}

	logger := golog.NewDevelopmentLogger("relightfit")

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
	tgt, err := parsePoints(*corners)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid corners: %v\n", err)
		os.Exit(1)
	}

	img, err := imgtensor.Load(*imagePath, *workingWidth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	registry := sign.NewRegistry()
	signMask, src, err := registry.GenerateClassMask(*className, *objWidth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate sign mask: %v\n", err)
		os.Exit(1)
	}
	if len(tgt) < len(src) {
		fmt.Fprintf(os.Stderr, "Class %s needs %d corners, got %d\n", *className, len(src), len(tgt))
		os.Exit(1)
	}
	tgt = tgt[:len(src)]

	synObj := maskAsSynObj(signMask)
	if *synPath != "" {
		synObj, err = imgtensor.Load(*synPath, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load synthetic object: %v\n", err)
			os.Exit(1)
		}
	}

	coeffs, err := relight.FitPoints(method, relight.FitInput{
		Image:  img,
		Mask:   signMask,
		SynObj: synObj,
		Interp: transform.InterpBilinear,
	}, geoMode, src, tgt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relight fit failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Method: %s\n", coeffs.Method.String())
	fmt.Printf("Coefficients: %v\n", coeffs.Values)
	if *outPath != "" {
		if err := coeffs.Save(*outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save coefficients: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Saved coefficients to %s\n", *outPath)
	}

	if *applyPath == "" {
		return
	}
	target, err := imgtensor.Load(*applyPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load apply target: %v\n", err)
		os.Exit(1)
	}
	relit, err := relight.NewApplier(logger).Apply(target, coeffs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relight apply failed: %v\n", err)
		os.Exit(1)
	}
	if err := imgtensor.Save(relit, 0, *relitPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save relit image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote relit image to %s\n", *relitPath)
}

func parsePoints(s string) ([]geometry.Point2D, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 4 || len(fields)%2 != 0 {
		return nil, fmt.Errorf("need an even number of at least 4 coordinates, got %d", len(fields))
	}
	points := make([]geometry.Point2D, len(fields)/2)
	for i := range points {
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[i*2]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad x coordinate %q", fields[i*2])
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[i*2+1]), 64)
		if err != nil {
			return nil, fmt.Errorf("bad y coordinate %q", fields[i*2+1])
		}
		points[i] = geometry.Point2D{X: x, Y: y}
	}
	return points, nil
}

func maskAsSynObj(mask *imgtensor.Tensor) *imgtensor.Tensor {
	syn := imgtensor.New(1, 3, mask.H, mask.W)
	for c := 0; c < 3; c++ {
		for y := 0; y < mask.H; y++ {
			for x := 0; x < mask.W; x++ {
				syn.Set(0, c, y, x, mask.At(0, 0, y, x))
			}
		}
	}
	return syn
}
