// Package realism orchestrates the realism test: fitting relight
// coefficients on clean frames and scoring geometric and photometric errors
// on patched frames.
package realism

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"sign-relight/pkg/geometry"
)

// Annotation holds one labeled photograph: the four sign corners and, for
// patched frames, the four patch corners, in annotation-resolution pixels.
type Annotation struct {
	FileName     string
	SignCorners  []geometry.Point2D
	PatchCorners []geometry.Point2D
}

// Scaled returns a copy with all corner coordinates multiplied by factor,
// used to map annotation resolution onto the working image width.
func (a Annotation) Scaled(factor float64) Annotation {
	out := Annotation{FileName: a.FileName}
	for _, p := range a.SignCorners {
		out.SignCorners = append(out.SignCorners, p.Scale(factor))
	}
	for _, p := range a.PatchCorners {
		out.PatchCorners = append(out.PatchCorners, p.Scale(factor))
	}
	return out
}

var signCols = []string{
	"sign_x1", "sign_y1", "sign_x2", "sign_y2",
	"sign_x3", "sign_y3", "sign_x4", "sign_y4",
}

var patchCols = []string{
	"patch_x1", "patch_y1", "patch_x2", "patch_y2",
	"patch_x3", "patch_y3", "patch_x4", "patch_y4",
}

// LoadAnnotations reads the annotation CSV. Required columns: file_name and
// the eight sign corner coordinates; the eight patch corner columns are
// optional per row (empty cells mean no patch annotation).
func LoadAnnotations(path string) ([]Annotation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotations: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read annotation header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	if _, ok := col["file_name"]; !ok {
		return nil, fmt.Errorf("annotation file %s has no file_name column", path)
	}
	for _, name := range signCols {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("annotation file %s has no %s column", path, name)
		}
	}

	var annotations []Annotation
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read annotation line %d: %w", line, err)
		}

		anno := Annotation{FileName: record[col["file_name"]]}
		anno.SignCorners, err = parseCorners(record, col, signCols)
		if err != nil {
			return nil, fmt.Errorf("annotation line %d: %w", line, err)
		}
		if corners, err := parseCorners(record, col, patchCols); err == nil {
			anno.PatchCorners = corners
		}
		annotations = append(annotations, anno)
	}
	return annotations, nil
}

func parseCorners(record []string, col map[string]int, names []string) ([]geometry.Point2D, error) {
	coords := make([]float64, len(names))
	for i, name := range names {
		idx, ok := col[name]
		if !ok || idx >= len(record) || record[idx] == "" {
			return nil, fmt.Errorf("missing column %s", name)
		}
		v, err := strconv.ParseFloat(record[idx], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q", name, record[idx])
		}
		coords[i] = v
	}
	points := make([]geometry.Point2D, len(names)/2)
	for i := range points {
		points[i] = geometry.Point2D{X: coords[i*2], Y: coords[i*2+1]}
	}
	return points, nil
}
