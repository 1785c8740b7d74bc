package sign

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r.NumClasses() != 11 {
		t.Fatalf("NumClasses = %d, want 11", r.NumClasses())
	}

	octagon, err := r.ClassByName("octagon")
	if err != nil {
		t.Fatalf("ClassByName failed: %v", err)
	}
	if octagon.Shape != ShapeOctagon {
		t.Errorf("octagon shape = %q", octagon.Shape)
	}
	if octagon.HWRatio() != 1 {
		t.Errorf("octagon h/w ratio = %g, want 1", octagon.HWRatio())
	}

	rectS, err := r.ClassByName("rect-s")
	if err != nil {
		t.Fatalf("ClassByName failed: %v", err)
	}
	if want := 610.0 / 458.0; math.Abs(rectS.HWRatio()-want) > 1e-12 {
		t.Errorf("rect-s h/w ratio = %g, want %g", rectS.HWRatio(), want)
	}

	if _, err := r.ClassByName("other"); err == nil {
		t.Error("unknown class should fail lookup")
	}
	if _, err := r.Class(11); err == nil {
		t.Error("out-of-range class ID should fail")
	}
}

func TestRegistryNamesInIDOrder(t *testing.T) {
	r := NewRegistry()
	names := r.Names()
	if names[0] != "circle" || names[len(names)-1] != "octagon" {
		t.Errorf("names order: %v", names)
	}
	for i, name := range names {
		c, err := r.Class(i)
		if err != nil {
			t.Fatalf("Class(%d) failed: %v", i, err)
		}
		if c.Name != name || c.ID != i {
			t.Errorf("class %d: name %q id %d", i, c.Name, c.ID)
		}
	}
}

func TestLoadRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes.json")
	body := `[
		{"name": "stop", "shape": "octagon", "height_mm": 900, "width_mm": 900},
		{"name": "yield", "shape": "triangle_inverted", "height_mm": 900, "width_mm": 900}
	]`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if r.NumClasses() != 2 {
		t.Errorf("NumClasses = %d, want 2", r.NumClasses())
	}
	stop, err := r.ClassByName("stop")
	if err != nil {
		t.Fatalf("ClassByName failed: %v", err)
	}
	if stop.ID != 0 || stop.Shape != ShapeOctagon {
		t.Errorf("stop = %+v", stop)
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad shape", `[{"name": "x", "shape": "star", "height_mm": 1, "width_mm": 1}]`},
		{"zero size", `[{"name": "x", "shape": "circle", "height_mm": 0, "width_mm": 1}]`},
		{"duplicate name", `[
			{"name": "x", "shape": "circle", "height_mm": 1, "width_mm": 1},
			{"name": "x", "shape": "square", "height_mm": 1, "width_mm": 1}
		]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "classes.json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadRegistry(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	if _, err := ParseShape("hexagon"); err == nil {
		t.Error("unknown shape should fail")
	}
	got, err := ParseShape("triangle_inverted")
	if err != nil || got != ShapeTriangleInverted {
		t.Errorf("ParseShape = %v, %v", got, err)
	}
}
