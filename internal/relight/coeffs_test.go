package relight

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestCoeffsSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coeffs.json")
	want := Coeffs{
		Method: Method{Base: Percentile, Channels: ChannelsPooled, Percentile: 0.2},
		Values: [][]float64{{0.5, 0.25}},
	}
	if err := want.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := LoadCoeffs(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.Method != want.Method {
		t.Errorf("method = %+v, want %+v", got.Method, want.Method)
	}
	if len(got.Values) != 1 || got.Values[0][0] != 0.5 || got.Values[0][1] != 0.25 {
		t.Errorf("values = %v, want %v", got.Values, want.Values)
	}
}

func TestLoadCoeffsMissingFile(t *testing.T) {
	if _, err := LoadCoeffs(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadCoeffsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCoeffs(path); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestCoeffsIsFinite(t *testing.T) {
	finite := Coeffs{Values: [][]float64{{1, 2}, {3, 4}}}
	if !finite.IsFinite() {
		t.Error("finite coefficients reported non-finite")
	}
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		c := Coeffs{Values: [][]float64{{1, bad}}}
		if c.IsFinite() {
			t.Errorf("coefficients containing %g reported finite", bad)
		}
	}
}
