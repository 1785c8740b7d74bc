package relight

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Coeffs holds fitted relighting coefficients together with the method that
// produced them. Affine methods (percentile, color transfer) store one
// [scale, offset] row per fitted channel; polynomial methods store one row
// of degree+1 coefficients per channel, highest degree first.
type Coeffs struct {
	Method Method      `json:"method"`
	Values [][]float64 `json:"values"`
}

// IdentityCoeffs returns pass-through coefficients for the no-op method.
func IdentityCoeffs() Coeffs {
	return Coeffs{Method: Method{Base: None}, Values: [][]float64{{1, 0}}}
}

// IsFinite reports whether every coefficient is a finite number.
func (c Coeffs) IsFinite() bool {
	for _, row := range c.Values {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Save writes the coefficients to a JSON file.
func (c Coeffs) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadCoeffs reads coefficients from a JSON file.
func LoadCoeffs(path string) (Coeffs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Coeffs{}, err
	}
	var c Coeffs
	if err := json.Unmarshal(data, &c); err != nil {
		return Coeffs{}, fmt.Errorf("invalid coefficient file %s: %w", path, err)
	}
	if !c.IsFinite() {
		return Coeffs{}, fmt.Errorf("coefficient file %s contains non-finite values", path)
	}
	return c, nil
}
