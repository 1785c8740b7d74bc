package colorspace

import (
	"math"

	"sign-relight/internal/imgtensor"
)

// eps keeps the log compression away from log(0).
const eps = 1e-6

// Fixed basis matrices for the cone-response Lab variant. Pixels are treated
// as row vectors, so each matrix is applied on the right (out = v * M).
var (
	rgbToLMS = [3][3]float64{
		{0.3811, 0.5783, 0.0402},
		{0.1967, 0.7244, 0.0782},
		{0.0241, 0.1288, 0.8444},
	}
	lmsToRGB = [3][3]float64{
		{4.4679, -3.5873, 0.1193},
		{-1.2186, 2.3809, -0.1624},
		{0.0497, -0.2439, 1.2045},
	}
	logLMSToLab = scaleRows([3][3]float64{
		{1, 1, 1},
		{1, 1, -2},
		{1, -1, 0},
	})
	labToLogLMS = scaleCols([3][3]float64{
		{1, 1, 1},
		{1, 1, -1},
		{1, -2, 0},
	})
)

var axisScale = [3]float64{1 / math.Sqrt(3), 1 / math.Sqrt(6), 1 / math.Sqrt(2)}

func scaleRows(m [3][3]float64) [3][3]float64 {
	for i := range m {
		for j := range m[i] {
			m[i][j] *= axisScale[i]
		}
	}
	return m
}

func scaleCols(m [3][3]float64) [3][3]float64 {
	for i := range m {
		for j := range m[i] {
			m[i][j] *= axisScale[j]
		}
	}
	return m
}

// mulRight computes out = v * M for a row vector v.
func mulRight(v [3]float64, m [3][3]float64) [3]float64 {
	var out [3]float64
	for d := 0; d < 3; d++ {
		out[d] = v[0]*m[0][d] + v[1]*m[1][d] + v[2]*m[2][d]
	}
	return out
}

// RGBToLabLMS converts an RGB tensor to the log-LMS Lab space. Inputs are
// clamped to (eps, 1-eps) before the log compression.
func RGBToLabLMS(t *imgtensor.Tensor) *imgtensor.Tensor {
	out := imgtensor.New(t.N, t.C, t.H, t.W)
	for n := 0; n < t.N; n++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				var rgb [3]float64
				for c := 0; c < 3; c++ {
					v := t.At(n, c, y, x)
					if v < eps {
						v = eps
					} else if v > 1-eps {
						v = 1 - eps
					}
					rgb[c] = v
				}
				lms := mulRight(rgb, rgbToLMS)
				for c := 0; c < 3; c++ {
					lms[c] = math.Log(lms[c])
				}
				lab := mulRight(lms, logLMSToLab)
				for c := 0; c < 3; c++ {
					out.Set(n, c, y, x, lab[c])
				}
			}
		}
	}
	return out
}

// LabLMSToRGB converts a log-LMS Lab tensor back to RGB. The result is not
// clipped to [0, 1].
func LabLMSToRGB(t *imgtensor.Tensor) *imgtensor.Tensor {
	out := imgtensor.New(t.N, t.C, t.H, t.W)
	for n := 0; n < t.N; n++ {
		for y := 0; y < t.H; y++ {
			for x := 0; x < t.W; x++ {
				lab := [3]float64{t.At(n, 0, y, x), t.At(n, 1, y, x), t.At(n, 2, y, x)}
				logLMS := mulRight(lab, labToLogLMS)
				for c := 0; c < 3; c++ {
					logLMS[c] = math.Exp(logLMS[c])
				}
				rgb := mulRight(logLMS, lmsToRGB)
				for c := 0; c < 3; c++ {
					out.Set(n, c, y, x, rgb[c])
				}
			}
		}
	}
	return out
}
