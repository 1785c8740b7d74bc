// Package metrics aggregates detection outcomes of benchmark runs into
// AP, FNR, and ASR summaries.
package metrics

import (
	"fmt"
	"sort"
)

// Detection is one predicted box: its confidence score and whether it was
// matched to a ground-truth object at the evaluation IoU threshold.
type Detection struct {
	Score   float64 `json:"score"`
	Matched bool    `json:"matched"`
}

// PRResult holds the precision/recall evaluation for one class.
type PRResult struct {
	AP        float64 // area under the interpolated PR curve
	Precision float64 // precision at the confidence threshold
	Recall    float64 // recall at the confidence threshold
}

// numRecallThresholds matches the COCO convention of 101 evenly spaced
// recall levels.
const numRecallThresholds = 101

// APRecall computes COCO-style average precision: detections are sorted by
// descending score (stable), precision is made monotonically decreasing,
// and sampled at 101 recall thresholds. Precision and recall are also
// reported at the given confidence threshold.
func APRecall(dets []Detection, numPositives int, confThres float64) (PRResult, error) {
	if numPositives <= 0 {
		return PRResult{}, fmt.Errorf("number of ground-truth positives must be positive, got %d", numPositives)
	}
	if len(dets) == 0 {
		return PRResult{}, nil
	}

	sorted := make([]Detection, len(dets))
	copy(sorted, dets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	n := len(sorted)
	recall := make([]float64, n)
	precision := make([]float64, n)
	tp := 0
	for i, d := range sorted {
		if d.Matched {
			tp++
		}
		recall[i] = float64(tp) / float64(numPositives)
		precision[i] = float64(tp) / float64(i+1)
	}

	// Monotonically decreasing precision envelope, built from the tail.
	envelope := make([]float64, n)
	envelope[n-1] = precision[n-1]
	for i := n - 2; i >= 0; i-- {
		envelope[i] = precision[i]
		if envelope[i+1] > envelope[i] {
			envelope[i] = envelope[i+1]
		}
	}

	var apSum float64
	for i := 0; i < numRecallThresholds; i++ {
		threshold := float64(i) / float64(numRecallThresholds-1)
		idx := sort.SearchFloat64s(recall, threshold)
		if idx < n {
			apSum += envelope[idx]
		}
	}

	result := PRResult{AP: apSum / numRecallThresholds}

	// Precision/recall at the confidence threshold: the last detection whose
	// score still clears it.
	last := -1
	for i, d := range sorted {
		if d.Score >= confThres {
			last = i
		}
	}
	if last >= 0 {
		result.Precision = precision[last]
		result.Recall = recall[last]
	}
	return result, nil
}
