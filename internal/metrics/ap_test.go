package metrics

import (
	"math"
	"testing"
)

func TestAPRecallPerfectDetector(t *testing.T) {
	dets := []Detection{
		{Score: 0.9, Matched: true},
		{Score: 0.8, Matched: true},
		{Score: 0.7, Matched: true},
		{Score: 0.6, Matched: true},
	}
	pr, err := APRecall(dets, 4, 0.5)
	if err != nil {
		t.Fatalf("APRecall failed: %v", err)
	}
	if math.Abs(pr.AP-1) > 1e-12 {
		t.Errorf("AP = %g, want 1 for a perfect detector", pr.AP)
	}
	if pr.Precision != 1 || pr.Recall != 1 {
		t.Errorf("P/R = %g/%g, want 1/1", pr.Precision, pr.Recall)
	}
}

func TestAPRecallAllMisses(t *testing.T) {
	dets := []Detection{
		{Score: 0.9, Matched: false},
		{Score: 0.8, Matched: false},
	}
	pr, err := APRecall(dets, 3, 0.5)
	if err != nil {
		t.Fatalf("APRecall failed: %v", err)
	}
	if pr.AP != 0 {
		t.Errorf("AP = %g, want 0", pr.AP)
	}
	if pr.Recall != 0 {
		t.Errorf("recall = %g, want 0", pr.Recall)
	}
}

func TestAPRecallMixedDetections(t *testing.T) {
	// One hit at high confidence, one miss, one hit: precision drops then
	// partially recovers; the envelope keeps it monotone.
	dets := []Detection{
		{Score: 0.9, Matched: true},
		{Score: 0.8, Matched: false},
		{Score: 0.7, Matched: true},
	}
	pr, err := APRecall(dets, 2, 0.75)
	if err != nil {
		t.Fatalf("APRecall failed: %v", err)
	}
	if pr.AP <= 0 || pr.AP >= 1 {
		t.Errorf("AP = %g, want in (0, 1)", pr.AP)
	}
	// At conf 0.75 only the first two detections count: 1 TP of 2 positives.
	if math.Abs(pr.Recall-0.5) > 1e-12 {
		t.Errorf("recall@0.75 = %g, want 0.5", pr.Recall)
	}
	if math.Abs(pr.Precision-0.5) > 1e-12 {
		t.Errorf("precision@0.75 = %g, want 0.5", pr.Precision)
	}
}

func TestAPRecallSortsByScore(t *testing.T) {
	unsorted := []Detection{
		{Score: 0.2, Matched: false},
		{Score: 0.9, Matched: true},
	}
	pr, err := APRecall(unsorted, 1, 0.5)
	if err != nil {
		t.Fatalf("APRecall failed: %v", err)
	}
	// The matched detection ranks first, so AP is perfect despite the later
	// false positive.
	if math.Abs(pr.AP-1) > 1e-12 {
		t.Errorf("AP = %g, want 1", pr.AP)
	}
}

func TestAPRecallEdgeCases(t *testing.T) {
	if _, err := APRecall(nil, 0, 0.5); err == nil {
		t.Error("zero positives should be rejected")
	}
	pr, err := APRecall(nil, 5, 0.5)
	if err != nil {
		t.Fatalf("APRecall failed: %v", err)
	}
	if pr.AP != 0 {
		t.Errorf("AP with no detections = %g, want 0", pr.AP)
	}
}
