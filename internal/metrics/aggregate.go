package metrics

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// asrEps avoids division by zero when a class has no clean detections.
const asrEps = 1e-9

// ClassResult holds per-class outcomes of one experiment run. AP and FNR
// are percentages.
type ClassResult struct {
	Class      string
	AP         float64
	FNR        float64
	NumClean   int // signs detected on clean frames
	NumSucceed int // signs no longer detected under attack
	NumSigns   int // total annotated signs of this class
}

// ASR returns the attack success rate percentage for the class.
func (c ClassResult) ASR() float64 {
	return float64(c.NumSucceed) / (float64(c.NumClean) + asrEps) * 100
}

// RunSummary aggregates class results across one experiment run.
type RunSummary struct {
	AvgAP       float64
	AvgFNR      float64
	AvgASR      float64
	WeightedFNR float64 // weighted by per-class sign counts
	WeightedASR float64
	CombinedASR float64 // total successes over total clean detections
}

// Summarize computes plain and sign-count-weighted averages over classes.
func Summarize(results []ClassResult) (RunSummary, error) {
	if len(results) == 0 {
		return RunSummary{}, fmt.Errorf("no class results to summarize")
	}
	var s RunSummary
	var totalSigns, totalClean, totalSucceed int
	for _, r := range results {
		s.AvgAP += r.AP
		s.AvgFNR += r.FNR
		s.AvgASR += r.ASR()
		s.WeightedFNR += r.FNR * float64(r.NumSigns)
		s.WeightedASR += r.ASR() * float64(r.NumSigns)
		totalSigns += r.NumSigns
		totalClean += r.NumClean
		totalSucceed += r.NumSucceed
	}
	n := float64(len(results))
	s.AvgAP /= n
	s.AvgFNR /= n
	s.AvgASR /= n
	if totalSigns > 0 {
		s.WeightedFNR /= float64(totalSigns)
		s.WeightedASR /= float64(totalSigns)
	}
	s.CombinedASR = float64(totalSucceed) / (float64(totalClean) + asrEps) * 100
	return s, nil
}

// WriteCSV writes per-class rows followed by an all-classes summary row.
func WriteCSV(w io.Writer, results []ClassResult) error {
	summary, err := Summarize(results)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"class", "ap", "fnr", "asr", "num_clean", "num_succeed", "num_signs"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Class,
			formatPct(r.AP),
			formatPct(r.FNR),
			formatPct(r.ASR()),
			strconv.Itoa(r.NumClean),
			strconv.Itoa(r.NumSucceed),
			strconv.Itoa(r.NumSigns),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	total := []string{
		"all",
		formatPct(summary.AvgAP),
		formatPct(summary.WeightedFNR),
		formatPct(summary.WeightedASR),
		"", "", "",
	}
	if err := cw.Write(total); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
