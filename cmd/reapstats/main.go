// Command reapstats turns per-class detection outcomes of a benchmark run
// into a CSV of AP, FNR, and attack success rates.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"sign-relight/internal/metrics"
	"sign-relight/internal/version"
)

// classOutcome is one class's raw detection record as produced by a
// benchmark run.
type classOutcome struct {
	Class        string              `json:"class"`
	Detections   []metrics.Detection `json:"detections"`
	NumPositives int                 `json:"num_positives"`
	NumClean     int                 `json:"num_clean"`
	NumSucceed   int                 `json:"num_succeed"`
	NumSigns     int                 `json:"num_signs"`
}

func main() {
	resultsPath := flag.String("results", "", "Path to per-class detection results JSON")
	outPath := flag.String("out", "", "Output CSV path (default stdout)")
	confThres := flag.Float64("conf", 0.634, "Confidence threshold for FNR")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("reapstats", version.String())
		return
	}
	if *resultsPath == "" {
		fmt.Println("Usage: reapstats -results <json> [-out <csv>] [-conf <threshold>]")
		os.Exit(1)
	}

	outcomes, err := loadOutcomes(*resultsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load results: %v\n", err)
		os.Exit(1)
	}

	results := make([]metrics.ClassResult, 0, len(outcomes))
	for _, o := range outcomes {
		pr, err := metrics.APRecall(o.Detections, o.NumPositives, *confThres)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Class %s: %v\n", o.Class, err)
			os.Exit(1)
		}
		results = append(results, metrics.ClassResult{
			Class:      o.Class,
			AP:         pr.AP * 100,
			FNR:        (1 - pr.Recall) * 100,
			NumClean:   o.NumClean,
			NumSucceed: o.NumSucceed,
			NumSigns:   o.NumSigns,
		})
	}

	var w io.Writer = os.Stdout
	if *outPath != "" {
		file, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}
	if err := metrics.WriteCSV(w, results); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write CSV: %v\n", err)
		os.Exit(1)
	}

	summary, err := metrics.Summarize(results)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to summarize: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Avg AP: %.2f  Weighted FNR: %.2f  Weighted ASR: %.2f  Combined ASR: %.2f\n",
		summary.AvgAP, summary.WeightedFNR, summary.WeightedASR, summary.CombinedASR)
}

func loadOutcomes(path string) ([]classOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var outcomes []classOutcome
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("no class outcomes in %s", path)
	}
	return outcomes, nil
}
