package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/threshold"
)

// PrintReport outputs a human-readable summary of a run.
func PrintReport(w io.Writer, verb string, stats metrics.Stats, thresholdResults []threshold.Result) {
	fmt.Fprintf(w, "\n--- %s Results ---\n", verb)
	fmt.Fprintf(w, "Blocks:            %d\n", stats.Blocks)
	fmt.Fprintf(w, "Events:            %d\n", stats.Events)
	fmt.Fprintf(w, "Violations:        %d\n", stats.Violations)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Mean Block:        %.1f events\n", stats.MeanBlock)
	fmt.Fprintf(w, "Max Block:         %d events\n", stats.MaxBlock)
	fmt.Fprintf(w, "Peak Rate:         %.2f events/s\n", stats.PeakRate)
	fmt.Fprintf(w, "Sustained Rate:    %.2f events/s\n", stats.SustainedRate)
	fmt.Fprintln(w, "\nStall:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinDelay)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxDelay)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Delay)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Delay)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Delay)

	if len(thresholdResults) > 0 {
		fmt.Fprintln(w, "\nThresholds:")
		passCount := 0
		for _, result := range thresholdResults {
			fmt.Fprintf(w, "  %s\n", result.Message)
			if result.Pass {
				passCount++
			}
		}
		fmt.Fprintf(w, "\nThreshold Summary: %d/%d passed\n", passCount, len(thresholdResults))
	}
}

// jsonReport is the envelope for machine-readable output.
type jsonReport struct {
	metrics.Stats
	Thresholds []jsonThreshold `json:"thresholds,omitempty"`
}

type jsonThreshold struct {
	Raw    string  `json:"raw"`
	Actual float64 `json:"actual"`
	Pass   bool    `json:"pass"`
}

// WriteJSON emits the run statistics and threshold outcomes as indented
// JSON.
func WriteJSON(w io.Writer, stats metrics.Stats, thresholdResults []threshold.Result) error {
	report := jsonReport{Stats: stats}
	for _, result := range thresholdResults {
		report.Thresholds = append(report.Thresholds, jsonThreshold{
			Raw:    result.Threshold.Raw,
			Actual: result.Actual,
			Pass:   result.Pass,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
