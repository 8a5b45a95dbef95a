package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/output"
	"github.com/torosent/stampede/internal/threshold"
)

func sampleStats() metrics.Stats {
	return metrics.Stats{
		Blocks:        100,
		Events:        50_000,
		Violations:    2,
		MaxBlock:      512,
		Duration:      10 * time.Second,
		PeakRate:      2047.5,
		SustainedRate: 1023.9,
		MeanBlock:     500,
		P99DelayMs:    4.2,
	}
}

func TestPrintReport(t *testing.T) {
	thresholds, err := threshold.ParseAll([]string{"violations:count == 0", "sustained:rate <= 1034"})
	if err != nil {
		t.Fatal(err)
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(sampleStats())

	var buf bytes.Buffer
	output.PrintReport(&buf, "Shaping", sampleStats(), results)
	report := buf.String()

	for _, want := range []string{
		"--- Shaping Results ---",
		"Blocks:            100",
		"Events:            50000",
		"Violations:        2",
		"Peak Rate:         2047.50 events/s",
		"Sustained Rate:    1023.90 events/s",
		"Threshold Summary: 1/2 passed",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	thresholds, err := threshold.ParseAll([]string{"violations:count == 0"})
	if err != nil {
		t.Fatal(err)
	}
	results := threshold.NewEvaluator(thresholds).Evaluate(sampleStats())

	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, sampleStats(), results); err != nil {
		t.Fatal(err)
	}
	report := buf.String()

	if got := gjson.Get(report, "blocks").Int(); got != 100 {
		t.Errorf("blocks = %d, want 100", got)
	}
	if got := gjson.Get(report, "events").Int(); got != 50000 {
		t.Errorf("events = %d, want 50000", got)
	}
	if got := gjson.Get(report, "sustained_rate").Float(); got != 1023.9 {
		t.Errorf("sustained_rate = %f, want 1023.9", got)
	}
	if got := gjson.Get(report, "thresholds.#").Int(); got != 1 {
		t.Errorf("thresholds count = %d, want 1", got)
	}
	if gjson.Get(report, "thresholds.0.pass").Bool() {
		t.Error("violations threshold should fail")
	}
	if got := gjson.Get(report, "thresholds.0.actual").Float(); got != 2 {
		t.Errorf("thresholds.0.actual = %f, want 2", got)
	}
}

func TestWriteJSONOmitsThresholdsWhenNone(t *testing.T) {
	var buf bytes.Buffer
	if err := output.WriteJSON(&buf, sampleStats(), nil); err != nil {
		t.Fatal(err)
	}
	if gjson.Get(buf.String(), "thresholds").Exists() {
		t.Error("thresholds key should be omitted when empty")
	}
}
