// Package threshold parses and evaluates performance assertions against the
// measurements of a shaping or policing run.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/stampede/internal/metrics"
)

// Threshold represents an assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g. "peak", "sustained", "delay", "violations"
	Aggregate string  // e.g. "rate", "p99", "max", "count"
	Operator  string  // e.g. "<", "<=", ">", ">=", "=="
	Value     float64 // the value to compare against
	Raw       string  // original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against collected measurements.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the provided stats.
func (e *Evaluator) Evaluate(stats metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, stats))
	}
	return results
}

func evaluateOne(t Threshold, stats metrics.Stats) Result {
	actual, err := extractMetricValue(t, stats)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
//   - "peak:rate < 2100"        (peak rate in events/s)
//   - "sustained:rate <= 1034"  (sustained rate in events/s)
//   - "delay:p99 < 5"           (delay percentile in ms)
//   - "delay:max < 100"         (worst stall in ms)
//   - "violations:count == 0"   (non-conforming block count)
//   - "violations:rate < 0.01"  (non-conforming share of blocks)
//   - "blocks:count > 1000"     (block count)
//   - "events:count > 100000"   (event count)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	pattern := regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)
	matches := pattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format %q: expected \"metric:aggregate op value\"", s)
	}

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", matches[4], err)
	}

	t := Threshold{
		Metric:    matches[1],
		Aggregate: matches[2],
		Operator:  matches[3],
		Value:     value,
		Raw:       s,
	}

	switch t.Operator {
	case "<", "<=", ">", ">=", "==", "!=":
	default:
		return Threshold{}, fmt.Errorf("unsupported operator %q in threshold %q", t.Operator, s)
	}

	if _, err := extractMetricValue(t, metrics.Stats{}); err != nil {
		return Threshold{}, err
	}

	return t, nil
}

// ParseAll parses a list of threshold strings, failing on the first bad one.
func ParseAll(raw []string) ([]Threshold, error) {
	thresholds := make([]Threshold, 0, len(raw))
	for _, s := range raw {
		t, err := Parse(s)
		if err != nil {
			return nil, err
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, nil
}

func extractMetricValue(t Threshold, stats metrics.Stats) (float64, error) {
	switch t.Metric {
	case "peak":
		if t.Aggregate == "rate" {
			return stats.PeakRate, nil
		}
	case "sustained":
		if t.Aggregate == "rate" {
			return stats.SustainedRate, nil
		}
	case "delay":
		switch t.Aggregate {
		case "p50":
			return stats.P50DelayMs, nil
		case "p90":
			return stats.P90DelayMs, nil
		case "p99":
			return stats.P99DelayMs, nil
		case "max":
			return stats.MaxDelayMs, nil
		case "min":
			return stats.MinDelayMs, nil
		}
	case "violations":
		switch t.Aggregate {
		case "count":
			return float64(stats.Violations), nil
		case "rate":
			if stats.Blocks == 0 {
				return 0, nil
			}
			return float64(stats.Violations) / float64(stats.Blocks), nil
		}
	case "blocks":
		if t.Aggregate == "count" {
			return float64(stats.Blocks), nil
		}
	case "events":
		if t.Aggregate == "count" {
			return float64(stats.Events), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q:%q", t.Metric, t.Aggregate)
}

func compareValues(actual float64, operator string, value float64) bool {
	const epsilon = 1e-9
	switch operator {
	case "<":
		return actual < value
	case "<=":
		return actual <= value
	case ">":
		return actual > value
	case ">=":
		return actual >= value
	case "==":
		return math.Abs(actual-value) < epsilon
	case "!=":
		return math.Abs(actual-value) >= epsilon
	default:
		return false
	}
}
