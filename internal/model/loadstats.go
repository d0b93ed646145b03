package model

import (
	"encoding/json"
	"time"
)

// LatencyStats holds request latency figures in milliseconds.
type LatencyStats struct {
	Avg *float64 `json:"avg"`
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
	P50 *float64 `json:"p50"`
	P90 *float64 `json:"p90"`
	P95 *float64 `json:"p95"`
	P99 *float64 `json:"p99"`
}

// LoadStats is the canonical aggregate view of one load-test run. Derived
// once from a load-tool result document and immutable afterwards.
type LoadStats struct {
	Latency           LatencyStats `json:"latency"`
	ErrorRatePercent  *float64     `json:"errorRatePercent"`
	TotalRequests     *float64     `json:"totalRequests"`
	RequestsPerSecond *float64     `json:"requestsPerSecond"`
	TotalErrors       *float64     `json:"totalErrors"`
}

// Grade is a deterministic scoring of one LoadStats.
type Grade struct {
	Score  int      `json:"score"`
	Letter string   `json:"letter"`
	Notes  []string `json:"notes"`
}

// Baseline is a named persisted aggregate-stats record used for regression
// comparison. Identity is the name; re-saving under the same name overwrites.
type Baseline struct {
	Name           string            `json:"baselineName"`
	SavedAt        time.Time         `json:"savedAt"`
	Metadata       map[string]string `json:"metadata"`
	AggregateStats *LoadStats        `json:"aggregateStats"`
	// ResultsData is the raw load-tool result document the stats were
	// derived from, kept verbatim for backward-compatible rereads.
	ResultsData json.RawMessage `json:"resultsData"`
}

// Direction classifies the sign of a metric delta.
type Direction string

const (
	DirectionIncreased Direction = "increased"
	DirectionDecreased Direction = "decreased"
	DirectionUnchanged Direction = "unchanged"
	// DirectionUnknown means one side of the comparison was null.
	DirectionUnknown Direction = "unknown"
)

// Verdict is the outcome of a baseline comparison.
type Verdict string

const (
	VerdictPass       Verdict = "PASS"
	VerdictRegression Verdict = "REGRESSION_DETECTED"
)

// MetricDelta is the comparison of one tracked metric against the baseline.
// PercentDelta is null when the baseline value is zero.
type MetricDelta struct {
	Metric        string    `json:"metric"`
	Current       *float64  `json:"current"`
	Baseline      *float64  `json:"baseline"`
	AbsoluteDelta *float64  `json:"absoluteDelta"`
	PercentDelta  *float64  `json:"percentDelta"`
	Direction     Direction `json:"direction"`
}

// ComparisonResult is the full verdict of comparing a run against a named
// baseline.
type ComparisonResult struct {
	BaselineName string        `json:"baselineName"`
	Deltas       []MetricDelta `json:"deltas"`
	Regressions  []string      `json:"regressions"`
	Improvements []string      `json:"improvements"`
	Verdict      Verdict       `json:"verdict"`
}
