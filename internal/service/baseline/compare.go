package baseline

import (
	"fmt"
	"math"

	"github.com/rkampani/perfcheck/internal/model"
)

const (
	// relativeThresholdPct is the generic regression/improvement threshold
	// on the percentage delta. Strictly greater-than: exactly 10% is not a
	// regression.
	relativeThresholdPct = 10

	// errRateCrossPct is the absolute error-rate threshold whose crossing
	// is always a regression, regardless of relative magnitude.
	errRateCrossPct = 1
)

// metricKind steers the regression rules: latency and error rate regress
// upwards, throughput regresses downwards.
type metricKind int

const (
	kindLatency metricKind = iota
	kindThroughput
	kindErrorRate
)

type trackedMetric struct {
	name string
	kind metricKind
	get  func(*model.LoadStats) *float64
}

// trackedMetrics is the fixed set of metrics a comparison covers, in report
// order.
var trackedMetrics = []trackedMetric{
	{name: "avg latency", kind: kindLatency, get: func(s *model.LoadStats) *float64 { return s.Latency.Avg }},
	{name: "p50 latency", kind: kindLatency, get: func(s *model.LoadStats) *float64 { return s.Latency.P50 }},
	{name: "p90 latency", kind: kindLatency, get: func(s *model.LoadStats) *float64 { return s.Latency.P90 }},
	{name: "p95 latency", kind: kindLatency, get: func(s *model.LoadStats) *float64 { return s.Latency.P95 }},
	{name: "p99 latency", kind: kindLatency, get: func(s *model.LoadStats) *float64 { return s.Latency.P99 }},
	{name: "throughput", kind: kindThroughput, get: func(s *model.LoadStats) *float64 { return s.RequestsPerSecond }},
	{name: "error rate", kind: kindErrorRate, get: func(s *model.LoadStats) *float64 { return s.ErrorRatePercent }},
}

// Compare computes signed deltas between a current run and a baseline,
// classifies each tracked metric, and renders the verdict. The verdict is
// REGRESSION_DETECTED whenever at least one regression fired.
func Compare(current *model.LoadStats, b *model.Baseline) *model.ComparisonResult {
	res := &model.ComparisonResult{
		BaselineName: b.Name,
		Regressions:  []string{},
		Improvements: []string{},
	}

	base := b.AggregateStats
	if base == nil {
		base = &model.LoadStats{}
	}

	for _, tm := range trackedMetrics {
		cur, prev := tm.get(current), tm.get(base)
		delta := diff(tm.name, cur, prev)
		res.Deltas = append(res.Deltas, delta)

		if delta.PercentDelta == nil {
			continue
		}
		pct := *delta.PercentDelta

		switch tm.kind {
		case kindLatency, kindErrorRate:
			if pct > relativeThresholdPct {
				res.Regressions = append(res.Regressions, fmt.Sprintf("%s increased %.2f%% (%.2f -> %.2f)", tm.name, pct, *prev, *cur))
			} else if pct < -relativeThresholdPct {
				res.Improvements = append(res.Improvements, fmt.Sprintf("%s decreased %.2f%% (%.2f -> %.2f)", tm.name, -pct, *prev, *cur))
			}
		case kindThroughput:
			if pct < -relativeThresholdPct {
				res.Regressions = append(res.Regressions, fmt.Sprintf("%s decreased %.2f%% (%.2f -> %.2f)", tm.name, -pct, *prev, *cur))
			}
		}
	}

	// Absolute escape hatch: crossing the 1% error-rate threshold is a
	// regression even when the relative rule stays silent.
	curErr, baseErr := current.ErrorRatePercent, base.ErrorRatePercent
	if curErr != nil && baseErr != nil && *curErr > errRateCrossPct && *baseErr <= errRateCrossPct {
		res.Regressions = append(res.Regressions, fmt.Sprintf("error rate crossed %d%% threshold (%.2f%% -> %.2f%%)", errRateCrossPct, *baseErr, *curErr))
	}

	res.Verdict = model.VerdictPass
	if len(res.Regressions) > 0 {
		res.Verdict = model.VerdictRegression
	}

	return res
}

// diff builds the delta record for one metric. The percentage delta is null
// when the baseline value is zero.
func diff(name string, cur, prev *float64) model.MetricDelta {
	d := model.MetricDelta{
		Metric:    name,
		Current:   cur,
		Baseline:  prev,
		Direction: model.DirectionUnknown,
	}
	if cur == nil || prev == nil {
		return d
	}

	abs := round2(*cur - *prev)
	d.AbsoluteDelta = model.Float(abs)

	switch {
	case abs > 0:
		d.Direction = model.DirectionIncreased
	case abs < 0:
		d.Direction = model.DirectionDecreased
	default:
		d.Direction = model.DirectionUnchanged
	}

	if *prev != 0 {
		d.PercentDelta = model.Float(round2((*cur - *prev) / *prev * 100))
	}

	return d
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
