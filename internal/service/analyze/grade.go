package analyze

import (
	"fmt"

	"github.com/rkampani/perfcheck/internal/model"
)

// Scoring thresholds. Bands are mutually exclusive; the highest triggered
// band applies.
const (
	p95SevereMs   = 2000
	p95HighMs     = 1000
	p95ModerateMs = 500

	tailRatioSevere = 3
	tailRatioHigh   = 2

	errRateSeverePct   = 5
	errRateHighPct     = 1
	errRateModeratePct = 0.1
)

// Grade scores aggregate stats deterministically: 100 points minus
// independent deductions for p95 latency, p99/p95 tail ratio and error rate,
// floored at zero. Every triggered deduction appends a note naming the
// offending value.
func Grade(stats *model.LoadStats) model.Grade {
	score := 100
	notes := []string{}

	if p95 := stats.Latency.P95; p95 != nil {
		switch {
		case *p95 > p95SevereMs:
			score -= 30
			notes = append(notes, fmt.Sprintf("p95 latency %.2fms exceeds %dms", *p95, p95SevereMs))
		case *p95 > p95HighMs:
			score -= 15
			notes = append(notes, fmt.Sprintf("p95 latency %.2fms exceeds %dms", *p95, p95HighMs))
		case *p95 > p95ModerateMs:
			score -= 5
			notes = append(notes, fmt.Sprintf("p95 latency %.2fms exceeds %dms", *p95, p95ModerateMs))
		}
	}

	if p95, p99 := stats.Latency.P95, stats.Latency.P99; p95 != nil && p99 != nil && *p95 != 0 {
		ratio := *p99 / *p95
		switch {
		case ratio > tailRatioSevere:
			score -= 15
			notes = append(notes, fmt.Sprintf("p99/p95 tail ratio %.2f exceeds %d", ratio, tailRatioSevere))
		case ratio > tailRatioHigh:
			score -= 5
			notes = append(notes, fmt.Sprintf("p99/p95 tail ratio %.2f exceeds %d", ratio, tailRatioHigh))
		}
	}

	if er := stats.ErrorRatePercent; er != nil {
		switch {
		case *er > errRateSeverePct:
			score -= 30
			notes = append(notes, fmt.Sprintf("error rate %.2f%% exceeds %d%%", *er, errRateSeverePct))
		case *er > errRateHighPct:
			score -= 15
			notes = append(notes, fmt.Sprintf("error rate %.2f%% exceeds %d%%", *er, errRateHighPct))
		case *er > errRateModeratePct:
			score -= 5
			notes = append(notes, fmt.Sprintf("error rate %.2f%% exceeds %.1f%%", *er, errRateModeratePct))
		}
	}

	if score < 0 {
		score = 0
	}

	return model.Grade{
		Score:  score,
		Letter: letter(score),
		Notes:  notes,
	}
}

func letter(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 50:
		return "D"
	default:
		return "F"
	}
}
