// Package analyze turns raw load-tool result documents into canonical
// aggregate stats and grades them.
package analyze

import (
	"encoding/json"
	"math"

	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
)

// k6 summary metric and statistic names. The document shape is an external
// contract: a `metrics` object keyed by metric name, each carrying a
// `values` object of named statistics.
const (
	metDuration = "http_req_duration"
	metFailed   = "http_req_failed"
	metRequests = "http_reqs"

	statAvg   = "avg"
	statMin   = "min"
	statMax   = "max"
	statMed   = "med"
	statP90   = "p(90)"
	statP95   = "p(95)"
	statP99   = "p(99)"
	statRate  = "rate"
	statCount = "count"
)

type resultDocument struct {
	Metrics map[string]struct {
		Values map[string]float64 `json:"values"`
	} `json:"metrics"`
}

// stat returns one named statistic of one named metric, or null when either
// is missing from the document.
func (d *resultDocument) stat(metric, stat string) *float64 {
	m, ok := d.Metrics[metric]
	if !ok {
		return nil
	}
	v, ok := m.Values[stat]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return model.Float(v)
}

// Extract reduces a load-tool result document to canonical aggregate stats.
// Numeric outputs are rounded to 2 decimals; missing source fields yield
// null. The only error condition is a document that does not parse.
func Extract(resultsData []byte) (*model.LoadStats, error) {
	doc := &resultDocument{}
	if err := json.Unmarshal(resultsData, doc); err != nil {
		return nil, errors.Wrap(err, "could not parse results document")
	}

	stats := &model.LoadStats{
		Latency: model.LatencyStats{
			Avg: round2p(doc.stat(metDuration, statAvg)),
			Min: round2p(doc.stat(metDuration, statMin)),
			Max: round2p(doc.stat(metDuration, statMax)),
			P50: round2p(doc.stat(metDuration, statMed)),
			P90: round2p(doc.stat(metDuration, statP90)),
			P95: round2p(doc.stat(metDuration, statP95)),
			P99: round2p(doc.stat(metDuration, statP99)),
		},
		TotalRequests:     round2p(doc.stat(metRequests, statCount)),
		RequestsPerSecond: round2p(doc.stat(metRequests, statRate)),
	}

	// The error rate is exposed as a 0-1 rate; canonical form is a
	// percentage.
	failRate := doc.stat(metFailed, statRate)
	if failRate != nil {
		stats.ErrorRatePercent = model.Float(round2(*failRate * 100))
	}

	// There is no direct error-count field in the document; it is derived.
	if failRate != nil && stats.TotalRequests != nil {
		stats.TotalErrors = model.Float(math.Round(*failRate * *stats.TotalRequests))
	}

	return stats, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2p(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(round2(*v))
}
