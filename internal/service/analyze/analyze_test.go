package analyze_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/analyze"
)

const k6Summary = `{
  "metrics": {
    "http_req_duration": {
      "values": {
        "avg": 210.4567,
        "min": 12.1,
        "max": 1890.5,
        "med": 180.333,
        "p(90)": 420.9,
        "p(95)": 540.255,
        "p(99)": 980.1
      }
    },
    "http_req_failed": {
      "values": { "rate": 0.0225 }
    },
    "http_reqs": {
      "values": { "count": 12000, "rate": 200.123 }
    }
  }
}`

func TestExtract(t *testing.T) {
	assert := assert.New(t)

	stats, err := analyze.Extract([]byte(k6Summary))
	require.NoError(t, err)

	assert.Equal(float64(210.46), *stats.Latency.Avg)
	assert.Equal(float64(12.1), *stats.Latency.Min)
	assert.Equal(float64(1890.5), *stats.Latency.Max)
	assert.Equal(float64(180.33), *stats.Latency.P50)
	assert.Equal(float64(420.9), *stats.Latency.P90)
	assert.Equal(float64(540.26), *stats.Latency.P95)
	assert.Equal(float64(980.1), *stats.Latency.P99)

	// 0-1 rate converted to a percentage.
	assert.Equal(float64(2.25), *stats.ErrorRatePercent)
	assert.Equal(float64(12000), *stats.TotalRequests)
	assert.Equal(float64(200.12), *stats.RequestsPerSecond)

	// Derived, not read: round(rate * count).
	assert.Equal(float64(270), *stats.TotalErrors)
}

func TestExtractMissingFields(t *testing.T) {
	stats, err := analyze.Extract([]byte(`{"metrics":{"http_reqs":{"values":{"count":100}}}}`))
	require.NoError(t, err)

	assert.Nil(t, stats.Latency.Avg)
	assert.Nil(t, stats.Latency.P95)
	assert.Nil(t, stats.ErrorRatePercent)
	assert.Nil(t, stats.TotalErrors)
	assert.Equal(t, float64(100), *stats.TotalRequests)
	assert.Nil(t, stats.RequestsPerSecond)
}

func TestExtractMalformed(t *testing.T) {
	_, err := analyze.Extract([]byte(`not json at all`))
	assert.Error(t, err)
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name      string
		stats     *model.LoadStats
		expScore  int
		expLetter string
		expNotes  int
	}{
		{
			name:      "Clean run keeps a perfect score.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(200), P99: model.Float(300)}, ErrorRatePercent: model.Float(0)},
			expScore:  100,
			expLetter: "A",
		},
		{
			name:      "Moderate p95 latency costs 5.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(600)}},
			expScore:  95,
			expLetter: "A",
			expNotes:  1,
		},
		{
			name:      "High p95 latency costs 15.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(1500)}},
			expScore:  85,
			expLetter: "B",
			expNotes:  1,
		},
		{
			name:      "Severe p95 plus severe tail ratio lands a D.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(2500), P99: model.Float(8000)}, ErrorRatePercent: model.Float(0.05)},
			expScore:  55,
			expLetter: "D",
			expNotes:  2,
		},
		{
			name:      "Moderate tail ratio costs 5.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(2500), P99: model.Float(6000)}, ErrorRatePercent: model.Float(0.05)},
			expScore:  65,
			expLetter: "C",
			expNotes:  2,
		},
		{
			name:      "Compound deductions stack across checks.",
			stats:     &model.LoadStats{Latency: model.LatencyStats{P95: model.Float(5000), P99: model.Float(20000)}, ErrorRatePercent: model.Float(25)},
			expScore:  25,
			expLetter: "F",
			expNotes:  3,
		},
		{
			name:      "Error rate just over the moderate threshold costs 5.",
			stats:     &model.LoadStats{ErrorRatePercent: model.Float(0.2)},
			expScore:  95,
			expLetter: "A",
			expNotes:  1,
		},
		{
			name:      "Error rate over 5 percent costs 30.",
			stats:     &model.LoadStats{ErrorRatePercent: model.Float(7.5)},
			expScore:  70,
			expLetter: "C",
			expNotes:  1,
		},
		{
			name:      "Missing fields deduct nothing.",
			stats:     &model.LoadStats{},
			expScore:  100,
			expLetter: "A",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := analyze.Grade(test.stats)
			assert.Equal(t, test.expScore, got.Score)
			assert.Equal(t, test.expLetter, got.Letter)
			assert.Len(t, got.Notes, test.expNotes)
		})
	}
}

func TestGradeMonotonicInP95(t *testing.T) {
	// Increasing p95 alone never increases the score.
	prev := 101
	for _, p95 := range []float64{100, 400, 501, 800, 1001, 1500, 2001, 9000} {
		g := analyze.Grade(&model.LoadStats{Latency: model.LatencyStats{P95: model.Float(p95)}})
		assert.LessOrEqual(t, g.Score, prev, "p95=%v", p95)
		prev = g.Score
	}
}
