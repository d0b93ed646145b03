package exposition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rkampani/perfcheck/internal/service/exposition"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		exp  exposition.Index
	}{
		{
			name: "Empty input yields an empty index.",
			text: "",
			exp:  exposition.Index{},
		},
		{
			name: "Plain samples are indexed by name.",
			text: "go_goroutines 42\ngo_threads 12\n",
			exp: exposition.Index{
				"go_goroutines": 42,
				"go_threads":    12,
			},
		},
		{
			name: "Labels are accepted and discarded.",
			text: `jvm_memory_used_bytes{area="heap",id="G1 Eden Space"} 52428800`,
			exp: exposition.Index{
				"jvm_memory_used_bytes": 52428800,
			},
		},
		{
			name: "First value wins over later label variants.",
			text: `http_requests_total{route="/a"} 100
http_requests_total{route="/b"} 900`,
			exp: exposition.Index{
				"http_requests_total": 100,
			},
		},
		{
			name: "Comments and blank lines are skipped.",
			text: `# HELP go_goroutines Number of goroutines.
# TYPE go_goroutines gauge

go_goroutines 7`,
			exp: exposition.Index{
				"go_goroutines": 7,
			},
		},
		{
			name: "Malformed lines are skipped without affecting valid ones.",
			text: `valid_metric 1.5
this is not a metric line
another_valid 2
bad_value_metric notanumber`,
			exp: exposition.Index{
				"valid_metric":  1.5,
				"another_valid": 2,
			},
		},
		{
			name: "Scientific notation and trailing timestamps parse.",
			text: `process_start_time_seconds 1.62e+09 1680000000000`,
			exp: exposition.Index{
				"process_start_time_seconds": 1.62e+09,
			},
		},
		{
			name: "NaN and Inf samples are excluded.",
			text: `go_gc_duration_seconds NaN
go_goroutines +Inf
go_threads 3`,
			exp: exposition.Index{
				"go_threads": 3,
			},
		},
		{
			name: "Unparseable first sample does not block a later one.",
			text: `flaky_metric oops
flaky_metric 9`,
			exp: exposition.Index{
				"flaky_metric": 9,
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := exposition.Parse(test.text)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestIndexLookup(t *testing.T) {
	idx := exposition.Index{
		"jvm_memory_bytes_used": 1000,
		"jvm_threads_current":   20,
	}

	tests := []struct {
		name       string
		candidates []string
		expVal     float64
		expOK      bool
	}{
		{
			name:       "First candidate present resolves immediately.",
			candidates: []string{"jvm_memory_bytes_used", "jvm_memory_used_bytes"},
			expVal:     1000,
			expOK:      true,
		},
		{
			name:       "Fallback chain resolves the first present candidate.",
			candidates: []string{"jvm_memory_used_bytes", "jvm_memory_bytes_used"},
			expVal:     1000,
			expOK:      true,
		},
		{
			name:       "No candidate present yields not found.",
			candidates: []string{"nodejs_heap_size_used_bytes"},
			expOK:      false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, ok := idx.Lookup(test.candidates...)
			assert.Equal(t, test.expOK, ok)
			if test.expOK {
				assert.Equal(t, test.expVal, v)
			}
		})
	}
}

func TestIsExposition(t *testing.T) {
	assert.True(t, exposition.IsExposition("# HELP x y"))
	assert.True(t, exposition.IsExposition("go_goroutines 42"))
	assert.False(t, exposition.IsExposition("<html><body>hi</body></html>"))
	assert.False(t, exposition.IsExposition(""))
}
