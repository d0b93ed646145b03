// Package exposition parses Prometheus-style line-oriented text metric
// expositions into a flat name to value index.
package exposition

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	prommodel "github.com/prometheus/common/model"
)

// sampleRegexp matches `name{labels} value` lines. Labels are captured but
// never parsed into structure at this layer.
var sampleRegexp = regexp.MustCompile(`^([a-zA-Z_:][a-zA-Z0-9_:]*)(\{[^}]*\})?\s+(\S+)(?:\s+\S+)?$`)

// Index maps a metric name to the first observed numeric value for that
// name. Later samples for the same name, including different label
// combinations, are dropped.
type Index map[string]float64

// Lookup resolves a fallback chain of candidate metric names, returning the
// value of the first candidate present in the index.
func (i Index) Lookup(candidates ...string) (float64, bool) {
	for _, c := range candidates {
		if v, ok := i[c]; ok {
			return v, true
		}
	}
	return 0, false
}

// Has returns whether the index contains the given metric name.
func (i Index) Has(name string) bool {
	_, ok := i[name]
	return ok
}

// Parse builds an Index from raw exposition text. Comment and blank lines
// are ignored, malformed lines are silently skipped, and no input is an
// error: unparseable text yields an empty index.
func Parse(text string) Index {
	idx := Index{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		m := sampleRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		if !prommodel.IsValidMetricName(prommodel.LabelValue(name)) {
			continue
		}
		if _, ok := idx[name]; ok {
			// First value wins.
			continue
		}

		v, err := strconv.ParseFloat(m[3], 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			// Exposition text can carry NaN/Inf samples; the canonical
			// schema only admits finite numbers or null.
			continue
		}
		idx[name] = v
	}

	return idx
}

// IsExposition reports whether a body looks like exposition text: either a
// comment directive or at least one parseable sample line.
func IsExposition(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# HELP") || strings.HasPrefix(line, "# TYPE") {
			return true
		}
		if m := sampleRegexp.FindStringSubmatch(line); m != nil {
			if _, err := strconv.ParseFloat(m[3], 64); err == nil {
				return true
			}
		}
	}
	return false
}
