// Package normalize turns source-specific raw telemetry into the canonical
// runtime snapshot, reconciling the metric-naming conventions of the
// recognized runtime ecosystems.
package normalize

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/detect"
	"github.com/rkampani/perfcheck/internal/service/exposition"
	"github.com/rkampani/perfcheck/internal/service/log"
)

const defFetchTimeout = 10 * time.Second

// Config is the normalizer configuration.
type Config struct {
	Client       *http.Client
	FetchTimeout time.Duration
	// Signatures overrides the runtime classification table.
	Signatures []Signature
	Logger     log.Logger
}

func (c *Config) defaults() {
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.FetchTimeout == 0 {
		c.FetchTimeout = defFetchTimeout
	}
	if c.Signatures == nil {
		c.Signatures = DefaultSignatures
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
}

// Normalizer produces canonical runtime snapshots from detected telemetry
// sources.
type Normalizer struct {
	cfg Config
}

// New returns a new runtime normalizer.
func New(cfg Config) *Normalizer {
	cfg.defaults()
	return &Normalizer{cfg: cfg}
}

// Snapshot captures one canonical runtime snapshot from baseURL according to
// the detected source kind. Fetch failures degrade to null fields; the
// returned snapshot is always usable.
func (n *Normalizer) Snapshot(ctx context.Context, baseURL string, det detect.Detection) model.RuntimeSnapshot {
	switch det.Source {
	case model.SourceActuator:
		return n.actuatorSnapshot(ctx, baseURL)
	case model.SourcePrometheus:
		return n.prometheusSnapshot(ctx, baseURL, det.MetricsPath)
	default:
		return model.RuntimeSnapshot{Runtime: model.RuntimeUnknown}
	}
}

// classify tests the signature table against a parsed index, top to bottom.
func (n *Normalizer) classify(idx exposition.Index) model.RuntimeKind {
	for _, s := range n.cfg.Signatures {
		if idx.Has(s.Metric) {
			return s.Runtime
		}
	}
	return model.RuntimeUnknown
}

// Percent returns round(used/max*100), or null unless both operands are
// present and the denominator is non-zero.
func Percent(used, max *float64) *float64 {
	if used == nil || max == nil || *max == 0 {
		return nil
	}
	return model.Float(math.Round(*used / *max * 100))
}

// convert applies a unit conversion to a raw value.
func convert(v float64, u unit) float64 {
	switch u {
	case unitBytesToMB:
		return math.Round(v / (1024 * 1024))
	case unitSecondsToMS:
		return round2(v * 1000)
	case unitRatioToPercent:
		return round2(v * 100)
	default:
		return v
	}
}

func errStatus(code int) error {
	return errors.Errorf("unexpected status code %d", code)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// finite filters NaN/Inf so the canonical invariant (finite or null) holds.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return model.Float(v)
}
