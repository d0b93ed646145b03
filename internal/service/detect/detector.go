// Package detect classifies a base URL as one of the known telemetry source
// kinds by probing well-known endpoints.
package detect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/exposition"
	"github.com/rkampani/perfcheck/internal/service/log"
)

const (
	healthPath       = "/actuator/health"
	metricsPath      = "/metrics"
	actuatorPromPath = "/actuator/prometheus"

	// Probes are best effort; keep them short.
	defProbeTimeout = 3 * time.Second

	// Bodies larger than this are not telemetry expositions we care about.
	maxProbeBody = 4 << 20
)

// Detection is the result of classifying a base URL.
type Detection struct {
	Source model.SourceKind
	// MetricsPath is the path the classification was made on, empty for
	// SourceNone.
	MetricsPath string
	// Health is the status reported by the health probe ("UP", "DOWN"),
	// or "unknown" when no health endpoint answered.
	Health string
	// AttemptedPaths lists every probed path, for unreachable-source
	// reporting.
	AttemptedPaths []string
}

// Config is the detector configuration.
type Config struct {
	Client       *http.Client
	ProbeTimeout time.Duration
	Logger       log.Logger
}

func (c *Config) defaults() {
	if c.ProbeTimeout == 0 {
		c.ProbeTimeout = defProbeTimeout
	}
	if c.Client == nil {
		c.Client = http.DefaultClient
	}
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
}

// Detector classifies telemetry sources.
type Detector struct {
	cfg Config
}

// New returns a new source detector.
func New(cfg Config) *Detector {
	cfg.defaults()
	return &Detector{cfg: cfg}
}

// Detect probes baseURL and classifies it. Probe order is fixed: a
// health-style probe first (success means the structured-JSON source), then
// the raw-text exposition endpoints. A service exposing both forms is always
// classified as the first-checked kind. Probe failures are not errors; they
// only steer classification towards SourceNone.
func (d *Detector) Detect(ctx context.Context, baseURL string) Detection {
	baseURL = strings.TrimRight(baseURL, "/")
	attempted := []string{healthPath}

	// Any 2xx health response classifies; the body is only mined for the
	// reported status.
	if body, ok := d.probe(ctx, baseURL+healthPath); ok {
		d.cfg.Logger.Debugf("%s classified as %s source", baseURL, model.SourceActuator)
		return Detection{
			Source:         model.SourceActuator,
			MetricsPath:    healthPath,
			Health:         healthStatus(body),
			AttemptedPaths: attempted,
		}
	}

	for _, path := range []string{metricsPath, actuatorPromPath} {
		attempted = append(attempted, path)
		body, ok := d.probe(ctx, baseURL+path)
		if !ok {
			continue
		}
		if exposition.IsExposition(body) {
			d.cfg.Logger.Debugf("%s classified as %s source on %s", baseURL, model.SourcePrometheus, path)
			return Detection{
				Source:         model.SourcePrometheus,
				MetricsPath:    path,
				Health:         healthUnknown,
				AttemptedPaths: attempted,
			}
		}
	}

	d.cfg.Logger.Debugf("%s exposes no known telemetry source (tried %s)", baseURL, strings.Join(attempted, ", "))
	return Detection{
		Source:         model.SourceNone,
		Health:         healthUnknown,
		AttemptedPaths: attempted,
	}
}

const healthUnknown = "unknown"

// healthStatus extracts the status field of a health-style JSON body.
func healthStatus(body string) string {
	h := struct {
		Status string `json:"status"`
	}{}
	if err := json.Unmarshal([]byte(body), &h); err != nil || h.Status == "" {
		return healthUnknown
	}
	return h.Status
}

// probe issues one GET with the probe timeout. Network failures and non-2xx
// statuses count as a failed probe, never as an error.
func (d *Detector) probe(ctx context.Context, url string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false
	}

	resp, err := d.cfg.Client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProbeBody))
	if err != nil {
		return "", false
	}

	return string(body), true
}
