// Package app wires the services into the deterministic analysis pipeline:
// snapshot capture, stat extraction, grading, baseline comparison and report
// rendering.
package app

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/analyze"
	"github.com/rkampani/perfcheck/internal/service/baseline"
	"github.com/rkampani/perfcheck/internal/service/detect"
	"github.com/rkampani/perfcheck/internal/service/log"
	"github.com/rkampani/perfcheck/internal/service/normalize"
	"github.com/rkampani/perfcheck/internal/service/report"
	"github.com/rkampani/perfcheck/internal/service/snapshot"
)

// Config holds the pipeline dependencies.
type Config struct {
	Detector   *detect.Detector
	Normalizer *normalize.Normalizer
	Baselines  *baseline.Store
	Snapshots  *snapshot.Store
	Logger     log.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = log.Dummy
	}
}

// Pipeline runs the analysis operations against their stores.
type Pipeline struct {
	cfg Config
}

// New returns a ready pipeline.
func New(cfg Config) (*Pipeline, error) {
	cfg.defaults()
	if cfg.Detector == nil || cfg.Normalizer == nil {
		return nil, errors.New("detector and normalizer are required")
	}
	if cfg.Baselines == nil || cfg.Snapshots == nil {
		return nil, errors.New("baseline and snapshot stores are required")
	}
	return &Pipeline{cfg: cfg}, nil
}

// CaptureSnapshot classifies baseURL, captures one canonical runtime
// snapshot and persists it. When no telemetry source is detected an error
// naming the attempted paths is returned; callers treat it as a warning, not
// a pipeline failure.
func (p *Pipeline) CaptureSnapshot(ctx context.Context, service, label, baseURL string) (string, error) {
	det := p.cfg.Detector.Detect(ctx, baseURL)
	if det.Source == model.SourceNone {
		return "", errors.Errorf("no telemetry source at %s (tried %s)", baseURL, strings.Join(det.AttemptedPaths, ", "))
	}

	snap := p.cfg.Normalizer.Snapshot(ctx, baseURL, det)
	path, err := p.cfg.Snapshots.Save(snapshot.Capture{
		Service:  service,
		Label:    label,
		BaseURL:  baseURL,
		Source:   det.Source,
		Health:   det.Health,
		Snapshot: snap,
	})
	if err != nil {
		return "", err
	}

	p.cfg.Logger.Infof("%s snapshot of %s (%s runtime) saved to %s", label, service, snap.Runtime, path)
	return path, nil
}

// AnalyzeRequest parameterizes one analysis run over an existing load-test
// results file.
type AnalyzeRequest struct {
	Service     string
	Environment string
	ResultsPath string
	// BaselineName, when set, triggers a regression comparison.
	BaselineName string
	// SaveAs, when set, saves the run as a new baseline after analysis.
	SaveAs string
	// ReportPath, when set, also writes the rendered report there.
	ReportPath string
	// SnapshotPaths are previously captured runtime snapshots to embed
	// in the report.
	SnapshotPaths []string
}

// AnalyzeResult is the outcome of one analysis run.
type AnalyzeResult struct {
	Stats      *model.LoadStats
	Grade      model.Grade
	Comparison *model.ComparisonResult
	Report     string
	Verdict    model.Verdict
}

// Analyze runs extraction, grading, optional baseline comparison and report
// rendering over a results file.
func (p *Pipeline) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	bs, err := os.ReadFile(req.ResultsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read results file %s", req.ResultsPath)
	}

	stats, err := analyze.Extract(bs)
	if err != nil {
		return nil, err
	}
	grade := analyze.Grade(stats)
	p.cfg.Logger.Infof("run graded %s (score %d)", grade.Letter, grade.Score)

	res := &AnalyzeResult{
		Stats:   stats,
		Grade:   grade,
		Verdict: model.VerdictPass,
	}

	if req.BaselineName != "" {
		b, err := p.cfg.Baselines.Load(req.BaselineName)
		if err != nil {
			return nil, err
		}
		res.Comparison = baseline.Compare(stats, b)
		res.Verdict = res.Comparison.Verdict
		if len(res.Comparison.Regressions) > 0 {
			p.cfg.Logger.Warnf("%d regression(s) against baseline %q", len(res.Comparison.Regressions), req.BaselineName)
		}
	}

	if req.SaveAs != "" {
		meta := map[string]string{}
		if req.Service != "" {
			meta["service"] = req.Service
		}
		if req.Environment != "" {
			meta["environment"] = req.Environment
		}
		if _, err := p.cfg.Baselines.Save(req.SaveAs, meta, bs); err != nil {
			return nil, err
		}
	}

	captures := []*snapshot.Capture{}
	for _, path := range req.SnapshotPaths {
		c, err := p.cfg.Snapshots.Load(path)
		if err != nil {
			// A missing or corrupt snapshot degrades the report, it
			// does not fail the run.
			p.cfg.Logger.Warnf("skipping snapshot %s: %v", path, err)
			continue
		}
		captures = append(captures, c)
	}

	data := report.Data{
		Service:     req.Service,
		Environment: req.Environment,
		Stats:       stats,
		Grade:       grade,
		Comparison:  res.Comparison,
		Snapshots:   captures,
	}
	if req.ReportPath != "" {
		res.Report, err = report.RenderToFile(data, req.ReportPath)
		if err != nil {
			return nil, err
		}
	} else {
		res.Report = report.Render(data)
	}

	return res, nil
}
