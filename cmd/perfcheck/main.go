package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/kelseyhightower/envconfig"
	"github.com/oklog/run"

	"github.com/rkampani/perfcheck/internal/app"
	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/baseline"
	"github.com/rkampani/perfcheck/internal/service/detect"
	"github.com/rkampani/perfcheck/internal/service/log"
	"github.com/rkampani/perfcheck/internal/service/normalize"
	"github.com/rkampani/perfcheck/internal/service/registry"
	"github.com/rkampani/perfcheck/internal/service/snapshot"
)

// Version is set at build time.
var Version = "dev"

// envDefaults is the PERF_* environment override namespace. Flags beat env
// vars, env vars beat built-in defaults.
type envDefaults struct {
	Service     string `envconfig:"PERF_SERVICE"`
	Environment string `envconfig:"PERF_ENV" default:"local"`
	Baseline    string `envconfig:"PERF_BASELINE"`
}

type flags struct {
	debug        bool
	catalogPath  string
	baselinesDir string
	snapshotsDir string

	service     string
	environment string
	baseURL     string

	checkURL string

	snapshotLabel string

	resultsPath   string
	baselineName  string
	saveAs        string
	reportPath    string
	snapshotPaths []string
	ci            bool
}

func main() {
	var env envDefaults
	if err := envconfig.Process("", &env); err != nil {
		fmt.Fprintf(os.Stderr, "error reading environment: %v\n", err)
		os.Exit(1)
	}

	f := &flags{}
	a := kingpin.New("perfcheck", "Normalizes runtime telemetry, grades load-test runs and detects regressions against saved baselines.")
	a.Version(Version)
	a.Flag("debug", "Enable debug logging.").BoolVar(&f.debug)
	a.Flag("catalog", "Path to the service catalog YAML.").Default("services.yaml").StringVar(&f.catalogPath)
	a.Flag("baselines-dir", "Directory holding baseline records.").Default("baselines").StringVar(&f.baselinesDir)
	a.Flag("snapshots-dir", "Directory holding snapshot captures.").Default("snapshots").StringVar(&f.snapshotsDir)

	check := a.Command("check", "Probe a base URL and report its telemetry source kind.")
	check.Arg("url", "Base URL to probe.").Required().StringVar(&f.checkURL)

	snap := a.Command("snapshot", "Capture a runtime snapshot of a service.")
	snap.Flag("service", "Service name.").Default(env.Service).StringVar(&f.service)
	snap.Flag("env", "Environment name.").Default(env.Environment).StringVar(&f.environment)
	snap.Flag("base-url", "Base URL, overrides the catalog lookup.").StringVar(&f.baseURL)
	snap.Flag("label", "Snapshot label (before, after...).").Default("manual").StringVar(&f.snapshotLabel)

	analyzeCmd := a.Command("analyze", "Analyze a load-test results file: grade it, compare against a baseline and render a report.")
	analyzeCmd.Flag("results", "Path to the load-tool results JSON.").Required().StringVar(&f.resultsPath)
	analyzeCmd.Flag("service", "Service name.").Default(env.Service).StringVar(&f.service)
	analyzeCmd.Flag("env", "Environment name.").Default(env.Environment).StringVar(&f.environment)
	analyzeCmd.Flag("baseline", "Baseline name to compare against.").Default(env.Baseline).StringVar(&f.baselineName)
	analyzeCmd.Flag("save-as", "Save this run as a baseline under the given name.").StringVar(&f.saveAs)
	analyzeCmd.Flag("report", "Write the rendered report to this file.").StringVar(&f.reportPath)
	analyzeCmd.Flag("with-snapshot", "Snapshot capture file to embed in the report, repeatable.").StringsVar(&f.snapshotPaths)
	analyzeCmd.Flag("ci", "CI mode: exit code reflects the verdict.").BoolVar(&f.ci)

	baselineList := a.Command("baseline-list", "List saved baselines.")

	cmd := kingpin.MustParse(a.Parse(os.Args[1:]))

	logger := log.New(log.Config{Output: os.Stderr, Debug: f.debug})

	code, err := runCommand(cmd, check.FullCommand(), snap.FullCommand(), analyzeCmd.FullCommand(), baselineList.FullCommand(), f, logger)
	if err != nil {
		logger.Errorf("%v", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func runCommand(cmd, checkCmd, snapCmd, analyzeCmd, listCmd string, f *flags, logger log.Logger) (int, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	detector := detect.New(detect.Config{Client: client, Logger: logger})
	normalizer := normalize.New(normalize.Config{Client: client, Logger: logger})
	baselines := baseline.NewStore(f.baselinesDir, logger)
	snapshots := snapshot.NewStore(snapshot.Config{Dir: f.snapshotsDir, Logger: logger})

	pipeline, err := app.New(app.Config{
		Detector:   detector,
		Normalizer: normalizer,
		Baselines:  baselines,
		Snapshots:  snapshots,
		Logger:     logger,
	})
	if err != nil {
		return 1, err
	}

	var (
		g        run.Group
		exitCode int
		cmdErr   error
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// OS signals.
	{
		sigC := make(chan os.Signal, 1)
		doneC := make(chan struct{})
		signal.Notify(sigC, syscall.SIGTERM, syscall.SIGINT)

		g.Add(
			func() error {
				select {
				case s := <-sigC:
					logger.Infof("signal %s received", s)
					return nil
				case <-doneC:
					return nil
				}
			},
			func(error) {
				close(doneC)
			},
		)
	}

	// Command execution.
	{
		doneC := make(chan struct{})
		g.Add(
			func() error {
				defer close(doneC)
				exitCode, cmdErr = execute(ctx, cmd, checkCmd, snapCmd, analyzeCmd, listCmd, f, pipeline, detector, baselines, logger)
				return nil
			},
			func(error) {
				cancel()
				<-doneC
			},
		)
	}

	if err := g.Run(); err != nil {
		return 1, err
	}
	return exitCode, cmdErr
}

func execute(ctx context.Context, cmd, checkCmd, snapCmd, analyzeCmd, listCmd string, f *flags, pipeline *app.Pipeline, detector *detect.Detector, baselines *baseline.Store, logger log.Logger) (int, error) {
	switch cmd {
	case checkCmd:
		det := detector.Detect(ctx, f.checkURL)
		fmt.Printf("source: %s\n", det.Source)
		if det.MetricsPath != "" {
			fmt.Printf("path: %s\n", det.MetricsPath)
		}
		fmt.Printf("health: %s\n", det.Health)
		if det.Source == model.SourceNone {
			fmt.Printf("attempted: %s\n", strings.Join(det.AttemptedPaths, ", "))
		}
		return 0, nil

	case snapCmd:
		baseURL, err := resolveBaseURL(f)
		if err != nil {
			return 1, err
		}
		path, err := pipeline.CaptureSnapshot(ctx, f.service, f.snapshotLabel, baseURL)
		if err != nil {
			return 1, err
		}
		fmt.Println(path)
		return 0, nil

	case analyzeCmd:
		res, err := pipeline.Analyze(ctx, app.AnalyzeRequest{
			Service:       f.service,
			Environment:   f.environment,
			ResultsPath:   f.resultsPath,
			BaselineName:  f.baselineName,
			SaveAs:        f.saveAs,
			ReportPath:    f.reportPath,
			SnapshotPaths: f.snapshotPaths,
		})
		if err != nil {
			return 1, err
		}

		fmt.Println(res.Report)
		if f.ci && res.Verdict == model.VerdictRegression {
			return 1, nil
		}
		return 0, nil

	case listCmd:
		names, err := baselines.List()
		if err != nil {
			return 1, err
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return 0, nil
	}

	return 1, nil
}

// resolveBaseURL takes the explicit flag when given, otherwise falls back to
// the service catalog.
func resolveBaseURL(f *flags) (string, error) {
	if f.baseURL != "" {
		return f.baseURL, nil
	}
	reg, err := registry.Load(f.catalogPath)
	if err != nil {
		return "", err
	}
	return reg.BaseURL(f.service, f.environment)
}
