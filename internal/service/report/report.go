// Package report renders a performance run into a markdown document with
// summary, grade, baseline comparison and snapshot tables.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/snapshot"
)

// Data is everything a report can carry. Comparison and Snapshots are
// optional sections.
type Data struct {
	Service     string
	Environment string
	// RunID identifies the run; generated when empty.
	RunID       string
	GeneratedAt time.Time
	Stats       *model.LoadStats
	Grade       model.Grade
	Comparison  *model.ComparisonResult
	Snapshots   []*snapshot.Capture
}

// Render produces the markdown document.
func Render(d Data) string {
	if d.RunID == "" {
		d.RunID = uuid.New().String()
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now().UTC()
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# Performance Test Report\n\n")
	fmt.Fprintf(&b, "- **Service**: %s\n", orNA(d.Service))
	fmt.Fprintf(&b, "- **Environment**: %s\n", orNA(d.Environment))
	fmt.Fprintf(&b, "- **Run ID**: %s\n", d.RunID)
	fmt.Fprintf(&b, "- **Generated**: %s\n\n", d.GeneratedAt.Format(time.RFC3339))

	writeSummary(&b, d.Stats)
	writeGrade(&b, d.Grade)

	if d.Comparison != nil {
		writeComparison(&b, d.Comparison)
	}
	for _, c := range d.Snapshots {
		writeSnapshot(&b, c)
	}

	return b.String()
}

// RenderToFile renders the document and also writes it to path.
func RenderToFile(d Data, path string) (string, error) {
	doc := Render(d)
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return "", errors.Wrapf(err, "could not write report %s", path)
	}
	return doc, nil
}

func writeSummary(b *strings.Builder, stats *model.LoadStats) {
	fmt.Fprintf(b, "## Load Test Summary\n\n")
	if stats == nil {
		fmt.Fprintf(b, "No load-test results available.\n\n")
		return
	}

	t := markdownTable(b, []string{"Metric", "Value"})
	t.Append([]string{"Avg latency", ms(stats.Latency.Avg)})
	t.Append([]string{"Min latency", ms(stats.Latency.Min)})
	t.Append([]string{"Max latency", ms(stats.Latency.Max)})
	t.Append([]string{"p50 latency", ms(stats.Latency.P50)})
	t.Append([]string{"p90 latency", ms(stats.Latency.P90)})
	t.Append([]string{"p95 latency", ms(stats.Latency.P95)})
	t.Append([]string{"p99 latency", ms(stats.Latency.P99)})
	t.Append([]string{"Throughput", suffixed(stats.RequestsPerSecond, " req/s")})
	t.Append([]string{"Total requests", num(stats.TotalRequests)})
	t.Append([]string{"Total errors", num(stats.TotalErrors)})
	t.Append([]string{"Error rate", suffixed(stats.ErrorRatePercent, "%")})
	t.Render()
	b.WriteString("\n")
}

func writeGrade(b *strings.Builder, g model.Grade) {
	fmt.Fprintf(b, "## Grade\n\n")
	fmt.Fprintf(b, "**%s** (score %d/100)\n\n", g.Letter, g.Score)
	for _, note := range g.Notes {
		fmt.Fprintf(b, "- %s\n", note)
	}
	if len(g.Notes) > 0 {
		b.WriteString("\n")
	}
}

func writeComparison(b *strings.Builder, c *model.ComparisonResult) {
	fmt.Fprintf(b, "## Baseline Comparison: %s\n\n", c.BaselineName)
	fmt.Fprintf(b, "**Verdict: %s**\n\n", c.Verdict)

	t := markdownTable(b, []string{"Metric", "Current", "Baseline", "Delta", "Delta %", "Direction"})
	for _, d := range c.Deltas {
		t.Append([]string{
			d.Metric,
			num(d.Current),
			num(d.Baseline),
			num(d.AbsoluteDelta),
			suffixed(d.PercentDelta, "%"),
			string(d.Direction),
		})
	}
	t.Render()
	b.WriteString("\n")

	if len(c.Regressions) > 0 {
		fmt.Fprintf(b, "### Regressions\n\n")
		for _, r := range c.Regressions {
			fmt.Fprintf(b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	if len(c.Improvements) > 0 {
		fmt.Fprintf(b, "### Improvements\n\n")
		for _, i := range c.Improvements {
			fmt.Fprintf(b, "- %s\n", i)
		}
		b.WriteString("\n")
	}
}

func writeSnapshot(b *strings.Builder, c *snapshot.Capture) {
	fmt.Fprintf(b, "## Runtime Snapshot: %s\n\n", c.Label)
	fmt.Fprintf(b, "Source: %s | Runtime: %s | Health: %s\n\n", c.Source, c.Snapshot.Runtime, orNA(c.Health))

	s := c.Snapshot
	t := markdownTable(b, []string{"Field", "Value"})
	t.Append([]string{"Memory used", suffixed(s.Memory.UsedMB, " MB")})
	t.Append([]string{"Memory max", suffixed(s.Memory.MaxMB, " MB")})
	t.Append([]string{"Memory usage", suffixed(s.Memory.UsagePercent, "%")})
	t.Append([]string{"CPU (process)", suffixed(s.CPU.ProcessUsagePercent, "%")})
	t.Append([]string{"CPU count", num(s.CPU.Count)})
	t.Append([]string{"Threads (live)", num(s.Concurrency.ThreadsLive)})
	t.Append([]string{"Goroutines", num(s.Concurrency.Goroutines)})
	t.Append([]string{"Event loop lag", ms(s.Concurrency.EventLoopLagMs)})
	if s.GC != nil {
		t.Append([]string{"GC pauses", num(s.GC.PauseCount)})
		t.Append([]string{"GC total pause", ms(s.GC.TotalPauseTimeMs)})
	}
	t.Append([]string{"DB pool active", num(s.DBPool.Active)})
	t.Append([]string{"DB pool usage", suffixed(s.DBPool.UsagePercent, "%")})
	t.Append([]string{"HTTP requests", num(s.HTTP.TotalRequests)})
	t.Render()
	b.WriteString("\n")
}

// markdownTable configures a tablewriter for GitHub-style markdown output.
func markdownTable(b *strings.Builder, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(b)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	t.SetCenterSeparator("|")
	return t
}

func num(v *float64) string {
	if v == nil {
		return "n/a"
	}
	if *v == float64(int64(*v)) {
		return fmt.Sprintf("%d", int64(*v))
	}
	return fmt.Sprintf("%.2f", *v)
}

func ms(v *float64) string {
	return suffixed(v, " ms")
}

func suffixed(v *float64, suffix string) string {
	if v == nil {
		return "n/a"
	}
	return num(v) + suffix
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
