package normalize

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/exposition"
)

// prometheusSnapshot scrapes the exposition endpoint once, classifies the
// runtime ecosystem and resolves every canonical field through the
// ecosystem's fallback chains.
func (n *Normalizer) prometheusSnapshot(ctx context.Context, baseURL, metricsPath string) model.RuntimeSnapshot {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	body, err := n.fetchText(ctx, strings.TrimRight(baseURL, "/")+metricsPath)
	if err != nil {
		n.cfg.Logger.Warnf("could not scrape %s%s: %v", baseURL, metricsPath, err)
		return model.RuntimeSnapshot{Runtime: model.RuntimeUnknown}
	}

	idx := exposition.Parse(body)
	runtime := n.classify(idx)
	p, ok := defaultProfiles[runtime]
	if !ok {
		return model.RuntimeSnapshot{Runtime: model.RuntimeUnknown}
	}

	snap := model.RuntimeSnapshot{
		Runtime: runtime,
		Memory: model.MemoryStats{
			UsedMB:      resolve(idx, p.memUsed),
			MaxMB:       resolve(idx, p.memMax),
			CommittedMB: resolve(idx, p.memCommitted),
		},
		CPU: model.CPUStats{
			ProcessUsagePercent: resolve(idx, p.cpuProcess),
			SystemUsagePercent:  resolve(idx, p.cpuSystem),
			Count:               resolve(idx, p.cpuCount),
		},
		Concurrency: model.ConcurrencyStats{
			ThreadsLive:    resolve(idx, p.threadsLive),
			ThreadsPeak:    resolve(idx, p.threadsPeak),
			Goroutines:     resolve(idx, p.goroutines),
			EventLoopLagMs: resolve(idx, p.eventLoopLag),
			ActiveHandles:  resolve(idx, p.activeHandles),
		},
		GC: &model.GCStats{
			PauseCount:       resolve(idx, p.gcCount),
			TotalPauseTimeMs: resolve(idx, p.gcTotal),
			MaxPauseTimeMs:   resolve(idx, p.gcMax),
		},
		DBPool: model.DBPoolStats{
			Active:  resolve(idx, p.dbActive),
			Idle:    resolve(idx, p.dbIdle),
			Pending: resolve(idx, p.dbPending),
			Max:     resolve(idx, p.dbMax),
		},
		HTTP: model.HTTPStats{
			TotalRequests: resolve(idx, p.httpCount),
			TotalTimeMs:   resolve(idx, p.httpTotal),
			MaxDurationMs: resolve(idx, p.httpMax),
		},
	}

	snap.Memory.UsagePercent = Percent(snap.Memory.UsedMB, snap.Memory.MaxMB)
	snap.DBPool.UsagePercent = Percent(snap.DBPool.Active, snap.DBPool.Max)

	return snap
}

// resolve walks a fallback chain against the index and converts the first
// value found to its canonical unit.
func resolve(idx exposition.Index, c chain) *float64 {
	v, ok := idx.Lookup(c.candidates...)
	if !ok {
		return nil
	}
	return finite(convert(v, c.unit))
}

func (n *Normalizer) fetchText(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := n.cfg.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
