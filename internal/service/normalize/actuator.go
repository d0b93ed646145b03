package normalize

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/rkampani/perfcheck/internal/model"
)

// Actuator metric names fetched for a snapshot. Each one is an individual
// endpoint under /actuator/metrics/.
const (
	actMemUsed      = "jvm.memory.used"
	actMemMax       = "jvm.memory.max"
	actMemCommitted = "jvm.memory.committed"
	actThreadsLive  = "jvm.threads.live"
	actThreadsPeak  = "jvm.threads.peak"
	actGCPause      = "jvm.gc.pause"
	actCPUProcess   = "process.cpu.usage"
	actCPUSystem    = "system.cpu.usage"
	actCPUCount     = "system.cpu.count"
	actDBActive     = "hikaricp.connections.active"
	actDBIdle       = "hikaricp.connections.idle"
	actDBPending    = "hikaricp.connections.pending"
	actDBMax        = "hikaricp.connections.max"
	actHTTPRequests = "http.server.requests"
)

var actuatorMetricNames = []string{
	actMemUsed, actMemMax, actMemCommitted,
	actThreadsLive, actThreadsPeak,
	actGCPause,
	actCPUProcess, actCPUSystem, actCPUCount,
	actDBActive, actDBIdle, actDBPending, actDBMax,
	actHTTPRequests,
}

// actuatorMetric is the response shape of one /actuator/metrics/<name>
// endpoint.
type actuatorMetric struct {
	Name         string `json:"name"`
	BaseUnit     string `json:"baseUnit"`
	Measurements []struct {
		Statistic string  `json:"statistic"`
		Value     float64 `json:"value"`
	} `json:"measurements"`
}

// stat scans the measurement list for the first of the given statistic tags.
func (m *actuatorMetric) stat(tags ...string) *float64 {
	if m == nil {
		return nil
	}
	for _, tag := range tags {
		for _, ms := range m.Measurements {
			if ms.Statistic == tag {
				return finite(ms.Value)
			}
		}
	}
	return nil
}

// value is the common single-value extraction: a statistic tagged VALUE or
// COUNT.
func (m *actuatorMetric) value() *float64 {
	return m.stat("VALUE", "COUNT")
}

// actuatorSnapshot issues one fetch per metric of interest, concurrently,
// and assembles the canonical snapshot. A failed fetch (404, timeout,
// malformed body) nulls the affected fields instead of aborting the
// snapshot.
func (n *Normalizer) actuatorSnapshot(ctx context.Context, baseURL string) model.RuntimeSnapshot {
	base := strings.TrimRight(baseURL, "/") + "/actuator/metrics/"

	var (
		mu      sync.Mutex
		fetched = map[string]*actuatorMetric{}
		wg      sync.WaitGroup
	)

	for _, name := range actuatorMetricNames {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()

			m, err := n.fetchActuatorMetric(ctx, base+name)
			if err != nil {
				n.cfg.Logger.Debugf("actuator metric %s unavailable: %v", name, err)
				return
			}

			mu.Lock()
			fetched[name] = m
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	mb := func(name string) *float64 { return toMB(fetched[name].value()) }

	snap := model.RuntimeSnapshot{
		Runtime: model.RuntimeJVM,
		Memory: model.MemoryStats{
			UsedMB:      mb(actMemUsed),
			MaxMB:       mb(actMemMax),
			CommittedMB: mb(actMemCommitted),
		},
		CPU: model.CPUStats{
			ProcessUsagePercent: toPercent(fetched[actCPUProcess].value()),
			SystemUsagePercent:  toPercent(fetched[actCPUSystem].value()),
			Count:               fetched[actCPUCount].value(),
		},
		Concurrency: model.ConcurrencyStats{
			ThreadsLive: fetched[actThreadsLive].value(),
			ThreadsPeak: fetched[actThreadsPeak].value(),
		},
		GC: &model.GCStats{
			PauseCount:       fetched[actGCPause].stat("COUNT"),
			TotalPauseTimeMs: toMS(fetched[actGCPause].stat("TOTAL_TIME")),
			MaxPauseTimeMs:   toMS(fetched[actGCPause].stat("MAX")),
		},
		DBPool: model.DBPoolStats{
			Active:  fetched[actDBActive].value(),
			Idle:    fetched[actDBIdle].value(),
			Pending: fetched[actDBPending].value(),
			Max:     fetched[actDBMax].value(),
		},
		HTTP: model.HTTPStats{
			TotalRequests: fetched[actHTTPRequests].stat("COUNT"),
			TotalTimeMs:   toMS(fetched[actHTTPRequests].stat("TOTAL_TIME")),
			MaxDurationMs: toMS(fetched[actHTTPRequests].stat("MAX")),
		},
	}

	snap.Memory.UsagePercent = Percent(snap.Memory.UsedMB, snap.Memory.MaxMB)
	snap.DBPool.UsagePercent = Percent(snap.DBPool.Active, snap.DBPool.Max)

	return snap
}

func (n *Normalizer) fetchActuatorMetric(ctx context.Context, url string) (*actuatorMetric, error) {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := n.cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatus(resp.StatusCode)
	}

	m := &actuatorMetric{}
	if err := json.NewDecoder(resp.Body).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Actuator exposes bytes and seconds natively; canonical units are MB and ms.

func toMB(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(convert(*v, unitBytesToMB))
}

func toMS(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(convert(*v, unitSecondsToMS))
}

func toPercent(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(convert(*v, unitRatioToPercent))
}
