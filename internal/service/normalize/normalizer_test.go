package normalize_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkampani/perfcheck/internal/model"
	"github.com/rkampani/perfcheck/internal/service/detect"
	"github.com/rkampani/perfcheck/internal/service/normalize"
)

const jvmExposition = `# HELP jvm_memory_used_bytes The amount of used memory
jvm_memory_used_bytes{area="heap"} 104857600
jvm_memory_max_bytes{area="heap"} 524288000
jvm_threads_live_threads 42
jvm_threads_peak_threads 50
jvm_gc_pause_seconds_count 12
jvm_gc_pause_seconds_sum 0.35
jvm_gc_pause_seconds_max 0.08
process_cpu_usage 0.25
system_cpu_count 8
hikaricp_connections_active 3
hikaricp_connections_idle 7
hikaricp_connections_max 10
http_server_requests_seconds_count 1500
http_server_requests_seconds_sum 45.5
`

const nodeExposition = `nodejs_version_info{version="v20.11.0"} 1
nodejs_heap_size_used_bytes 31457280
nodejs_heap_size_total_bytes 62914560
nodejs_eventloop_lag_seconds 0.012
nodejs_active_handles_total 9
nodejs_gc_duration_seconds_count 30
nodejs_gc_duration_seconds_sum 0.2
`

func promTextServer(t *testing.T, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(text))
	}))
}

func TestPrometheusSnapshotJVM(t *testing.T) {
	assert := assert.New(t)

	srv := promTextServer(t, jvmExposition)
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{
		Source:      model.SourcePrometheus,
		MetricsPath: "/metrics",
	})

	assert.Equal(model.RuntimeJVM, snap.Runtime)

	// Byte metrics become whole megabytes.
	require.NotNil(t, snap.Memory.UsedMB)
	assert.Equal(float64(100), *snap.Memory.UsedMB)
	require.NotNil(t, snap.Memory.MaxMB)
	assert.Equal(float64(500), *snap.Memory.MaxMB)
	require.NotNil(t, snap.Memory.UsagePercent)
	assert.Equal(float64(20), *snap.Memory.UsagePercent)
	assert.Nil(snap.Memory.CommittedMB)

	assert.Equal(float64(42), *snap.Concurrency.ThreadsLive)
	assert.Equal(float64(50), *snap.Concurrency.ThreadsPeak)
	assert.Nil(snap.Concurrency.Goroutines)

	require.NotNil(t, snap.GC)
	assert.Equal(float64(12), *snap.GC.PauseCount)
	assert.Equal(float64(350), *snap.GC.TotalPauseTimeMs)
	assert.Equal(float64(80), *snap.GC.MaxPauseTimeMs)

	assert.Equal(float64(25), *snap.CPU.ProcessUsagePercent)
	assert.Nil(snap.CPU.SystemUsagePercent)
	assert.Equal(float64(8), *snap.CPU.Count)

	assert.Equal(float64(3), *snap.DBPool.Active)
	assert.Equal(float64(10), *snap.DBPool.Max)
	assert.Equal(float64(30), *snap.DBPool.UsagePercent)

	assert.Equal(float64(1500), *snap.HTTP.TotalRequests)
	assert.Equal(float64(45500), *snap.HTTP.TotalTimeMs)
}

func TestPrometheusSnapshotNode(t *testing.T) {
	assert := assert.New(t)

	srv := promTextServer(t, nodeExposition)
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{
		Source:      model.SourcePrometheus,
		MetricsPath: "/metrics",
	})

	assert.Equal(model.RuntimeNode, snap.Runtime)
	assert.Equal(float64(30), *snap.Memory.UsedMB)
	assert.Equal(float64(60), *snap.Memory.MaxMB)
	assert.Equal(float64(50), *snap.Memory.UsagePercent)
	assert.Equal(float64(12), *snap.Concurrency.EventLoopLagMs)
	assert.Equal(float64(9), *snap.Concurrency.ActiveHandles)
	assert.Nil(snap.Concurrency.ThreadsLive)
	assert.Equal(float64(30), *snap.GC.PauseCount)
	assert.Nil(snap.DBPool.Active)
	assert.Nil(snap.DBPool.UsagePercent)
}

func TestPrometheusSnapshotGoCollector(t *testing.T) {
	// A real client_golang Go collector endpoint classifies as the Go
	// runtime and yields goroutine and heap figures.
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{
		Source:      model.SourcePrometheus,
		MetricsPath: "/metrics",
	})

	assert.Equal(t, model.RuntimeGo, snap.Runtime)
	assert.NotNil(t, snap.Concurrency.Goroutines)
	assert.NotNil(t, snap.Memory.UsedMB)
	assert.Nil(t, snap.Concurrency.EventLoopLagMs)
}

func TestPrometheusSnapshotUnknownRuntime(t *testing.T) {
	srv := promTextServer(t, "custom_app_metric 1\n")
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{
		Source:      model.SourcePrometheus,
		MetricsPath: "/metrics",
	})

	assert.Equal(t, model.RuntimeUnknown, snap.Runtime)
	assert.Nil(t, snap.GC)
	assert.Nil(t, snap.Memory.UsedMB)
}

func TestPrometheusSnapshotUnreachable(t *testing.T) {
	n := normalize.New(normalize.Config{})
	snap := n.Snapshot(context.Background(), "http://127.0.0.1:1", detect.Detection{
		Source:      model.SourcePrometheus,
		MetricsPath: "/metrics",
	})

	assert.Equal(t, model.RuntimeUnknown, snap.Runtime)
}

func actuatorServer(t *testing.T, metrics map[string][]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/actuator/metrics/"
		name := r.URL.Path[len(prefix):]
		ms, ok := metrics[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"name":         name,
			"measurements": ms,
		})
	}))
}

func measurement(stat string, value float64) map[string]interface{} {
	return map[string]interface{}{"statistic": stat, "value": value}
}

func TestActuatorSnapshot(t *testing.T) {
	assert := assert.New(t)

	srv := actuatorServer(t, map[string][]map[string]interface{}{
		"jvm.memory.used":   {measurement("VALUE", 209715200)},
		"jvm.memory.max":    {measurement("VALUE", 1048576000)},
		"jvm.threads.live":  {measurement("VALUE", 35)},
		"jvm.threads.peak":  {measurement("VALUE", 40)},
		"jvm.gc.pause":      {measurement("COUNT", 9), measurement("TOTAL_TIME", 0.5), measurement("MAX", 0.1)},
		"process.cpu.usage": {measurement("VALUE", 0.42)},
		"system.cpu.count":  {measurement("VALUE", 4)},
		"http.server.requests": {
			measurement("COUNT", 2000),
			measurement("TOTAL_TIME", 120.5),
			measurement("MAX", 1.25),
		},
		// No hikaricp metrics: the service has no DB pool.
	})
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{Source: model.SourceActuator})

	assert.Equal(model.RuntimeJVM, snap.Runtime)
	assert.Equal(float64(200), *snap.Memory.UsedMB)
	assert.Equal(float64(1000), *snap.Memory.MaxMB)
	assert.Equal(float64(20), *snap.Memory.UsagePercent)
	assert.Nil(snap.Memory.CommittedMB)

	assert.Equal(float64(35), *snap.Concurrency.ThreadsLive)
	assert.Equal(float64(40), *snap.Concurrency.ThreadsPeak)

	assert.Equal(float64(9), *snap.GC.PauseCount)
	assert.Equal(float64(500), *snap.GC.TotalPauseTimeMs)
	assert.Equal(float64(100), *snap.GC.MaxPauseTimeMs)

	assert.Equal(float64(42), *snap.CPU.ProcessUsagePercent)
	assert.Equal(float64(4), *snap.CPU.Count)

	// Partial metric availability is not an error.
	assert.Nil(snap.DBPool.Active)
	assert.Nil(snap.DBPool.UsagePercent)

	assert.Equal(float64(2000), *snap.HTTP.TotalRequests)
	assert.Equal(float64(120500), *snap.HTTP.TotalTimeMs)
	assert.Equal(float64(1250), *snap.HTTP.MaxDurationMs)
}

func TestActuatorSnapshotAllEndpointsFailing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := normalize.New(normalize.Config{Client: srv.Client()})
	snap := n.Snapshot(context.Background(), srv.URL, detect.Detection{Source: model.SourceActuator})

	assert.Equal(t, model.RuntimeJVM, snap.Runtime)
	assert.Nil(t, snap.Memory.UsedMB)
	assert.Nil(t, snap.HTTP.TotalRequests)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		name string
		used *float64
		max  *float64
		exp  *float64
	}{
		{name: "Both present yields rounded percent.", used: model.Float(104), max: model.Float(500), exp: model.Float(21)},
		{name: "Null used yields null.", max: model.Float(500)},
		{name: "Null max yields null.", used: model.Float(104)},
		{name: "Zero denominator yields null.", used: model.Float(104), max: model.Float(0)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := normalize.Percent(test.used, test.max)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestSnapshotNoSource(t *testing.T) {
	n := normalize.New(normalize.Config{})
	snap := n.Snapshot(context.Background(), "http://localhost:9999", detect.Detection{Source: model.SourceNone})
	assert.Equal(t, model.RuntimeUnknown, snap.Runtime)
}

func ExamplePercent() {
	p := normalize.Percent(model.Float(1), model.Float(3))
	fmt.Println(*p)
	// Output: 33
}
