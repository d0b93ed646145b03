package normalize

import (
	"github.com/rkampani/perfcheck/internal/model"
)

// unit is the conversion applied to a raw metric value when it is placed in
// the canonical snapshot.
type unit int

const (
	// unitNative keeps the value as exposed.
	unitNative unit = iota
	// unitBytesToMB converts bytes to whole megabytes.
	unitBytesToMB
	// unitSecondsToMS converts seconds to milliseconds.
	unitSecondsToMS
	// unitRatioToPercent converts a 0-1 ratio to a percentage.
	unitRatioToPercent
)

// chain is an ordered fallback list of candidate metric names for one
// canonical field. No single name is guaranteed present across the
// instrumentation libraries of an ecosystem, so resolution takes the first
// candidate found in the index.
type chain struct {
	candidates []string
	unit       unit
}

// Signature maps a marker metric name to the runtime ecosystem it betrays.
type Signature struct {
	Metric  string
	Runtime model.RuntimeKind
}

// DefaultSignatures is the ordered runtime classification table. It is
// tested top to bottom against the parsed index; the first marker present
// wins. New ecosystems are added here, not in matching code.
var DefaultSignatures = []Signature{
	{Metric: "python_info", Runtime: model.RuntimePython},
	{Metric: "python_gc_objects_collected_total", Runtime: model.RuntimePython},
	{Metric: "nodejs_version_info", Runtime: model.RuntimeNode},
	{Metric: "nodejs_eventloop_lag_seconds", Runtime: model.RuntimeNode},
	{Metric: "go_info", Runtime: model.RuntimeGo},
	{Metric: "go_goroutines", Runtime: model.RuntimeGo},
	{Metric: "jvm_info", Runtime: model.RuntimeJVM},
	{Metric: "jvm_memory_used_bytes", Runtime: model.RuntimeJVM},
	{Metric: "jvm_memory_bytes_used", Runtime: model.RuntimeJVM},
}

// profile holds the per-ecosystem fallback chains for every canonical
// snapshot field. Empty chains mean the ecosystem's instrumentation does not
// expose that field; the field stays null.
type profile struct {
	memUsed      chain
	memMax       chain
	memCommitted chain

	cpuProcess chain
	cpuSystem  chain
	cpuCount   chain

	threadsLive   chain
	threadsPeak   chain
	goroutines    chain
	eventLoopLag  chain
	activeHandles chain

	gcCount chain
	gcTotal chain
	gcMax   chain

	dbActive  chain
	dbIdle    chain
	dbPending chain
	dbMax     chain

	httpCount chain
	httpTotal chain
	httpMax   chain
}

// defaultProfiles covers the four recognized ecosystems. Candidate orders
// follow instrumentation-library popularity: Micrometer before the legacy
// simpleclient for the JVM, prom-client names before generic process ones
// for Node.
var defaultProfiles = map[model.RuntimeKind]profile{
	model.RuntimeJVM: {
		memUsed:      chain{candidates: []string{"jvm_memory_used_bytes", "jvm_memory_bytes_used"}, unit: unitBytesToMB},
		memMax:       chain{candidates: []string{"jvm_memory_max_bytes", "jvm_memory_bytes_max"}, unit: unitBytesToMB},
		memCommitted: chain{candidates: []string{"jvm_memory_committed_bytes", "jvm_memory_bytes_committed"}, unit: unitBytesToMB},

		cpuProcess: chain{candidates: []string{"process_cpu_usage"}, unit: unitRatioToPercent},
		cpuSystem:  chain{candidates: []string{"system_cpu_usage"}, unit: unitRatioToPercent},
		cpuCount:   chain{candidates: []string{"system_cpu_count"}},

		threadsLive: chain{candidates: []string{"jvm_threads_live_threads", "jvm_threads_current", "jvm_threads_live"}},
		threadsPeak: chain{candidates: []string{"jvm_threads_peak_threads", "jvm_threads_peak"}},

		gcCount: chain{candidates: []string{"jvm_gc_pause_seconds_count", "jvm_gc_collection_seconds_count"}},
		gcTotal: chain{candidates: []string{"jvm_gc_pause_seconds_sum", "jvm_gc_collection_seconds_sum"}, unit: unitSecondsToMS},
		gcMax:   chain{candidates: []string{"jvm_gc_pause_seconds_max"}, unit: unitSecondsToMS},

		dbActive:  chain{candidates: []string{"hikaricp_connections_active", "hikaricp_active_connections"}},
		dbIdle:    chain{candidates: []string{"hikaricp_connections_idle", "hikaricp_idle_connections"}},
		dbPending: chain{candidates: []string{"hikaricp_connections_pending", "hikaricp_pending_threads"}},
		dbMax:     chain{candidates: []string{"hikaricp_connections_max", "hikaricp_max_connections"}},

		httpCount: chain{candidates: []string{"http_server_requests_seconds_count", "http_requests_total"}},
		httpTotal: chain{candidates: []string{"http_server_requests_seconds_sum"}, unit: unitSecondsToMS},
		httpMax:   chain{candidates: []string{"http_server_requests_seconds_max"}, unit: unitSecondsToMS},
	},
	model.RuntimeGo: {
		memUsed: chain{candidates: []string{"go_memstats_heap_alloc_bytes", "go_memstats_alloc_bytes"}, unit: unitBytesToMB},
		memMax:  chain{candidates: []string{"go_memstats_heap_sys_bytes", "go_memstats_sys_bytes"}, unit: unitBytesToMB},

		cpuCount: chain{candidates: []string{"go_sched_gomaxprocs_threads"}},

		goroutines:  chain{candidates: []string{"go_goroutines"}},
		threadsLive: chain{candidates: []string{"go_threads"}},

		gcCount: chain{candidates: []string{"go_gc_duration_seconds_count"}},
		gcTotal: chain{candidates: []string{"go_gc_duration_seconds_sum"}, unit: unitSecondsToMS},

		dbActive: chain{candidates: []string{"go_sql_stats_connections_in_use", "go_sql_in_use_connections"}},
		dbIdle:   chain{candidates: []string{"go_sql_stats_connections_idle", "go_sql_idle_connections"}},
		dbMax:    chain{candidates: []string{"go_sql_stats_connections_max_open", "go_sql_max_open_connections"}},

		httpCount: chain{candidates: []string{"http_requests_total", "promhttp_metric_handler_requests_total"}},
		httpTotal: chain{candidates: []string{"http_request_duration_seconds_sum"}, unit: unitSecondsToMS},
	},
	model.RuntimeNode: {
		memUsed: chain{candidates: []string{"nodejs_heap_size_used_bytes", "process_resident_memory_bytes"}, unit: unitBytesToMB},
		memMax:  chain{candidates: []string{"nodejs_heap_size_total_bytes"}, unit: unitBytesToMB},

		eventLoopLag:  chain{candidates: []string{"nodejs_eventloop_lag_seconds", "nodejs_eventloop_lag_mean_seconds"}, unit: unitSecondsToMS},
		activeHandles: chain{candidates: []string{"nodejs_active_handles_total", "nodejs_active_handles"}},

		gcCount: chain{candidates: []string{"nodejs_gc_duration_seconds_count"}},
		gcTotal: chain{candidates: []string{"nodejs_gc_duration_seconds_sum"}, unit: unitSecondsToMS},

		httpCount: chain{candidates: []string{"http_request_duration_seconds_count", "http_requests_total"}},
		httpTotal: chain{candidates: []string{"http_request_duration_seconds_sum"}, unit: unitSecondsToMS},
	},
	model.RuntimePython: {
		memUsed: chain{candidates: []string{"process_resident_memory_bytes"}, unit: unitBytesToMB},
		memMax:  chain{candidates: []string{"process_virtual_memory_bytes"}, unit: unitBytesToMB},

		gcCount: chain{candidates: []string{"python_gc_collections_total"}},

		httpCount: chain{candidates: []string{"http_request_duration_seconds_count", "http_requests_total"}},
		httpTotal: chain{candidates: []string{"http_request_duration_seconds_sum"}, unit: unitSecondsToMS},
	},
}
