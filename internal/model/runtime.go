package model

// SourceKind is the kind of telemetry source a base URL has been classified
// as. The set is closed: detection never invents new kinds.
type SourceKind string

const (
	// SourceActuator is a structured-JSON metrics source (Spring Boot
	// Actuator style, one endpoint per metric).
	SourceActuator SourceKind = "actuator"
	// SourcePrometheus is a line-oriented text exposition source.
	SourcePrometheus SourceKind = "prometheus"
	// SourceNone means no telemetry source could be detected.
	SourceNone SourceKind = "none"
)

// RuntimeKind identifies the runtime ecosystem a telemetry source belongs to.
type RuntimeKind string

const (
	RuntimeJVM     RuntimeKind = "jvm"
	RuntimeGo      RuntimeKind = "go"
	RuntimeNode    RuntimeKind = "nodejs"
	RuntimePython  RuntimeKind = "python"
	RuntimeUnknown RuntimeKind = "unknown"
)

// MemoryStats holds normalized memory figures. Byte-valued source metrics are
// converted to whole megabytes.
type MemoryStats struct {
	UsedMB       *float64 `json:"usedMb"`
	MaxMB        *float64 `json:"maxMb"`
	CommittedMB  *float64 `json:"committedMb"`
	UsagePercent *float64 `json:"usagePercent"`
}

// CPUStats holds normalized CPU figures. Usage values are percentages.
type CPUStats struct {
	ProcessUsagePercent *float64 `json:"processUsagePercent"`
	SystemUsagePercent  *float64 `json:"systemUsagePercent"`
	Count               *float64 `json:"count"`
}

// ConcurrencyStats is the ecosystem-specific concurrency sub-shape. Only the
// fields that apply to the classified runtime are populated; the rest stay
// null.
type ConcurrencyStats struct {
	ThreadsLive    *float64 `json:"threadsLive"`
	ThreadsPeak    *float64 `json:"threadsPeak"`
	Goroutines     *float64 `json:"goroutines"`
	EventLoopLagMs *float64 `json:"eventLoopLagMs"`
	ActiveHandles  *float64 `json:"activeHandles"`
}

// GCStats holds garbage-collection pause figures. Pause times are
// milliseconds.
type GCStats struct {
	PauseCount       *float64 `json:"pauseCount"`
	TotalPauseTimeMs *float64 `json:"totalPauseTimeMs"`
	MaxPauseTimeMs   *float64 `json:"maxPauseTimeMs"`
}

// DBPoolStats holds database connection pool figures.
type DBPoolStats struct {
	Active       *float64 `json:"active"`
	Idle         *float64 `json:"idle"`
	Pending      *float64 `json:"pending"`
	Max          *float64 `json:"max"`
	UsagePercent *float64 `json:"usagePercent"`
}

// HTTPStats holds server-side HTTP request figures. Times are milliseconds.
type HTTPStats struct {
	TotalRequests *float64 `json:"totalRequests"`
	TotalTimeMs   *float64 `json:"totalTimeMs"`
	MaxDurationMs *float64 `json:"maxDurationMs"`
}

// RuntimeSnapshot is the canonical, ecosystem-independent runtime-health
// record. Every numeric field is either a finite number or null; never NaN.
// Snapshots are constructed once per capture and not mutated afterwards.
type RuntimeSnapshot struct {
	Runtime     RuntimeKind      `json:"runtime"`
	Memory      MemoryStats      `json:"memory"`
	CPU         CPUStats         `json:"cpu"`
	Concurrency ConcurrencyStats `json:"threadsOrConcurrency"`
	// GC is null for runtimes without garbage collection telemetry.
	GC     *GCStats    `json:"gc"`
	DBPool DBPoolStats `json:"dbPool"`
	HTTP   HTTPStats   `json:"http"`
}

// Float returns a pointer to v. Convenience for building nullable fields.
func Float(v float64) *float64 { return &v }
