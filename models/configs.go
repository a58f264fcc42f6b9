package models

// Default timing values applied when the corresponding PoolConfig field is 0.
const (
	DefaultAcquireTimeoutMilliseconds = 30000
	DefaultIdleTimeoutMilliseconds    = 60000
	DefaultReapIntervalMilliseconds   = 30000
)

// PoolConfig represents settings for creating/configuring the PoolManager.
type PoolConfig struct {
	Size                       int    `json:"Size" yaml:"size"`
	Locator                    string `json:"Locator" yaml:"locator"`
	AcquireTimeoutMilliseconds uint32 `json:"AcquireTimeoutMilliseconds" yaml:"acquire_timeout_milliseconds"`
	IdleTimeoutMilliseconds    uint32 `json:"IdleTimeoutMilliseconds" yaml:"idle_timeout_milliseconds"`
	ReapIntervalMilliseconds   uint32 `json:"ReapIntervalMilliseconds" yaml:"reap_interval_milliseconds"`
}

// PoolStatus is a point-in-time count of records and waiters.
// Active+Idle always equals Total.
type PoolStatus struct {
	Total   int `json:"Total" yaml:"total"`
	Active  int `json:"Active" yaml:"active"`
	Idle    int `json:"Idle" yaml:"idle"`
	Waiting int `json:"Waiting" yaml:"waiting"`
}

// HealthState classifies a HealthReport.
type HealthState string

const (
	// Healthy means no soft errors and a passing live probe.
	Healthy HealthState = "healthy"
	// Degraded means one or two soft errors were detected.
	Degraded HealthState = "degraded"
	// Unhealthy means three or more errors, or the live probe failed.
	Unhealthy HealthState = "unhealthy"
)

// HealthReport is the result of PoolManager.HealthCheck. It never carries
// an error out-of-band - every failure mode becomes an entry in Errors.
type HealthReport struct {
	State  HealthState `json:"State" yaml:"state"`
	Pool   PoolStatus  `json:"Pool" yaml:"pool"`
	Errors []string    `json:"Errors,omitempty" yaml:"errors,omitempty"`
}
