package constants

// Fixed service paths.
const (
	PathHealth  = "/health"
	PathReady   = "/ready"
	PathMetrics = "/metrics"
	PathAttach  = "/ws/live"
)
