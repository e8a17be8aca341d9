package types

type RunMode string

const (
	// ModeLocal runs the API server with verbose defaults
	ModeLocal RunMode = "local"
	// ModeAPI runs just the API server
	ModeAPI RunMode = "api"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

// DedupBackend selects the store used to remember processed webhook events
type DedupBackend string

const (
	DedupBackendMemory DedupBackend = "memory"
	DedupBackendRedis  DedupBackend = "redis"
)
