package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 1 * time.Hour

// Per-phone session lock
const (
	SessionLockTTL     = 15 * time.Second
	SessionLockRetries = 3
	SessionLockBackoff = 100 * time.Millisecond
)

// Outbound send policy
const (
	SendTimeout    = 10 * time.Second
	SendMaxRetries = 2
	SendRetryDelay = 500 * time.Millisecond
)

// Fallback when the catalog declares no timeout for a flow
const DefaultFlowTimeout = 10 * time.Minute
