package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sessionGCDiscardRatio is the fraction of stale data a Badger value log
	// file needs before the session GC job rewrites it.
	sessionGCDiscardRatio = 0.5
)
