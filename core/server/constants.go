package server

import "time"

const (
	// DefaultReadTimeout covers a full chunk request body.
	DefaultReadTimeout = 2 * time.Minute

	DefaultWriteTimeout = 2 * time.Minute

	DefaultIdleTimeout = 60 * time.Second

	DefaultShutdownTimeout = 30 * time.Second

	DefaultMaxHeaderBytes = 1 << 20 // 1 MB
)
