package server

import "time"

// Config groups the service settings.
type Config struct {
	Addr string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// MaxPerftDepth bounds /api/perft. PerftTimeout bounds one computation,
	// including subtrees already being counted.
	MaxPerftDepth int
	PerftTimeout  time.Duration
	PerftWorkers  int // 0 means GOMAXPROCS

	// Response cache size in bytes.
	CacheBytes int64
}

// DefaultConfig returns the settings used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		MaxPerftDepth:     6,
		PerftTimeout:      90 * time.Second,
		CacheBytes:        64 << 20,
	}
}
