package store

import (
	"log/slog"
	"time"
)

// Config holds configuration for the Store.
type Config struct {
	// WriteLockTimeout bounds lock acquisition for mutating operations.
	// Default: 100ms
	WriteLockTimeout time.Duration

	// ReadLockTimeout bounds lock acquisition for reads.
	// Default: 30s
	ReadLockTimeout time.Duration

	// ReleaseGrace is held after a critical section completes before the
	// lock is released, damping re-acquisition storms. Zero releases
	// immediately; DefaultConfig sets 400ms.
	ReleaseGrace time.Duration

	// CacheTTL is the lifetime of cached table scans.
	// Default: 10m
	CacheTTL time.Duration

	// CacheMaxBytes skips caching scan payloads larger than this.
	// Default: 95KB
	CacheMaxBytes int

	// BulkReadLimit caps the number of ids one ReadIDList call accepts.
	// Default: 1000
	BulkReadLimit int

	// Logger receives structured operational logs. Nil means slog.Default.
	Logger *slog.Logger
}

// DefaultConfig returns the stock timeouts and limits.
func DefaultConfig() Config {
	return Config{
		WriteLockTimeout: 100 * time.Millisecond,
		ReadLockTimeout:  30 * time.Second,
		ReleaseGrace:     400 * time.Millisecond,
		CacheTTL:         10 * time.Minute,
		CacheMaxBytes:    95 * 1024,
		BulkReadLimit:    1000,
	}
}

// validate fills zero values with defaults.
func (c *Config) validate() {
	if c.WriteLockTimeout <= 0 {
		c.WriteLockTimeout = 100 * time.Millisecond
	}
	if c.ReadLockTimeout <= 0 {
		c.ReadLockTimeout = 30 * time.Second
	}
	if c.ReleaseGrace < 0 {
		c.ReleaseGrace = 0
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 10 * time.Minute
	}
	if c.CacheMaxBytes <= 0 {
		c.CacheMaxBytes = 95 * 1024
	}
	if c.BulkReadLimit <= 0 {
		c.BulkReadLimit = 1000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
