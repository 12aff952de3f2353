// Package dynamo maps the lattice backend contracts onto DynamoDB: a grid
// of row items, a TTL-attribute cache, and a lease lock taken with a
// conditional put.
package dynamo

import "time"

// Config holds configuration for the DynamoDB backends.
type Config struct {
	// GridTable is the table holding grid rows.
	// Default: "lattice_grid"
	GridTable string

	// CacheTable is the table holding cache entries.
	// Default: "lattice_cache"
	CacheTable string

	// LockTable is the table holding lock leases.
	// Default: "lattice_locks"
	LockTable string

	// LockName is the lease key guarding one store.
	// Default: "store"
	LockName string

	// LeaseTTL bounds how long a crashed holder can block others.
	// Default: 60s
	LeaseTTL time.Duration

	// PollInterval is the retry cadence while waiting for the lease.
	// Default: 50ms
	PollInterval time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		GridTable:    "lattice_grid",
		CacheTable:   "lattice_cache",
		LockTable:    "lattice_locks",
		LockName:     "store",
		LeaseTTL:     60 * time.Second,
		PollInterval: 50 * time.Millisecond,
	}
}

// validate ensures config values are usable.
func (c *Config) validate() {
	if c.GridTable == "" {
		c.GridTable = "lattice_grid"
	}
	if c.CacheTable == "" {
		c.CacheTable = "lattice_cache"
	}
	if c.LockTable == "" {
		c.LockTable = "lattice_locks"
	}
	if c.LockName == "" {
		c.LockName = "store"
	}
	if c.LeaseTTL <= 0 {
		c.LeaseTTL = 60 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 50 * time.Millisecond
	}
}
