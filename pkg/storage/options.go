package storage

import (
	"time"

	"go.uber.org/zap"
)

type CatalogOption func(*Catalog)

// WithCacheSize bounds how many decoded datasets stay in memory
func WithCacheSize(n int) CatalogOption {
	return func(c *Catalog) {
		c.cacheSize = n
	}
}

// WithLogger sets the catalog's logger
func WithLogger(logger *zap.Logger) CatalogOption {
	return func(c *Catalog) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReloadInterval makes a catalog opened from a file pick up a repacked
// bundle. Zero disables reloading.
func WithReloadInterval(d time.Duration) CatalogOption {
	return func(c *Catalog) {
		c.reloadInterval = d
	}
}
