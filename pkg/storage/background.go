package storage

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GetMemoryStats returns current memory usage statistics
func (c *Catalog) GetMemoryStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	c.mu.RLock()
	datasets := len(c.order)
	generation := c.generation
	c.mu.RUnlock()

	return map[string]interface{}{
		"alloc_mb":       m.Alloc / 1024 / 1024,
		"sys_mb":         m.Sys / 1024 / 1024,
		"num_goroutines": runtime.NumGoroutine(),
		"cache_size":     c.cache.Len(),
		"datasets":       datasets,
		"generation":     generation,
	}
}

// Reload re-reads the bundle the catalog was opened from if it changed on
// disk since the last load. Cached datasets are dropped when it does.
func (c *Catalog) Reload(ctx context.Context) (bool, error) {
	if c.path == "" {
		return false, nil
	}
	stat, err := os.Stat(c.path)
	if err != nil {
		return false, errors.Wrap(err, "failed to stat bundle")
	}

	c.mu.RLock()
	unchanged := stat.ModTime().Equal(c.modTime)
	c.mu.RUnlock()
	if unchanged {
		return false, nil
	}

	data, err := ReadBundleFile(ctx, c.path)
	if err != nil {
		return false, errors.Wrapf(err, "failed to reload catalog %s", c.path)
	}

	c.mu.Lock()
	c.load(data)
	c.modTime = stat.ModTime()
	datasets := len(c.order)
	listeners := append([]func(){}, c.onReload...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}

	c.logger.Info("catalog reloaded", zap.String("path", c.path), zap.Int("datasets", datasets))
	return true, nil
}

// StartReloader polls the bundle file for changes every reload interval.
// It does nothing for in-memory catalogs or when the interval is not set.
func (c *Catalog) StartReloader() {
	if c.path == "" || c.reloadInterval <= 0 {
		return
	}

	c.backgroundWg.Add(1)
	go func() {
		defer c.backgroundWg.Done()
		ticker := time.NewTicker(c.reloadInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := c.Reload(context.Background()); err != nil {
					c.logger.Warn("catalog reload failed", zap.Error(err))
				}
			case <-c.stopChan:
				return
			}
		}
	}()
}

// Close stops background workers. It is safe to call more than once.
func (c *Catalog) Close() error {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.backgroundWg.Wait()
	return nil
}
