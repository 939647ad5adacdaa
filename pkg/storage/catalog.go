package storage

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// ErrDatasetNotFound is returned for names the catalog does not hold.
var ErrDatasetNotFound = errors.New("dataset not found")

// DefaultCacheSize is how many decoded datasets a catalog keeps by default.
const DefaultCacheSize = 8

// Catalog is a read-only source of datasets. Datasets are decoded on first
// use and kept in an LRU cache; every caller receives its own copy.
type Catalog struct {
	mu        sync.RWMutex
	order     []string
	infos     map[string]*CollectionInfo
	raw       map[string]msgpack.RawMessage
	cache     *LRUCache
	cacheSize int
	logger    *zap.Logger

	// set when opened from a file; used by the reloader
	path       string
	modTime    time.Time
	generation uint64

	reloadInterval time.Duration
	onReload       []func()
	stopChan       chan struct{}
	stopOnce       sync.Once
	backgroundWg   sync.WaitGroup
}

func newCatalog(data *BundleData, options ...CatalogOption) *Catalog {
	c := &Catalog{
		cacheSize: DefaultCacheSize,
		logger:    zap.NewNop(),
		stopChan:  make(chan struct{}),
	}
	for _, option := range options {
		option(c)
	}
	c.cache = NewLRUCache(c.cacheSize)
	c.load(data)
	return c
}

// load replaces the catalog's contents. Callers hold c.mu or own c exclusively.
func (c *Catalog) load(data *BundleData) {
	c.order = make([]string, 0, len(data.Infos))
	c.infos = make(map[string]*CollectionInfo, len(data.Infos))
	c.raw = data.Datasets
	for _, info := range data.Infos {
		cp := *info
		cp.State = CollectionStateUnloaded
		c.infos[info.Name] = &cp
		c.order = append(c.order, info.Name)
	}
	c.generation++
	c.cache.Purge()
}

// NewCatalog builds a catalog over in-memory collections.
func NewCatalog(collections []*Collection, options ...CatalogOption) (*Catalog, error) {
	data, err := NewBundleData(collections)
	if err != nil {
		return nil, err
	}
	return newCatalog(data, options...), nil
}

// OpenCatalog loads the bundle at path.
func OpenCatalog(ctx context.Context, path string, options ...CatalogOption) (*Catalog, error) {
	data, err := ReadBundleFile(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open catalog %s", path)
	}
	c := newCatalog(data, options...)
	c.path = path
	if stat, err := os.Stat(path); err == nil {
		c.modTime = stat.ModTime()
	}
	c.StartReloader()
	c.logger.Info("catalog opened", zap.String("path", path), zap.Int("datasets", len(c.order)))
	return c, nil
}

// OnReload registers fn to run after every reload that swapped the bundle.
func (c *Catalog) OnReload(fn func()) {
	c.mu.Lock()
	c.onReload = append(c.onReload, fn)
	c.mu.Unlock()
}

// Names lists the datasets in bundle order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Info describes a dataset without decoding it.
func (c *Catalog) Info(name string) (CollectionInfo, bool) {
	c.mu.RLock()
	info, ok := c.infos[name]
	var out CollectionInfo
	if ok {
		out = *info
		out.Columns = append([]string(nil), info.Columns...)
	}
	c.mu.RUnlock()
	if !ok {
		return CollectionInfo{}, false
	}

	if cached, found := c.cache.Peek(name); found {
		out.AccessCount = cached.AccessCount
		out.LastAccessed = cached.LastAccessed
	}
	return out, true
}

// Dataset returns a private copy of the named dataset.
func (c *Catalog) Dataset(name string) (*Collection, error) {
	if collection, _, ok := c.cache.Get(name); ok {
		return collection.Clone(), nil
	}

	c.mu.RLock()
	raw, ok := c.raw[name]
	generation := c.generation
	c.mu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrDatasetNotFound, "%q", name)
	}

	collection, err := decodeCollection(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode dataset %q", name)
	}

	c.mu.Lock()
	// a reload swapped the bundle while decoding; serve but do not cache
	if generation != c.generation {
		c.mu.Unlock()
		return collection, nil
	}
	info := c.infos[name]
	info.State = CollectionStateLoaded
	cacheInfo := *info
	cacheInfo.AccessCount = 1
	evicted := c.cache.Put(name, collection, &cacheInfo)
	if e, ok := c.infos[evicted]; ok && evicted != "" {
		e.State = CollectionStateUnloaded
	}
	c.mu.Unlock()

	if evicted != "" {
		c.logger.Debug("dataset evicted from cache", zap.String("dataset", evicted))
	}
	c.logger.Debug("dataset loaded", zap.String("dataset", name), zap.Int("records", len(collection.Records)))

	return collection.Clone(), nil
}
