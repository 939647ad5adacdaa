package snapshot

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

var (
	// ErrUnavailable is returned by a provider whose backend can not be acquired.
	ErrUnavailable = errors.New("snapshot backend unavailable")
	// ErrNoBackend means neither a document nor a raster backend could be acquired.
	ErrNoBackend = errors.New("no snapshot backend available")
	// ErrDetached is returned when a region is unmounted while it is being rasterized.
	ErrDetached = errors.New("snapshot region is not attached")
	// ErrInvalidLayout reports a page setup or image that can not be laid out.
	ErrInvalidLayout = errors.New("invalid document layout")
)

// RasterBackend captures a region as an image.
type RasterBackend interface {
	Rasterize(ctx context.Context, region domain.Region, scale float64) (image.Image, error)
}

// DocumentBackend rasterizes regions and assembles the paginated document.
type DocumentBackend interface {
	RasterBackend
	Assemble(ctx context.Context, img image.Image, plan Plan) ([]byte, error)
	// ContentType and Extension describe what Assemble produces.
	ContentType() string
	Extension() string
}

// DocumentProvider resolves a document backend at call time.
type DocumentProvider interface {
	Name() string
	Document(ctx context.Context) (DocumentBackend, error)
}

// RasterProvider resolves a raster-only backend at call time.
type RasterProvider interface {
	Name() string
	Raster(ctx context.Context) (RasterBackend, error)
}

// PDFProvider always yields a fresh gofpdf backend.
type PDFProvider struct {
	Title   string
	Creator string
}

func (p PDFProvider) Name() string { return "pdf" }

func (p PDFProvider) Document(ctx context.Context) (DocumentBackend, error) {
	return NewPDFBackend(p.Title, p.Creator), nil
}

// PNGProvider yields the raster-only backend used in degraded mode.
type PNGProvider struct{}

func (PNGProvider) Name() string { return "png" }

func (PNGProvider) Raster(ctx context.Context) (RasterBackend, error) {
	return NewRasterizer(), nil
}

// BackendFactory builds a document backend on demand.
type BackendFactory func() (DocumentBackend, error)

// Registry holds document backends registered ahead of time under a name.
// It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BackendFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]BackendFactory)}
}

// DefaultRegistry is pre-loaded with the gofpdf backend under "gofpdf".
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	r.Register("gofpdf", func() (DocumentBackend, error) {
		return NewPDFBackend("", ""), nil
	})
	return r
}()

// Register adds or replaces the factory stored under name.
func (r *Registry) Register(name string, factory BackendFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Unregister removes name from the registry.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, name)
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (BackendFactory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names lists registered backends in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegistryProvider is the alternate loading path: it looks a pre-registered
// backend up by name instead of constructing one itself.
type RegistryProvider struct {
	Registry *Registry
	Backend  string
}

func (p RegistryProvider) Name() string { return "registry:" + p.Backend }

func (p RegistryProvider) Document(ctx context.Context) (DocumentBackend, error) {
	if p.Registry == nil {
		return nil, fmt.Errorf("%w: no registry", ErrUnavailable)
	}
	factory, ok := p.Registry.Lookup(p.Backend)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not registered", ErrUnavailable, p.Backend)
	}
	backend, err := factory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: %q produced no backend", ErrUnavailable, p.Backend)
	}
	return backend, nil
}

// ParseBackends turns a configured list such as ["pdf", "registry:gofpdf", "png"]
// into ordered provider chains. Order within each chain follows the list.
func ParseBackends(names []string, registry *Registry) ([]DocumentProvider, []RasterProvider, error) {
	var docs []DocumentProvider
	var rasters []RasterProvider
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch {
		case name == "pdf":
			docs = append(docs, PDFProvider{})
		case name == "png":
			rasters = append(rasters, PNGProvider{})
		case strings.HasPrefix(name, "registry:"):
			docs = append(docs, RegistryProvider{Registry: registry, Backend: strings.TrimPrefix(name, "registry:")})
		case name == "":
			continue
		default:
			return nil, nil, fmt.Errorf("unknown snapshot backend %q", raw)
		}
	}
	return docs, rasters, nil
}
