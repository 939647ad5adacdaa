// Package snapshot exports a live region of the portal as a paginated
// document, falling back to a raster image and finally to a user notice.
package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// UnsupportedMessage is shown when no backend at all can be acquired.
const UnsupportedMessage = "Document export is not available in this environment. Try again later or use the CSV export instead."

// State of a single export call.
type State int

const (
	StateIdle State = iota
	StateResolving
	StateRendering
	StateDone
	StateDegraded
	StateDoneDegraded
	StateFailed
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateRendering:
		return "rendering"
	case StateDone:
		return "done"
	case StateDegraded:
		return "degraded"
	case StateDoneDegraded:
		return "done_degraded"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result is delivered once per export call.
type Result struct {
	ExportID string
	State    State
	Trace    []State
	Backend  string
	Pages    int
	Artifact domain.Artifact
	Err      error
}

// Options configures an Exporter.
type Options struct {
	DocumentProviders []DocumentProvider
	RasterProviders   []RasterProvider
	Viewer            domain.Viewer
	Notifier          domain.Notifier
	Logger            *zap.Logger
	Scale             float64
	PageSetup         PageSetup
}

// Option is a function that configures Options
type Option func(*Options)

// DefaultOptions prefers gofpdf, then the registered gofpdf backend, then PNG.
func DefaultOptions() *Options {
	return &Options{
		DocumentProviders: []DocumentProvider{
			PDFProvider{},
			RegistryProvider{Registry: DefaultRegistry, Backend: "gofpdf"},
		},
		RasterProviders: []RasterProvider{PNGProvider{}},
		Logger:          zap.NewNop(),
		Scale:           DefaultScale,
		PageSetup:       DefaultPageSetup(),
	}
}

// WithDocumentProviders replaces the ordered document backend chain
func WithDocumentProviders(providers ...DocumentProvider) Option {
	return func(opts *Options) {
		opts.DocumentProviders = providers
	}
}

// WithRasterProviders replaces the ordered raster backend chain
func WithRasterProviders(providers ...RasterProvider) Option {
	return func(opts *Options) {
		opts.RasterProviders = providers
	}
}

// WithViewer sets where degraded raster exports are opened
func WithViewer(v domain.Viewer) Option {
	return func(opts *Options) {
		opts.Viewer = v
	}
}

// WithNotifier sets who is told when no backend is available
func WithNotifier(n domain.Notifier) Option {
	return func(opts *Options) {
		opts.Notifier = n
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *zap.Logger) Option {
	return func(opts *Options) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithScale sets the rasterization upscale factor
func WithScale(scale float64) Option {
	return func(opts *Options) {
		if scale > 0 {
			opts.Scale = scale
		}
	}
}

// WithPageSetup sets the default page geometry
func WithPageSetup(setup PageSetup) Option {
	return func(opts *Options) {
		opts.PageSetup = setup
	}
}

// ExportOption adjusts a single export call.
type ExportOption func(*PageSetup)

// WithOrientation overrides the page orientation for one export.
func WithOrientation(o Orientation) ExportOption {
	return func(s *PageSetup) {
		s.Orientation = o
	}
}

// WithPaper overrides the paper size for one export.
func WithPaper(p Paper) ExportOption {
	return func(s *PageSetup) {
		s.Paper = p
	}
}

// WithMargin overrides the page margin for one export.
func WithMargin(mm float64) ExportOption {
	return func(s *PageSetup) {
		s.Margin = mm
	}
}

// Exporter turns a region into a saved document. It keeps no per-call state,
// so it does not serialize overlapping exports; callers that care must do so.
type Exporter struct {
	saver    domain.Saver
	docs     []DocumentProvider
	rasters  []RasterProvider
	viewer   domain.Viewer
	notifier domain.Notifier
	logger   *zap.Logger
	scale    float64
	setup    PageSetup
}

// NewExporter creates an exporter that hands finished documents to saver.
func NewExporter(saver domain.Saver, opts ...Option) *Exporter {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return &Exporter{
		saver:    saver,
		docs:     options.DocumentProviders,
		rasters:  options.RasterProviders,
		viewer:   options.Viewer,
		notifier: options.Notifier,
		logger:   options.Logger,
		scale:    options.Scale,
		setup:    options.PageSetup,
	}
}

// Export starts exporting region and returns at once. The single Result is
// sent on the returned channel, which is then closed. The region must stay
// attached until the result arrives.
func (e *Exporter) Export(ctx context.Context, region domain.Region, filename string, opts ...ExportOption) <-chan Result {
	results := make(chan Result, 1)

	setup := e.setup
	for _, opt := range opts {
		opt(&setup)
	}

	call := &exportCall{
		Exporter: e,
		id:       uuid.NewString(),
		filename: filename,
		setup:    setup,
	}
	call.log = e.logger.With(zap.String("export_id", call.id), zap.String("filename", filename))

	if !domain.Attached(region) {
		call.log.Warn("snapshot region is not attached; export skipped")
		results <- call.finish(StateSkipped, nil)
		close(results)
		return results
	}

	go func() {
		defer close(results)
		results <- call.run(ctx, region)
	}()
	return results
}

// ExportAndWait is Export for callers that can block.
func (e *Exporter) ExportAndWait(ctx context.Context, region domain.Region, filename string, opts ...ExportOption) Result {
	return <-e.Export(ctx, region, filename, opts...)
}

type exportCall struct {
	*Exporter
	id       string
	filename string
	setup    PageSetup
	log      *zap.Logger
	trace    []State
	result   Result
}

func (c *exportCall) enter(s State) {
	c.trace = append(c.trace, s)
}

func (c *exportCall) finish(s State, err error) Result {
	c.enter(s)
	c.result.ExportID = c.id
	c.result.State = s
	c.result.Trace = append([]State{StateIdle}, c.trace...)
	c.result.Err = err
	return c.result
}

func (c *exportCall) run(ctx context.Context, region domain.Region) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("snapshot export panicked: %v", p)
			c.log.Error("snapshot export failed", zap.Error(err))
			res = c.finish(StateFailed, err)
		}
	}()

	c.enter(StateResolving)
	if backend, name := c.resolveDocument(ctx); backend != nil {
		return c.renderDocument(ctx, region, backend, name)
	}

	c.enter(StateDegraded)
	c.log.Warn("no document backend available; falling back to raster view")
	if backend, name := c.resolveRaster(ctx); backend != nil {
		return c.renderRaster(ctx, region, backend, name)
	}

	c.log.Error("no snapshot backend available")
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, UnsupportedMessage); err != nil {
			c.log.Error("failed to show unsupported notice", zap.Error(err))
		}
	}
	return c.finish(StateFailed, ErrNoBackend)
}

func (c *exportCall) resolveDocument(ctx context.Context) (DocumentBackend, string) {
	for _, p := range c.docs {
		backend, err := p.Document(ctx)
		if err != nil || backend == nil {
			c.log.Debug("document backend unavailable", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		return backend, p.Name()
	}
	return nil, ""
}

func (c *exportCall) resolveRaster(ctx context.Context) (RasterBackend, string) {
	for _, p := range c.rasters {
		backend, err := p.Raster(ctx)
		if err != nil || backend == nil {
			c.log.Debug("raster backend unavailable", zap.String("provider", p.Name()), zap.Error(err))
			continue
		}
		return backend, p.Name()
	}
	return nil, ""
}

func (c *exportCall) renderDocument(ctx context.Context, region domain.Region, backend DocumentBackend, name string) Result {
	c.enter(StateRendering)
	c.result.Backend = name

	img, err := backend.Rasterize(ctx, region, c.scale)
	if err != nil {
		return c.fail("rasterize region", err)
	}
	b := img.Bounds()
	plan, err := NewPlan(c.setup, b.Dx(), b.Dy())
	if err != nil {
		return c.fail("lay out document", err)
	}
	data, err := backend.Assemble(ctx, img, plan)
	if err != nil {
		return c.fail("assemble document", err)
	}

	artifact := domain.Artifact{
		ID:          c.id,
		Filename:    WithExtension(c.filename, backend.Extension()),
		ContentType: backend.ContentType(),
		Data:        data,
	}
	if c.saver == nil {
		return c.fail("save document", fmt.Errorf("no saver configured"))
	}
	if err := c.saver.Save(ctx, artifact); err != nil {
		return c.fail("save document", err)
	}

	c.result.Pages = plan.Pages
	c.result.Artifact = artifact
	c.log.Info("snapshot exported",
		zap.String("backend", name),
		zap.Int("pages", plan.Pages),
		zap.Int("bytes", artifact.Size()))
	return c.finish(StateDone, nil)
}

func (c *exportCall) renderRaster(ctx context.Context, region domain.Region, backend RasterBackend, name string) Result {
	c.result.Backend = name

	img, err := backend.Rasterize(ctx, region, c.scale)
	if err != nil {
		return c.fail("rasterize region", err)
	}
	data, err := EncodePNG(img)
	if err != nil {
		return c.fail("encode image", err)
	}

	artifact := domain.Artifact{
		ID:          c.id,
		Filename:    WithExtension(c.filename, ".png"),
		ContentType: PNGContentType,
		Data:        data,
	}
	switch {
	case c.viewer != nil:
		err = c.viewer.Open(ctx, artifact)
	case c.saver != nil:
		err = c.saver.Save(ctx, artifact)
	default:
		err = fmt.Errorf("no viewer configured")
	}
	if err != nil {
		return c.fail("open raster view", err)
	}

	c.result.Pages = 1
	c.result.Artifact = artifact
	c.log.Info("snapshot opened as image", zap.String("backend", name), zap.Int("bytes", artifact.Size()))
	return c.finish(StateDoneDegraded, nil)
}

func (c *exportCall) fail(step string, err error) Result {
	err = fmt.Errorf("%s: %w", step, err)
	c.log.Error("snapshot export failed", zap.Error(err))
	return c.finish(StateFailed, err)
}

// WithExtension appends ext to filename unless it already ends with it,
// ignoring case. The name is otherwise left as given.
func WithExtension(filename, ext string) string {
	if strings.EqualFold(filepath.Ext(filename), ext) {
		return filename
	}
	return filename + ext
}
