package snapshot

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// stripeRegion paints each row with a colour derived from its y coordinate.
type stripeRegion struct {
	w, h     int
	detached bool
	drawErr  error
	panics   bool
}

func (r *stripeRegion) IsAttached() bool { return r != nil && !r.detached }

func (r *stripeRegion) Bounds() image.Rectangle { return image.Rect(0, 0, r.w, r.h) }

func (r *stripeRegion) Draw(dst draw.Image, scale float64) error {
	if r.panics {
		panic("boom")
	}
	if r.drawErr != nil {
		return r.drawErr
	}
	b := dst.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		c := color.RGBA{R: uint8(y % 256), G: uint8(y / 256), B: 128, A: 255}
		draw.Draw(dst, image.Rect(b.Min.X, y, b.Max.X, y+1), image.NewUniform(c), image.Point{}, draw.Src)
	}
	return nil
}

type memorySaver struct {
	mu    sync.Mutex
	saved []domain.Artifact
	err   error
}

func (s *memorySaver) Save(ctx context.Context, a domain.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, a)
	return nil
}

func (s *memorySaver) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

type memoryViewer struct{ opened []domain.Artifact }

func (v *memoryViewer) Open(ctx context.Context, a domain.Artifact) error {
	v.opened = append(v.opened, a)
	return nil
}

type memoryNotifier struct{ messages []string }

func (n *memoryNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	return nil
}

type unavailableDocs struct{ name string }

func (p unavailableDocs) Name() string { return p.name }

func (p unavailableDocs) Document(ctx context.Context) (DocumentBackend, error) {
	return nil, ErrUnavailable
}

type unavailableRaster struct{}

func (unavailableRaster) Name() string { return "none" }

func (unavailableRaster) Raster(ctx context.Context) (RasterBackend, error) {
	return nil, ErrUnavailable
}

// recordingBackend remembers the plan it was asked to assemble.
type recordingBackend struct {
	*Rasterizer
	plans []Plan
}

func (b *recordingBackend) Assemble(ctx context.Context, img image.Image, plan Plan) ([]byte, error) {
	b.plans = append(b.plans, plan)
	return []byte("doc"), nil
}

func (b *recordingBackend) ContentType() string { return "application/x-test" }

func (b *recordingBackend) Extension() string { return ".pdf" }

type staticDocs struct {
	name    string
	backend DocumentBackend
	release chan struct{}
}

func (p staticDocs) Name() string { return p.name }

func (p staticDocs) Document(ctx context.Context) (DocumentBackend, error) {
	if p.release != nil {
		<-p.release
	}
	return p.backend, nil
}

func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func TestExport_NilOrDetachedRegionIsSkipped(t *testing.T) {
	regions := map[string]domain.Region{
		"nil interface": nil,
		"nil pointer":   (*stripeRegion)(nil),
		"detached":      &stripeRegion{w: 10, h: 10, detached: true},
	}
	for name, region := range regions {
		t.Run(name, func(t *testing.T) {
			logger, logs := observedLogger()
			saver := &memorySaver{}
			exp := NewExporter(saver, WithLogger(logger))

			var res Result
			require.NotPanics(t, func() {
				res = exp.ExportAndWait(context.Background(), region, "timetable")
			})

			assert.Equal(t, StateSkipped, res.State)
			assert.NoError(t, res.Err)
			assert.Equal(t, []State{StateIdle, StateSkipped}, res.Trace)
			assert.Equal(t, 0, saver.count())
			assert.Equal(t, 1, logs.Len(), "exactly one diagnostic")
		})
	}
}

func TestExport_TallRegionSpansPages(t *testing.T) {
	saver := &memorySaver{}
	exp := NewExporter(saver, WithRasterProviders())

	region := &stripeRegion{w: 200, h: 1500}
	res := exp.ExportAndWait(context.Background(), region, "transcript")
	require.NoError(t, res.Err)

	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, "pdf", res.Backend)
	// 400x3000 px at 190mm wide is 1425mm tall; 277mm per page.
	assert.Equal(t, 6, res.Pages)

	require.Equal(t, 1, saver.count())
	doc := saver.saved[0]
	assert.Equal(t, "transcript.pdf", doc.Filename)
	assert.Equal(t, PDFContentType, doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))
	assert.Contains(t, string(doc.Data), "/Count 6")
	assert.Equal(t, res.ExportID, doc.ID)
}

func TestExport_PlanCoversWholeImage(t *testing.T) {
	backend := &recordingBackend{Rasterizer: NewRasterizer()}
	saver := &memorySaver{}
	exp := NewExporter(saver,
		WithDocumentProviders(staticDocs{name: "rec", backend: backend}),
		WithScale(2))

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 320, h: 2000}, "fees.PDF",
		WithOrientation(Landscape))
	require.NoError(t, res.Err)
	require.Len(t, backend.plans, 1)

	plan := backend.plans[0]
	assert.Equal(t, Landscape, plan.Setup.Orientation)
	assert.Equal(t, 640, plan.ImageWidth)
	assert.Equal(t, 4000, plan.ImageHeight)
	assert.Equal(t, 4000, plan.Slices[len(plan.Slices)-1].Y1)
	assert.Equal(t, plan.Pages, res.Pages)
	assert.Equal(t, "fees.PDF", saver.saved[0].Filename)
}

func TestExport_FallsThroughProvidersInOrder(t *testing.T) {
	logger, logs := observedLogger()
	backend := &recordingBackend{Rasterizer: NewRasterizer()}
	saver := &memorySaver{}
	exp := NewExporter(saver,
		WithLogger(logger),
		WithDocumentProviders(
			unavailableDocs{name: "first"},
			RegistryProvider{Registry: NewRegistry(), Backend: "missing"},
			staticDocs{name: "third", backend: backend},
			staticDocs{name: "fourth", backend: NewPDFBackend("", "")},
		))

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 50, h: 50}, "courses")
	require.NoError(t, res.Err)
	assert.Equal(t, "third", res.Backend)
	assert.Equal(t, []State{StateIdle, StateResolving, StateRendering, StateDone}, res.Trace)
	assert.Equal(t, 2, logs.FilterMessage("document backend unavailable").Len())
}

func TestExport_RegistryProvider(t *testing.T) {
	reg := NewRegistry()
	backend := &recordingBackend{Rasterizer: NewRasterizer()}
	reg.Register("custom", func() (DocumentBackend, error) { return backend, nil })

	saver := &memorySaver{}
	exp := NewExporter(saver, WithDocumentProviders(RegistryProvider{Registry: reg, Backend: "custom"}))

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 10, h: 10}, "library")
	require.NoError(t, res.Err)
	assert.Equal(t, "registry:custom", res.Backend)
	assert.Len(t, backend.plans, 1)
}

func TestExport_DegradedOpensRasterView(t *testing.T) {
	saver := &memorySaver{}
	viewer := &memoryViewer{}
	exp := NewExporter(saver,
		WithDocumentProviders(unavailableDocs{name: "pdf"}),
		WithRasterProviders(unavailableRaster{}, PNGProvider{}),
		WithViewer(viewer))

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 40, h: 30}, "exams")
	require.NoError(t, res.Err)

	assert.Equal(t, StateDoneDegraded, res.State)
	assert.Equal(t, []State{StateIdle, StateResolving, StateDegraded, StateDoneDegraded}, res.Trace)
	assert.Equal(t, "png", res.Backend)
	assert.Equal(t, 0, saver.count())
	require.Len(t, viewer.opened, 1)
	assert.Equal(t, "exams.png", viewer.opened[0].Filename)
	assert.Equal(t, PNGContentType, viewer.opened[0].ContentType)

	img, _, err := image.Decode(bytes.NewReader(viewer.opened[0].Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 80, 60), img.Bounds())
}

func TestExport_NoBackendNotifiesUser(t *testing.T) {
	saver := &memorySaver{}
	notifier := &memoryNotifier{}
	exp := NewExporter(saver,
		WithDocumentProviders(unavailableDocs{name: "pdf"}),
		WithRasterProviders(unavailableRaster{}),
		WithNotifier(notifier))

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 40, h: 30}, "exams")
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, ErrNoBackend)
	assert.Equal(t, []State{StateIdle, StateResolving, StateDegraded, StateFailed}, res.Trace)
	assert.Equal(t, []string{UnsupportedMessage}, notifier.messages)
	assert.Equal(t, 0, saver.count())
}

func TestExport_RasterizeFailures(t *testing.T) {
	tests := []struct {
		name   string
		region *stripeRegion
	}{
		{"draw error", &stripeRegion{w: 10, h: 10, drawErr: errors.New("canvas tainted")}},
		{"draw panic", &stripeRegion{w: 10, h: 10, panics: true}},
		{"zero area", &stripeRegion{w: 0, h: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := observedLogger()
			saver := &memorySaver{}
			exp := NewExporter(saver, WithLogger(logger))

			var res Result
			require.NotPanics(t, func() {
				res = exp.ExportAndWait(context.Background(), tt.region, "x")
			})
			assert.Equal(t, StateFailed, res.State)
			assert.Error(t, res.Err)
			assert.Equal(t, 0, saver.count())
			assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}

func TestExport_SaveFailure(t *testing.T) {
	saver := &memorySaver{err: errors.New("disk full")}
	exp := NewExporter(saver)

	res := exp.ExportAndWait(context.Background(), &stripeRegion{w: 10, h: 10}, "x")
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorContains(t, res.Err, "disk full")
}

func TestExport_ReturnsBeforeCompletion(t *testing.T) {
	release := make(chan struct{})
	backend := &recordingBackend{Rasterizer: NewRasterizer()}
	exp := NewExporter(&memorySaver{},
		WithDocumentProviders(staticDocs{name: "slow", backend: backend, release: release}))

	results := exp.Export(context.Background(), &stripeRegion{w: 10, h: 10}, "slow")
	select {
	case <-results:
		t.Fatal("export completed before its backend was released")
	default:
	}

	close(release)
	select {
	case res := <-results:
		assert.Equal(t, StateDone, res.State)
	case <-time.After(5 * time.Second):
		t.Fatal("export did not complete")
	}

	_, open := <-results
	assert.False(t, open, "channel is closed after the result")
}

func TestExport_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saver := &memorySaver{}
	res := NewExporter(saver).ExportAndWait(ctx, &stripeRegion{w: 10, h: 10}, "x")
	assert.Equal(t, StateFailed, res.State)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, saver.count())
}

func TestExport_DistinctIDs(t *testing.T) {
	exp := NewExporter(&memorySaver{})
	a := exp.ExportAndWait(context.Background(), nil, "a")
	b := exp.ExportAndWait(context.Background(), nil, "b")
	assert.NotEmpty(t, a.ExportID)
	assert.NotEqual(t, a.ExportID, b.ExportID)
}

func TestWithExtension(t *testing.T) {
	tests := []struct {
		in, ext, want string
	}{
		{"report", ".pdf", "report.pdf"},
		{"report.pdf", ".pdf", "report.pdf"},
		{"Report.PDF", ".pdf", "Report.PDF"},
		{"fees.2024", ".pdf", "fees.2024.pdf"},
		{"report.pdf", ".png", "report.pdf.png"},
		{"", ".png", ".png"},
		{" fees ", ".pdf", " fees .pdf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, WithExtension(tt.in, tt.ext), "WithExtension(%q, %q)", tt.in, tt.ext)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "done_degraded", StateDoneDegraded.String())
	assert.Equal(t, "skipped", StateSkipped.String())
	assert.Equal(t, "state(42)", State(42).String())
}
