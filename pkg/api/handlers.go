package api

import (
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/indexing"
	"github.com/adfharrison1/go-campus/pkg/snapshot"
	"github.com/adfharrison1/go-campus/pkg/storage"
)

// DatasetDescriber is implemented by sources that can describe a dataset
// without decoding it, such as *storage.Catalog.
type DatasetDescriber interface {
	Info(name string) (storage.CollectionInfo, bool)
}

// ReloadNotifier is implemented by sources whose contents can change under
// the handler, such as *storage.Catalog.
type ReloadNotifier interface {
	OnReload(fn func())
}

// Handler handles HTTP requests for the portal
type Handler struct {
	portal    *campus.Portal
	indexer   *indexing.IndexEngine
	describer DatasetDescriber
	reloads   ReloadNotifier
	sessions  domain.SessionResolver
	snapshots []snapshot.Option
	logger    *zap.Logger
	validate  *validator.Validate
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithIndexEngine sets the index engine backing facet queries
func WithIndexEngine(indexer *indexing.IndexEngine) HandlerOption {
	return func(h *Handler) {
		if indexer != nil {
			h.indexer = indexer
		}
	}
}

// WithDescriber sets where dataset listings take their metadata from
func WithDescriber(d DatasetDescriber) HandlerOption {
	return func(h *Handler) {
		h.describer = d
	}
}

// WithReloadNotifier drops cached facet indexes whenever n reloads
func WithReloadNotifier(n ReloadNotifier) HandlerOption {
	return func(h *Handler) {
		h.reloads = n
	}
}

// WithSessionResolver sets where request identities come from. The default
// reads the identity the session middleware stored on the request context.
func WithSessionResolver(sessions domain.SessionResolver) HandlerOption {
	return func(h *Handler) {
		if sessions != nil {
			h.sessions = sessions
		}
	}
}

// WithSnapshotOptions sets the options every snapshot exporter is built with.
// Savers, viewers and notifiers are always replaced by the HTTP response.
func WithSnapshotOptions(opts ...snapshot.Option) HandlerOption {
	return func(h *Handler) {
		h.snapshots = append(h.snapshots, opts...)
	}
}

// WithLogger sets the handler's logger
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a new API handler
func NewHandler(portal *campus.Portal, options ...HandlerOption) *Handler {
	h := &Handler{
		portal:   portal,
		indexer:  indexing.NewIndexEngine(),
		sessions: HeaderSession{},
		logger:   zap.NewNop(),
		validate: validator.New(),
	}
	for _, option := range options {
		option(h)
	}
	if h.reloads != nil {
		h.reloads.OnReload(h.indexer.Reset)
	}
	return h
}
