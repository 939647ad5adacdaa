// Package table implements the tabular data engine shared by every portal
// module: free-text and structured filtering, page windows and delimited export.
package table

import (
	"bytes"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/adfharrison1/go-campus/pkg/domain"
)

// CSVContentType is the media type of exported artifacts.
const CSVContentType = "text/csv; charset=utf-8"

// timestampLayout names artifacts exported without a tab name.
const timestampLayout = "20060102-150405"

// Options configures an Engine.
type Options struct {
	Delimiter rune
	Columns   []string
	Now       func() time.Time
}

// Option is a function that configures Options
type Option func(*Options)

// DefaultOptions returns default engine options
func DefaultOptions() *Options {
	return &Options{
		Delimiter: DefaultDelimiter,
		Now:       time.Now,
	}
}

// WithDelimiter sets the field separator used by exports
func WithDelimiter(r rune) Option {
	return func(opts *Options) {
		opts.Delimiter = r
	}
}

// WithColumns fixes the exported header instead of taking it from the first row
func WithColumns(columns ...string) Option {
	return func(opts *Options) {
		opts.Columns = append([]string(nil), columns...)
	}
}

// WithClock sets the clock used to timestamp export filenames
func WithClock(now func() time.Time) Option {
	return func(opts *Options) {
		if now != nil {
			opts.Now = now
		}
	}
}

// Engine binds the filter, paginate and serialize operations to one module's
// page size and export settings. It holds no query state of its own.
type Engine[R domain.Row] struct {
	pageSize  int
	delimiter rune
	columns   []string
	now       func() time.Time
}

// New creates an engine. It panics when pageSize is not positive.
func New[R domain.Row](pageSize int, opts ...Option) *Engine[R] {
	mustPageSize(pageSize)

	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Engine[R]{
		pageSize:  pageSize,
		delimiter: validDelimiter(options.Delimiter),
		columns:   options.Columns,
		now:       options.Now,
	}
}

// PageSize returns the fixed page size of the engine.
func (e *Engine[R]) PageSize() int {
	return e.pageSize
}

// View returns the filtered view of rows for q.
func (e *Engine[R]) View(rows []R, q domain.QueryState) []R {
	return Filter(rows, q)
}

// Window returns the page of the filtered view selected by q.Page.
func (e *Engine[R]) Window(rows []R, q domain.QueryState) domain.PageWindow[R] {
	return Paginate(Filter(rows, q), q.Page, e.pageSize)
}

// Serialize renders an already filtered view as delimited text.
func (e *Engine[R]) Serialize(view []R) string {
	var buf bytes.Buffer
	_ = WriteDelimited(&buf, view, e.delimiter, e.columns)
	return buf.String()
}

// Export serializes the whole filtered view, not only the current page, into
// an artifact named <entity>_<tab>.csv, or <entity>_<timestamp>.csv when tab is empty.
func (e *Engine[R]) Export(rows []R, q domain.QueryState, entity, tab string) domain.Artifact {
	return domain.Artifact{
		ID:          uuid.NewString(),
		Filename:    e.Filename(entity, tab),
		ContentType: CSVContentType,
		Data:        []byte(e.Serialize(Filter(rows, q))),
	}
}

// Filename builds the export filename for entity and tab.
func (e *Engine[R]) Filename(entity, tab string) string {
	suffix := sanitizeName(tab)
	if suffix == "" {
		suffix = e.now().Format(timestampLayout)
	}
	name := sanitizeName(entity)
	if name == "" {
		name = "Export"
	}
	return name + "_" + suffix + ".csv"
}

// sanitizeName keeps letters, digits, dashes and underscores; spaces become underscores.
func sanitizeName(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}
	return b.String()
}
