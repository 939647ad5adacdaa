// Package campus wires the tabular engine into the portal's feature modules
// and decides which of them a session may open.
package campus

import (
	"github.com/adfharrison1/go-campus/pkg/domain"
	"github.com/adfharrison1/go-campus/pkg/indexing"
	"github.com/adfharrison1/go-campus/pkg/render"
	"github.com/adfharrison1/go-campus/pkg/table"
)

// Module is one screen of the portal: a record set, the query state its
// inputs drive, and the engine that derives what is shown.
type Module[R domain.Row] struct {
	Name    string
	Entity  string
	Columns []string

	rows   []R
	engine *table.Engine[R]
	query  domain.QueryState
}

// NewModule mounts a module. It panics when pageSize is not positive.
func NewModule[R domain.Row](name, entity string, rows []R, pageSize int, opts ...table.Option) *Module[R] {
	return &Module[R]{
		Name:   name,
		Entity: entity,
		rows:   rows,
		engine: table.New[R](pageSize, opts...),
		query:  domain.NewQueryState(pageSize),
	}
}

// Query returns a copy of the current query state.
func (m *Module[R]) Query() domain.QueryState {
	q := m.query
	q.Filters = make(map[string]interface{}, len(m.query.Filters))
	for k, v := range m.query.Filters {
		q.Filters[k] = v
	}
	return q
}

// Rows returns the module's full record set.
func (m *Module[R]) Rows() []R {
	return m.rows
}

// Search sets the free-text query and goes back to the first page.
func (m *Module[R]) Search(text string) {
	m.query.FreeText = text
	m.query.Page = 1
}

// SetFilter constrains field to value and goes back to the first page.
// A nil or empty value is the "All" choice and removes the constraint.
func (m *Module[R]) SetFilter(field string, value interface{}) {
	if value == nil || value == "" {
		m.ClearFilter(field)
		return
	}
	m.query = m.query.WithFilter(field, value)
	m.query.Page = 1
}

// ClearFilter drops the constraint on field.
func (m *Module[R]) ClearFilter(field string) {
	if _, ok := m.query.Filters[field]; !ok {
		return
	}
	filters := make(map[string]interface{}, len(m.query.Filters))
	for k, v := range m.query.Filters {
		if k != field {
			filters[k] = v
		}
	}
	m.query.Filters = filters
	m.query.Page = 1
}

// SetPage records the requested page. Out-of-range pages are clamped when read.
func (m *Module[R]) SetPage(page int) {
	m.query.Page = page
}

// NextPage advances one page if there is one.
func (m *Module[R]) NextPage() {
	if w := m.Window(); w.HasNext {
		m.query.Page = w.Page + 1
	}
}

// PrevPage goes back one page if there is one.
func (m *Module[R]) PrevPage() {
	if w := m.Window(); w.HasPrev {
		m.query.Page = w.Page - 1
	}
}

// View is the filtered view for the current query.
func (m *Module[R]) View() []R {
	return m.engine.View(m.rows, m.query)
}

// Window is the page of the filtered view currently shown.
func (m *Module[R]) Window() domain.PageWindow[R] {
	return m.engine.Window(m.rows, m.query)
}

// ExportCSV exports the whole filtered view. tab names the file; empty uses a timestamp.
func (m *Module[R]) ExportCSV(tab string) domain.Artifact {
	return m.engine.Export(m.rows, m.query, m.Entity, tab)
}

// FilterOptions lists the values a category selector on field can offer,
// taken from the unfiltered record set.
func (m *Module[R]) FilterOptions(field string) domain.Facet {
	return indexing.FacetOf(field, m.rows)
}

// Region renders the current page as a snapshot region. When all is true the
// whole filtered view is rendered instead.
func (m *Module[R]) Region(all bool) *render.TableRegion {
	title := m.Entity
	if all {
		view := m.View()
		return render.NewTableRegion(title, m.Columns, view, table.Paginate(view, 1, max(1, len(view))).Caption())
	}
	return render.FromWindow(title, m.Columns, m.Window())
}
