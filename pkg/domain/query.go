package domain

// QueryState is the per-module UI state driving the tabular engine.
// It lives only as long as the module that owns it.
type QueryState struct {
	FreeText string                 `json:"q"`
	Filters  map[string]interface{} `json:"filters,omitempty"`
	Page     int                    `json:"page"`
	PageSize int                    `json:"page_size"`
}

// NewQueryState returns the mount-time defaults for a module with the given page size.
func NewQueryState(pageSize int) QueryState {
	return QueryState{
		Filters:  make(map[string]interface{}),
		Page:     1,
		PageSize: pageSize,
	}
}

// WithFilter returns a copy of q with field constrained to value.
// The receiver's filter map is never modified.
func (q QueryState) WithFilter(field string, value interface{}) QueryState {
	filters := make(map[string]interface{}, len(q.Filters)+1)
	for k, v := range q.Filters {
		filters[k] = v
	}
	filters[field] = value
	q.Filters = filters
	return q
}
