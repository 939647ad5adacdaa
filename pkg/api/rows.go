package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/campus"
	"github.com/adfharrison1/go-campus/pkg/domain"
)

// FilterParamPrefix marks query parameters that hold structured filters, as in f.status=Paid.
const FilterParamPrefix = "f."

// RowsResponse is one page of a dataset's filtered view.
type RowsResponse struct {
	Dataset string                           `json:"dataset"`
	Columns []string                         `json:"columns"`
	Query   domain.QueryState                `json:"query"`
	Window  domain.PageWindow[domain.Record] `json:"window"`
	Caption string                           `json:"caption"`
}

// parsePagination reads page and page_size, falling back to the defaults.
func (h *Handler) parsePagination(r *http.Request) (*domain.PaginationOptions, error) {
	opts := domain.DefaultPaginationOptions()
	opts.PageSize = h.portal.PageSize()

	query := r.URL.Query()
	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid page %q", raw)
		}
		opts.Page = page
	}
	if raw := query.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid page_size %q", raw)
		}
		opts.PageSize = size
	}

	if err := h.validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid pagination: %v", err)
	}
	return opts, nil
}

// openModule mounts the module named in the path and applies the request's
// search text, filters and page to it. On failure it has already written the
// error response.
func (h *Handler) openModule(w http.ResponseWriter, r *http.Request) (*campus.Module[domain.Record], bool) {
	name := mux.Vars(r)["name"]

	id, err := h.identity(r)
	if err != nil {
		WriteJSONError(w, StatusFor(err), err.Error())
		return nil, false
	}

	pagination, err := h.parsePagination(r)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	module, err := h.portal.Open(id, name, pagination.PageSize)
	if err != nil {
		h.logger.Warn("failed to open dataset",
			zap.String("dataset", name),
			zap.String("user_id", id.UserID),
			zap.Error(err))
		WriteJSONError(w, StatusFor(err), err.Error())
		return nil, false
	}

	query := r.URL.Query()
	for key, values := range query {
		if !strings.HasPrefix(key, FilterParamPrefix) || len(values) == 0 {
			continue
		}
		module.SetFilter(strings.TrimPrefix(key, FilterParamPrefix), values[0])
	}
	module.Search(query.Get("q"))
	module.SetPage(pagination.Page)
	return module, true
}

// HandleRows handles GET requests for one page of a dataset's filtered view
func (h *Handler) HandleRows(w http.ResponseWriter, r *http.Request) {
	module, ok := h.openModule(w, r)
	if !ok {
		return
	}

	window := module.Window()
	response := RowsResponse{
		Dataset: module.Name,
		Columns: module.Columns,
		Query:   module.Query(),
		Window:  window,
		Caption: window.Caption(),
	}

	h.logger.Debug("rows served",
		zap.String("dataset", module.Name),
		zap.Int("page", window.Page),
		zap.Int("total", window.Total))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
