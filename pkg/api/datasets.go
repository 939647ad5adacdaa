package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/storage"
)

// DatasetSummary is one entry of the dataset listing.
type DatasetSummary struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Columns     []string `json:"columns,omitempty"`
	RecordCount int64    `json:"record_count"`
	Loaded      bool     `json:"loaded"`
}

// HandleListDatasets handles GET requests listing the datasets the caller may open
func (h *Handler) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity(r)
	if err != nil {
		WriteJSONError(w, StatusFor(err), err.Error())
		return
	}

	names, err := h.portal.Datasets(id)
	if err != nil {
		h.logger.Warn("dataset listing refused", zap.String("role", id.Role), zap.Error(err))
		WriteJSONError(w, StatusFor(err), err.Error())
		return
	}

	summaries := make([]DatasetSummary, 0, len(names))
	for _, name := range names {
		summary := DatasetSummary{Name: name}
		if h.describer != nil {
			if info, ok := h.describer.Info(name); ok {
				summary.Title = info.Title
				summary.Columns = info.Columns
				summary.RecordCount = info.RecordCount
				summary.Loaded = info.State == storage.CollectionStateLoaded
			}
		}
		summaries = append(summaries, summary)
	}

	response := map[string]interface{}{
		"success":  true,
		"role":     id.Role,
		"datasets": summaries,
		"count":    len(summaries),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
