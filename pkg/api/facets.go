package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandleFacet handles GET requests for the distinct values of a dataset field.
// The values feed category selectors; an empty facet means the field is unknown.
func (h *Handler) HandleFacet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name, field := vars["name"], vars["field"]

	id, err := h.identity(r)
	if err != nil {
		WriteJSONError(w, StatusFor(err), err.Error())
		return
	}

	collection, err := h.portal.Collection(id, name)
	if err != nil {
		h.logger.Warn("facet refused", zap.String("dataset", name), zap.Error(err))
		WriteJSONError(w, StatusFor(err), err.Error())
		return
	}

	facet := h.indexer.Facet(collection, field)

	h.logger.Debug("facet served",
		zap.String("dataset", name),
		zap.String("field", field),
		zap.Int("values", len(facet.Values)))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(facet)
}
