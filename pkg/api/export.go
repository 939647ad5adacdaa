package api

import (
	"net/http"

	"go.uber.org/zap"
)

// HandleExportCSV handles GET requests exporting a dataset's whole filtered view as CSV.
// The optional tab parameter names the file.
func (h *Handler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	module, ok := h.openModule(w, r)
	if !ok {
		return
	}

	artifact := module.ExportCSV(r.URL.Query().Get("tab"))

	h.logger.Info("csv export",
		zap.String("dataset", module.Name),
		zap.String("export_id", artifact.ID),
		zap.String("filename", artifact.Filename),
		zap.Int("bytes", artifact.Size()))

	writeArtifact(w, artifact, dispositionAttachment)
}
