package api

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/adfharrison1/go-campus/pkg/snapshot"
)

// HandleSnapshot handles GET requests exporting the current page of a dataset
// (or, with all=true, its whole filtered view) as a paginated document.
// orientation, paper and margin (millimetres) override the configured page setup.
//
// A document is sent as a download. When only the raster fallback is available
// the PNG is sent inline for the browser to show. When nothing is available
// the response is 501 carrying the unsupported notice.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var exportOpts []snapshot.ExportOption
	if raw := query.Get("orientation"); raw != "" {
		orientation, err := snapshot.ParseOrientation(raw)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		exportOpts = append(exportOpts, snapshot.WithOrientation(orientation))
	}
	if raw := query.Get("paper"); raw != "" {
		paper, err := snapshot.ParsePaper(raw)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		exportOpts = append(exportOpts, snapshot.WithPaper(paper))
	}
	if raw := query.Get("margin"); raw != "" {
		margin, err := strconv.ParseFloat(raw, 64)
		if err != nil || margin < 0 {
			WriteJSONError(w, http.StatusBadRequest, "invalid margin "+strconv.Quote(raw))
			return
		}
		exportOpts = append(exportOpts, snapshot.WithMargin(margin))
	}
	all := false
	if raw := query.Get("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			WriteJSONError(w, http.StatusBadRequest, "invalid all "+strconv.Quote(raw))
			return
		}
		all = v
	}

	module, ok := h.openModule(w, r)
	if !ok {
		return
	}

	sink := &responseSink{}
	options := append([]snapshot.Option{snapshot.WithLogger(h.logger)}, h.snapshots...)
	options = append(options, snapshot.WithViewer(sink), snapshot.WithNotifier(sink))
	exporter := snapshot.NewExporter(sink, options...)

	region := module.Region(all)
	res := exporter.ExportAndWait(r.Context(), region, module.Name+"_snapshot", exportOpts...)

	artifact, disposition, notice := sink.result()
	switch {
	case res.State == snapshot.StateDone || res.State == snapshot.StateDoneDegraded:
		w.Header().Set("X-Snapshot-State", res.State.String())
		w.Header().Set("X-Snapshot-Pages", strconv.Itoa(res.Pages))
		writeArtifact(w, *artifact, disposition)
	case notice != "":
		WriteJSONError(w, http.StatusNotImplemented, notice)
	default:
		h.logger.Error("snapshot request failed",
			zap.String("dataset", module.Name),
			zap.String("export_id", res.ExportID),
			zap.Stringer("state", res.State),
			zap.Error(res.Err))
		status, message := http.StatusInternalServerError, "snapshot export failed"
		if res.Err != nil {
			message = res.Err.Error()
		}
		if errors.Is(res.Err, snapshot.ErrInvalidLayout) {
			status = http.StatusBadRequest
		}
		WriteJSONError(w, status, message)
	}
}
