package api

import (
	"net/http"

	"github.com/heimdex/heimdex-clipper/internal/export"
)

// exportHandler queues the session's trim or split export. The session is
// discarded once the job is recorded.
func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req ExportRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}
		mode, err := export.ParseMode(req.Mode)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		st := ed.Snapshot()
		job, err := cfg.CatalogService.QueueExport(r.Context(), st, mode, req.OutputDir)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}

		if err := cfg.Sessions.Close(st.ID); err != nil {
			cfg.Logger.Warn("failed to close exported session", "session_id", st.ID, "error", err)
		}

		WriteJSON(w, http.StatusAccepted, ExportResponse{JobID: job.ID, Mode: string(mode)})
	}
}

// edlHandler writes an edit decision list of the session's segments. The
// session stays open.
func edlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req EDLRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}

		st := ed.Snapshot()
		out, err := cfg.CatalogService.WriteEDL(r.Context(), st, req.OutputDir)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}

		WriteJSON(w, http.StatusOK, EDLResponse{
			Status:     "ok",
			Format:     "edl",
			OutputPath: out,
			ClipCount:  len(st.Segments()),
		})
	}
}
