package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/heimdex/heimdex-clipper/internal/session"
	"github.com/heimdex/heimdex-clipper/internal/timeline"
)

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// editorFor resolves the {id} session or writes the error response.
func editorFor(cfg ServerConfig, w http.ResponseWriter, r *http.Request) (*session.Editor, bool) {
	ed, err := cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, cfg.Logger, err)
		return nil, false
	}
	return ed, true
}

func writeSession(w http.ResponseWriter, status int, st session.State) {
	WriteJSON(w, status, SessionToResponse(st))
}

func listSessionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := cfg.Sessions.List()
		resp := SessionsResponse{Sessions: make([]SessionResponse, len(states))}
		for i, st := range states {
			resp.Sessions[i] = SessionToResponse(st)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func openSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OpenSessionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MediaID == "" {
			WriteError(w, http.StatusBadRequest, "media_id is required", "BAD_REQUEST")
			return
		}

		m, err := cfg.CatalogService.EditableMedia(r.Context(), req.MediaID)
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}

		ed, err := cfg.Sessions.Open(m.ID, m.Duration, m.FrameCount)
		if err != nil {
			WriteError(w, http.StatusUnprocessableEntity, err.Error(), "INVALID_TIMELINE")
			return
		}
		writeSession(w, http.StatusCreated, ed.Snapshot())
	}
}

func getSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}
		writeSession(w, http.StatusOK, ed.Snapshot())
	}
}

func closeSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Sessions.Close(chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func addSplitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req AddSplitRequest
		if r.ContentLength != 0 && !decodeBody(w, r, &req) {
			return
		}

		var (
			st  session.State
			err error
		)
		if req.Time != nil {
			st, err = ed.AddSplit(*req.Time)
		} else {
			st, err = ed.AddSplitAtPlayhead()
		}
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeSession(w, http.StatusCreated, st)
	}
}

func removeSplitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}
		st, err := ed.RemoveSplit(chi.URLParam(r, "splitID"))
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeSession(w, http.StatusOK, st)
	}
}

func resetSessionHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}
		writeSession(w, http.StatusOK, ed.Reset())
	}
}

func trimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req TrimRequest
		if !decodeBody(w, r, &req) {
			return
		}
		handle, err := timeline.ParseHandle(req.Handle)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}
		writeSession(w, http.StatusOK, ed.SetTrim(req.Start, req.End, handle))
	}
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req SeekRequest
		if !decodeBody(w, r, &req) {
			return
		}
		writeSession(w, http.StatusOK, ed.Seek(req.Time))
	}
}

func dragHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}

		var req DragRequest
		if !decodeBody(w, r, &req) {
			return
		}

		var (
			st  session.State
			err error
		)
		switch req.Action {
		case DragBegin:
			handle, perr := timeline.ParseHandle(req.Handle)
			if perr != nil {
				WriteError(w, http.StatusBadRequest, perr.Error(), "BAD_REQUEST")
				return
			}
			st, err = ed.BeginDrag(handle, req.Viewport)
		case DragMove:
			st, err = ed.MoveDrag(req.PointerX)
		case DragEnd:
			st = ed.EndDrag()
		default:
			WriteError(w, http.StatusBadRequest, "action must be begin, move or end", "BAD_REQUEST")
			return
		}
		if err != nil {
			writeDomainError(w, cfg.Logger, err)
			return
		}
		writeSession(w, http.StatusOK, st)
	}
}

func segmentsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}
		st := ed.Snapshot()
		WriteJSON(w, http.StatusOK, SegmentsResponse{
			SessionID: st.ID,
			Segments:  segmentsToResponse(st.Segments()),
		})
	}
}

func previewImageHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ed, ok := editorFor(cfg, w, r)
		if !ok {
			return
		}
		st := ed.Snapshot()
		if st.Preview == nil || st.Preview.URI == "" {
			WriteError(w, http.StatusNotFound, "no preview rendered", "NOT_FOUND")
			return
		}
		serveImage(w, r, st.Preview.URI)
	}
}
