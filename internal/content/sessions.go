package content

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/causaview/causaview/internal/httputil"
	"github.com/causaview/causaview/internal/languages"
	"github.com/causaview/causaview/internal/viewer"
)

type createSessionRequest struct {
	Language string `json:"language"`
	Video    string `json:"video"`
	Causal   bool   `json:"causal"`
}

type sessionResponse struct {
	ID       string          `json:"id"`
	Snapshot viewer.Snapshot `json:"snapshot"`
	Warnings []string        `json:"warnings,omitempty"`
}

func viewerSessionFor(view *viewResponse, strict bool) (*viewer.Session, error) {
	return viewer.NewSession(view.Segments, view.Labels(), view.Edges, view.CausalEnabled, strict)
}

// CreateSession resolves a content variant and opens a server-side viewer
// session for it: the command sink clients drive with click/timeupdate/
// seeked events.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !languages.IsCorpusLanguage(req.Language) {
		httputil.WriteError(w, http.StatusNotFound, "unknown language")
		return
	}

	it, err := h.lookupItem(r.Context(), req.Language, req.Video)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to load content")
		return
	}
	if it == nil {
		httputil.WriteError(w, http.StatusNotFound, "content not found")
		return
	}
	if !h.unlocked(r, it) {
		httputil.WriteError(w, http.StatusForbidden, "password required")
		return
	}

	view, status, msg := h.resolveView(r, it, req.Causal)
	if view == nil {
		httputil.WriteError(w, status, msg)
		return
	}

	session, err := viewerSessionFor(view, h.strictRender)
	if err != nil {
		// resolveView already dropped inconsistent causal data, so this
		// only fires on a broken transcript contract.
		httputil.WriteError(w, http.StatusBadGateway, "content feeds are inconsistent")
		return
	}

	id, err := h.sessions.Add(session)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, sessionResponse{
		ID:       id,
		Snapshot: session.Snapshot(),
		Warnings: view.Warnings,
	})
}

type sessionEventRequest struct {
	Type    string   `json:"type"`
	Index   *int     `json:"index,omitempty"`
	Seconds *float64 `json:"seconds,omitempty"`
}

// SessionEvent applies one viewer event and returns the resulting
// snapshot, including the seek-and-play command when a click produced one.
func (h *Handler) SessionEvent(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return
	}

	var req sessionEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var event viewer.Event
	switch req.Type {
	case "click":
		if req.Index == nil {
			httputil.WriteError(w, http.StatusBadRequest, "click event requires index")
			return
		}
		event = viewer.SegmentClicked{Index: *req.Index}
	case "timeupdate":
		if req.Seconds == nil {
			httputil.WriteError(w, http.StatusBadRequest, "timeupdate event requires seconds")
			return
		}
		event = viewer.TimeUpdated{Seconds: *req.Seconds}
	case "seeked":
		if req.Seconds == nil {
			httputil.WriteError(w, http.StatusBadRequest, "seeked event requires seconds")
			return
		}
		event = viewer.SeekCompleted{Seconds: *req.Seconds}
	default:
		httputil.WriteError(w, http.StatusBadRequest, "unknown event type")
		return
	}

	snapshot, err := session.Apply(event)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// GetSession returns the current snapshot without applying an event.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "session not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session.Snapshot())
}
