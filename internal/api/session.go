package api

import (
	"net/http"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

type createSessionRequest struct {
	Name string             `json:"name"`
	Type models.SessionType `json:"type"`
}

// CreateSessionHandler creates a backend session and makes it active.
func (h *Handlers) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.console.CreateSession(r.Context(), req.Name, req.Type); err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.console.Snapshot())
}

func (h *Handlers) ClearSessionHandler(w http.ResponseWriter, r *http.Request) {
	h.console.ClearSession()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	h.respondAction(w, "", h.console.StartSession(r.Context()))
}

func (h *Handlers) CompleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	h.respondAction(w, "", h.console.CompleteSession(r.Context()))
}

// SessionClipsHandler lists clips of ?session_id, defaulting to the active
// session.
func (h *Handlers) SessionClipsHandler(w http.ResponseWriter, r *http.Request) {
	clips, err := h.console.SessionClips(r.Context(), r.URL.Query().Get("session_id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": clips})
}

func (h *Handlers) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console.Snapshot())
}

func (h *Handlers) DismissErrorHandler(w http.ResponseWriter, r *http.Request) {
	h.console.DismissError()
	w.WriteHeader(http.StatusNoContent)
}
