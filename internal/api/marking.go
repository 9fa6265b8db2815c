package api

import (
	"net/http"
	"time"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

type quickClipRequest struct {
	DurationSeconds int    `json:"duration_seconds"`
	PlayID          string `json:"play_id"`
}

// clipRequest is an interval in unix milliseconds.
type clipRequest struct {
	StartTime int64 `json:"start_time"`
	EndTime   int64 `json:"end_time"`
}

func (h *Handlers) MarkInHandler(w http.ResponseWriter, r *http.Request) {
	playID, err := h.console.StartMark(r.Context())
	h.respondAction(w, playID, err)
}

// MarkOutHandler closes the mark. An optional PlayTag body overrides the
// accumulated tag.
func (h *Handlers) MarkOutHandler(w http.ResponseWriter, r *http.Request) {
	var extra models.PlayTag
	if err := decodeBody(r, &extra); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	playID, err := h.console.EndMark(r.Context(), extra)
	h.respondAction(w, playID, err)
}

func (h *Handlers) CancelMarkHandler(w http.ResponseWriter, r *http.Request) {
	h.console.CancelMark(r.Context())
	h.respondAction(w, "", nil)
}

func (h *Handlers) UpdateTagHandler(w http.ResponseWriter, r *http.Request) {
	var tag models.PlayTag
	if err := decodeBody(r, &tag); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.console.UpdateTag(tag)
	writeJSON(w, http.StatusOK, h.console.Tag())
}

func (h *Handlers) QuickClipHandler(w http.ResponseWriter, r *http.Request) {
	var req quickClipRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	h.respondAction(w, req.PlayID, h.console.QuickClip(r.Context(), req.DurationSeconds, req.PlayID))
}

func (h *Handlers) GenerateClipHandler(w http.ResponseWriter, r *http.Request) {
	var req clipRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	playID, err := h.console.GenerateClip(r.Context(), time.UnixMilli(req.StartTime), time.UnixMilli(req.EndTime))
	h.respondAction(w, playID, err)
}
