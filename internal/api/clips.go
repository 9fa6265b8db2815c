package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

func (h *Handlers) ListChannelsHandler(w http.ResponseWriter, r *http.Request) {
	channels, err := h.console.LoadChannels(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

// ListClipsHandler passes the catalog query parameters through.
func (h *Handlers) ListClipsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseClipFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	clips, err := h.console.ListClips(r.Context(), filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": clips})
}

func (h *Handlers) RecentClipsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"clips": h.console.RecentClips()})
}

func (h *Handlers) ClearClipsHandler(w http.ResponseWriter, r *http.Request) {
	h.console.ClearClips()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) GetClipHandler(w http.ResponseWriter, r *http.Request) {
	clip, err := h.console.GetClip(r.Context(), mux.Vars(r)["clip_id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

func (h *Handlers) ToggleFavoriteHandler(w http.ResponseWriter, r *http.Request) {
	clip, err := h.console.ToggleFavorite(r.Context(), mux.Vars(r)["clip_id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clip)
}

func (h *Handlers) RecordWatchHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.console.RecordWatch(r.Context(), mux.Vars(r)["clip_id"]); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func parseClipFilter(r *http.Request) (models.ClipFilter, error) {
	q := r.URL.Query()
	filter := models.ClipFilter{
		SessionID: q.Get("session_id"),
		ChannelID: q.Get("channel_id"),
		Status:    models.ClipStatus(q.Get("status")),
	}
	if v := q.Get("favorite"); v != "" {
		favorite, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		filter.Favorite = &favorite
	}
	var err error
	if filter.Limit, err = atoiOrZero(q.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Offset, err = atoiOrZero(q.Get("offset")); err != nil {
		return filter, err
	}
	return filter, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
