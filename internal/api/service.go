// Package api exposes the console to a presentation layer over HTTP.
package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/console"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/fanout"
)

type Handlers struct {
	console *console.Console
	logger  *slog.Logger
}

func NewHandlers(c *console.Console, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{console: c, logger: logger}
}

// Router registers every handler under /api/v1 and wraps the result in CORS
// for allowedOrigins.
func (h *Handlers) Router(allowedOrigins []string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/state", h.GetStateHandler).Methods(http.MethodGet)
	v1.HandleFunc("/error", h.DismissErrorHandler).Methods(http.MethodDelete)

	v1.HandleFunc("/session", h.CreateSessionHandler).Methods(http.MethodPost)
	v1.HandleFunc("/session", h.ClearSessionHandler).Methods(http.MethodDelete)
	v1.HandleFunc("/session/start", h.StartSessionHandler).Methods(http.MethodPost)
	v1.HandleFunc("/session/complete", h.CompleteSessionHandler).Methods(http.MethodPost)
	v1.HandleFunc("/session/clips", h.SessionClipsHandler).Methods(http.MethodGet)

	v1.HandleFunc("/agents", h.ListAgentsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/agents", h.AddAgentHandler).Methods(http.MethodPost)
	v1.HandleFunc("/agents/{agent_id}", h.RemoveAgentHandler).Methods(http.MethodDelete)
	v1.HandleFunc("/agents/{agent_id}/status", h.AgentStatusHandler).Methods(http.MethodGet)

	v1.HandleFunc("/mark/in", h.MarkInHandler).Methods(http.MethodPost)
	v1.HandleFunc("/mark/out", h.MarkOutHandler).Methods(http.MethodPost)
	v1.HandleFunc("/mark/cancel", h.CancelMarkHandler).Methods(http.MethodPost)
	v1.HandleFunc("/tag", h.UpdateTagHandler).Methods(http.MethodPut)
	v1.HandleFunc("/clip/quick", h.QuickClipHandler).Methods(http.MethodPost)
	v1.HandleFunc("/clip", h.GenerateClipHandler).Methods(http.MethodPost)

	v1.HandleFunc("/channels", h.ListChannelsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/clips", h.ListClipsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/clips/recent", h.RecentClipsHandler).Methods(http.MethodGet)
	v1.HandleFunc("/clips/recent", h.ClearClipsHandler).Methods(http.MethodDelete)
	v1.HandleFunc("/clips/{clip_id}", h.GetClipHandler).Methods(http.MethodGet)
	v1.HandleFunc("/clips/{clip_id}/favorite", h.ToggleFavoriteHandler).Methods(http.MethodPost)
	v1.HandleFunc("/clips/{clip_id}/watch", h.RecordWatchHandler).Methods(http.MethodPost)

	return handlers.CORS(
		handlers.AllowedOrigins(allowedOrigins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(r)
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actionResponse is returned by every operator action. Warning carries a
// partial fan-out failure; the action itself still happened.
type actionResponse struct {
	PlayID  string           `json:"play_id,omitempty"`
	Warning string           `json:"warning,omitempty"`
	State   console.Snapshot `json:"state"`
}

func (h *Handlers) respondAction(w http.ResponseWriter, playID string, err error) {
	resp := actionResponse{PlayID: playID, State: h.console.Snapshot()}

	var partial *fanout.PartialError
	switch {
	case err == nil:
	case errors.As(err, &partial):
		resp.Warning = partial.Error()
	default:
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, console.ErrNoSession):
		status = http.StatusConflict
	case errors.Is(err, console.ErrUnknownAgent):
		status = http.StatusNotFound
	}
	h.logger.Warn("request failed", "status", status, "error", err)
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody reads an optional JSON body into v. An empty body is fine.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
