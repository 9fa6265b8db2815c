package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

type addAgentRequest struct {
	URL       string `json:"url"`
	ChannelID string `json:"channel_id"`
}

func (h *Handlers) ListAgentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.console.Agents())
}

// AddAgentHandler registers an agent; it does not contact it.
func (h *Handlers) AddAgentHandler(w http.ResponseWriter, r *http.Request) {
	var req addAgentRequest
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	agent, ok := h.console.AddAgent(req.URL, req.ChannelID)
	if !ok {
		http.Error(w, "url and channel_id are required", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *Handlers) RemoveAgentHandler(w http.ResponseWriter, r *http.Request) {
	h.console.RemoveAgent(mux.Vars(r)["agent_id"])
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) AgentStatusHandler(w http.ResponseWriter, r *http.Request) {
	status, err := h.console.AgentStatus(r.Context(), mux.Vars(r)["agent_id"])
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
