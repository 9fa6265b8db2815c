package models

import "time"

type PlayAction string

const (
	ActionMarkIn    PlayAction = "mark_in"
	ActionMarkOut   PlayAction = "mark_out"
	ActionCancel    PlayAction = "cancel"
	ActionQuickClip PlayAction = "quick_clip"
	ActionRangeClip PlayAction = "range_clip"
)

// PlayEvent is published for every operator marking action. A quick clip
// without a caller-supplied PlayID carries the id each agent was sent in
// AgentPlayIDs, keyed by agent id.
type PlayEvent struct {
	Action          PlayAction        `json:"action"`
	PlayID          string            `json:"play_id"`
	AgentPlayIDs    map[string]string `json:"agent_play_ids,omitempty"`
	SessionID       string            `json:"session_id,omitempty"`
	Tags            *PlayTag          `json:"tags,omitempty"`
	DurationSeconds int               `json:"duration_seconds,omitempty"`
	Agents          int               `json:"agents"`
	Failed          int               `json:"failed"`
	TimeStamp       time.Time         `json:"timestamp"`
}

// Play is a completed mark-in/mark-out interval as journaled.
type Play struct {
	PlayID    string    `json:"play_id"`
	SessionID string    `json:"session_id"`
	MarkIn    time.Time `json:"mark_in"`
	MarkOut   time.Time `json:"mark_out"`
	Tags      PlayTag   `json:"tags"`
}

// AgentResult is how one agent answered one command.
type AgentResult struct {
	AgentID   string `json:"agent_id"`
	ChannelID string `json:"channel_id"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}
