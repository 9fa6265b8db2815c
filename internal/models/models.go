package models

import (
	"encoding/json"
	"time"
)

type SessionType string

const (
	SessionGame      SessionType = "game"
	SessionPractice  SessionType = "practice"
	SessionScrimmage SessionType = "scrimmage"
)

// Valid reports whether t is one of the known session types.
func (t SessionType) Valid() bool {
	switch t {
	case SessionGame, SessionPractice, SessionScrimmage:
		return true
	}
	return false
}

type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusLive      SessionStatus = "live"
	StatusPaused    SessionStatus = "paused"
	StatusCompleted SessionStatus = "completed"
)

// Session is the recording session the console works against.
type Session struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      SessionType   `json:"type"`
	Status    SessionStatus `json:"status"`
	Opponent  string        `json:"opponent,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

type ChannelStatus string

const (
	ChannelActive   ChannelStatus = "active"
	ChannelInactive ChannelStatus = "inactive"
	ChannelError    ChannelStatus = "error"
)

// Channel is a camera known to the backend catalog.
type Channel struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	HLSURL string        `json:"hls_url"`
	Status ChannelStatus `json:"status"`
}

type AgentStatus string

const (
	AgentConnected    AgentStatus = "connected"
	AgentDisconnected AgentStatus = "disconnected"
)

// CaptureAgent is one capture machine buffering a single channel.
type CaptureAgent struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channel_id"`
	URL       string      `json:"url"`
	Status    AgentStatus `json:"status"`
}

// MarkState is the console-wide in-progress mark. PlayID and MarkInTime are
// set exactly when IsMarking is true.
type MarkState struct {
	PlayID     *string    `json:"play_id"`
	MarkInTime *time.Time `json:"mark_in_time"`
	IsMarking  bool       `json:"is_marking"`
}

// PlayTag annotates the play being marked. Zero values mean "not set".
type PlayTag struct {
	PlayType string `json:"playType,omitempty"`
	Result   string `json:"result,omitempty"`
	Quarter  *int   `json:"quarter,omitempty"`
	Down     *int   `json:"down,omitempty"`
	Distance *int   `json:"distance,omitempty"`
	YardLine *int   `json:"yardLine,omitempty"`
}

// IsEmpty reports whether no field of the tag has been set.
func (t PlayTag) IsEmpty() bool {
	return t == PlayTag{}
}

// Merge returns t with every field set in over replacing the same field of t.
func (t PlayTag) Merge(over PlayTag) PlayTag {
	if over.PlayType != "" {
		t.PlayType = over.PlayType
	}
	if over.Result != "" {
		t.Result = over.Result
	}
	if over.Quarter != nil {
		t.Quarter = over.Quarter
	}
	if over.Down != nil {
		t.Down = over.Down
	}
	if over.Distance != nil {
		t.Distance = over.Distance
	}
	if over.YardLine != nil {
		t.YardLine = over.YardLine
	}
	return t
}

type ClipStatus string

const (
	ClipPending    ClipStatus = "pending"
	ClipProcessing ClipStatus = "processing"
	ClipReady      ClipStatus = "ready"
	ClipFailed     ClipStatus = "failed"
)

// Clip mirrors the backend's clip representation. The console never builds
// one itself.
type Clip struct {
	ID              string            `json:"id"`
	SessionID       string            `json:"session_id"`
	ChannelID       string            `json:"channel_id"`
	PlayID          string            `json:"play_id,omitempty"`
	Title           string            `json:"title,omitempty"`
	Status          ClipStatus        `json:"status"`
	FilePath        string            `json:"file_path,omitempty"`
	ThumbnailPath   string            `json:"thumbnail_path,omitempty"`
	DurationSeconds *float64          `json:"duration_seconds,omitempty"`
	FileSizeBytes   *int64            `json:"file_size_bytes,omitempty"`
	Format          string            `json:"format,omitempty"`
	Tags            map[string]any    `json:"tags"`
	IsFavorite      bool              `json:"is_favorite"`
	ViewCount       int               `json:"view_count"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ClipSegmentReady reports progress of a ghost clip being assembled on an
// agent.
type ClipSegmentReady struct {
	PlayID     string `json:"play_id"`
	ChannelID  string `json:"channel_id"`
	SegmentURL string `json:"segment_url"`
	Sequence   int    `json:"sequence"`
	Timestamp  int64  `json:"timestamp"`
	IsFinal    bool   `json:"is_final"`
}

type EventType string

const (
	EventClipCreated      EventType = "clip_created"
	EventClipReady        EventType = "clip_ready"
	EventClipFailed       EventType = "clip_failed"
	EventSessionStart     EventType = "session_start"
	EventSessionEnd       EventType = "session_end"
	EventClipSegmentReady EventType = "clip_segment_ready"
)

// Event is one frame of the backend event feed.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ClipFilter holds the optional query parameters of the clip listing.
type ClipFilter struct {
	SessionID string
	ChannelID string
	Status    ClipStatus
	Favorite  *bool
	Limit     int
	Offset    int
}
