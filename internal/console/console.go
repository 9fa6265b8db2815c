// Package console is the operator console core. A Console owns the single
// application state (active session, mark in progress, play tag, recent
// clips, last error) and coordinates the capture agents and the backend
// catalog on behalf of the operator.
//
// Marking transitions are optimistic: the local state commits before any
// agent is contacted. Every multi-agent command is a join-all fan-out; a
// failing agent turns into an aggregate warning in LastError and never
// blocks the workflow on the others.
package console

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/fanout"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/ledger"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/registry"
)

const (
	DefaultQuickClipSeconds = 15
	DefaultQueueSize        = 256
)

var (
	// ErrNoSession is returned by session operations when none is active.
	ErrNoSession = errors.New("no active session")
	// ErrUnknownAgent is returned when an agent id is not registered.
	ErrUnknownAgent = errors.New("unknown capture agent")
)

// Backend is the part of the clip catalog the console drives.
type Backend interface {
	CreateSession(ctx context.Context, name string, sessionType models.SessionType) (*models.Session, error)
	StartSession(ctx context.Context, sessionID string) (*models.Session, error)
	CompleteSession(ctx context.Context, sessionID string) (*models.Session, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)
	ListClips(ctx context.Context, filter models.ClipFilter) ([]models.Clip, error)
	SessionClips(ctx context.Context, sessionID string) ([]models.Clip, error)
	GetClip(ctx context.Context, clipID string) (*models.Clip, error)
	ToggleFavorite(ctx context.Context, clipID string) (*models.Clip, error)
	RecordWatch(ctx context.Context, clipID string) error
	Download(ctx context.Context, clipID string) (io.ReadCloser, int64, error)
}

// Agents sends commands to a single capture agent.
type Agents interface {
	Status(ctx context.Context, agentURL string) (map[string]any, error)
	Configure(ctx context.Context, agentURL, sessionID, channelID string) error
	StartGhostClip(ctx context.Context, agentURL, playID string) error
	EndGhostClip(ctx context.Context, agentURL, playID string, tags models.PlayTag) error
	QuickClip(ctx context.Context, agentURL string, durationSeconds int, playID string) error
	GenerateClip(ctx context.Context, agentURL string, startTime, endTime int64, playID string) error
}

// PlayPublisher announces marking actions to downstream consumers.
type PlayPublisher interface {
	PublishPlay(ctx context.Context, event models.PlayEvent) error
}

// PlayJournal records completed plays and how each agent answered.
type PlayJournal interface {
	RecordPlay(ctx context.Context, play models.Play, results []models.AgentResult) error
}

// ClipArchiver copies a ready clip's media somewhere durable.
type ClipArchiver interface {
	ArchiveClip(ctx context.Context, clip models.Clip, body io.Reader, size int64) (string, error)
}

type Options struct {
	Backend  Backend
	Agents   Agents
	Registry *registry.Registry
	Ledger   *ledger.Ledger

	// Optional sinks. Their failures are logged only.
	Publisher PlayPublisher
	Journal   PlayJournal
	Archiver  ClipArchiver

	QuickClipSeconds int
	QueueSize        int
	Logger           *slog.Logger
	Now              func() time.Time
}

type Console struct {
	backend   Backend
	agents    Agents
	registry  *registry.Registry
	ledger    *ledger.Ledger
	publisher PlayPublisher
	journal   PlayJournal
	archiver  ClipArchiver

	quickClipSeconds int
	logger           *slog.Logger
	now              func() time.Time

	events   chan models.Event
	done     chan struct{}
	stopOnce sync.Once
	archives sync.WaitGroup

	mu    sync.Mutex
	state state
}

type state struct {
	session    *models.Session
	mark       models.MarkState
	tag        models.PlayTag
	lastError  string
	lastFanout *fanout.Report
	channels   []models.Channel
	segments   map[string]models.ClipSegmentReady
}

func New(opts Options) *Console {
	reg := opts.Registry
	if reg == nil {
		reg = registry.New()
	}
	led := opts.Ledger
	if led == nil {
		led = ledger.New(ledger.DefaultLimit)
	}
	quick := opts.QuickClipSeconds
	if quick <= 0 {
		quick = DefaultQuickClipSeconds
	}
	queue := opts.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Console{
		backend:          opts.Backend,
		agents:           opts.Agents,
		registry:         reg,
		ledger:           led,
		publisher:        opts.Publisher,
		journal:          opts.Journal,
		archiver:         opts.Archiver,
		quickClipSeconds: quick,
		logger:           logger,
		now:              now,
		events:           make(chan models.Event, queue),
		done:             make(chan struct{}),
		state:            state{segments: make(map[string]models.ClipSegmentReady)},
	}
}

// Snapshot is a read-only copy of the console state for presentation.
type Snapshot struct {
	Session     *models.Session                    `json:"session"`
	Agents      []models.CaptureAgent              `json:"agents"`
	Mark        models.MarkState                   `json:"mark"`
	MarkElapsed time.Duration                      `json:"mark_elapsed"`
	Tag         models.PlayTag                     `json:"tag"`
	RecentClips []models.Clip                      `json:"recent_clips"`
	Channels    []models.Channel                   `json:"channels"`
	Segments    map[string]models.ClipSegmentReady `json:"segments"`
	LastError   string                             `json:"last_error,omitempty"`
	LastFanout  *fanout.Report                     `json:"last_fanout,omitempty"`
}

func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Mark:        c.state.mark,
		Tag:         c.state.tag,
		Agents:      c.registry.List(),
		RecentClips: c.ledger.List(),
		Channels:    append([]models.Channel(nil), c.state.channels...),
		Segments:    make(map[string]models.ClipSegmentReady, len(c.state.segments)),
		LastError:   c.state.lastError,
	}
	if c.state.session != nil {
		session := *c.state.session
		snap.Session = &session
	}
	if c.state.mark.IsMarking {
		snap.MarkElapsed = c.now().Sub(*c.state.mark.MarkInTime)
	}
	for channel, segment := range c.state.segments {
		snap.Segments[channel] = segment
	}
	if c.state.lastFanout != nil {
		report := *c.state.lastFanout
		snap.LastFanout = &report
	}
	return snap
}

// Session returns a copy of the active session, or nil.
func (c *Console) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.session == nil {
		return nil
	}
	session := *c.state.session
	return &session
}

// LastError is the operator-visible error, empty when there is none.
func (c *Console) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.lastError
}

// DismissError clears LastError.
func (c *Console) DismissError() {
	c.mu.Lock()
	c.state.lastError = ""
	c.mu.Unlock()
}

func (c *Console) fail(err error) {
	c.mu.Lock()
	c.state.lastError = err.Error()
	c.mu.Unlock()
}

// recordFanout keeps report for diagnostics and turns any agent failure
// into the aggregate warning.
func (c *Console) recordFanout(report fanout.Report) error {
	err := report.Err()

	c.mu.Lock()
	c.state.lastFanout = &report
	if err != nil {
		c.state.lastError = err.Error()
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("partial fan-out failure",
			"operation", report.Operation,
			"failed", len(report.Failures()),
			"total", report.Total(),
		)
	}
	return err
}
