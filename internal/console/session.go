package console

import (
	"context"
	"strings"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/fanout"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// CreateSession asks the backend for a new session and makes it the active
// one, replacing any previous session and clearing LastError. An empty name
// or unknown type is ignored. On failure the state is left untouched.
func (c *Console) CreateSession(ctx context.Context, name string, sessionType models.SessionType) error {
	name = strings.TrimSpace(name)
	if name == "" || !sessionType.Valid() {
		return nil
	}

	session, err := c.backend.CreateSession(ctx, name, sessionType)
	if err != nil {
		c.logger.Error("create session failed", "name", name, "error", err)
		c.fail(err)
		return err
	}

	c.mu.Lock()
	c.state.session = session
	c.state.lastError = ""
	c.mu.Unlock()

	c.logger.Info("session created", "session_id", session.ID, "name", session.Name, "type", session.Type)
	return nil
}

// StartSession puts the active session live and then configures every
// registered agent for it. Agents that fail to configure produce a warning
// but the session stays started.
func (c *Console) StartSession(ctx context.Context) error {
	current := c.Session()
	if current == nil {
		return ErrNoSession
	}
	if !models.IsValidStatusTransition(current.Status, models.StatusLive) {
		return nil
	}

	session, err := c.backend.StartSession(ctx, current.ID)
	if err != nil {
		c.logger.Error("start session failed", "session_id", current.ID, "error", err)
		c.fail(err)
		return err
	}
	c.adopt(session)
	c.logger.Info("session started", "session_id", session.ID)

	report := fanout.Run(ctx, c.logger, "configure agents", c.registry.List(), func(ctx context.Context, agent models.CaptureAgent) error {
		return c.agents.Configure(ctx, agent.URL, session.ID, agent.ChannelID)
	})
	return c.recordFanout(report)
}

// CompleteSession closes the active session.
func (c *Console) CompleteSession(ctx context.Context) error {
	current := c.Session()
	if current == nil {
		return ErrNoSession
	}
	if !models.IsValidStatusTransition(current.Status, models.StatusCompleted) {
		return nil
	}

	session, err := c.backend.CompleteSession(ctx, current.ID)
	if err != nil {
		c.logger.Error("complete session failed", "session_id", current.ID, "error", err)
		c.fail(err)
		return err
	}
	c.adopt(session)
	c.logger.Info("session completed", "session_id", session.ID)
	return nil
}

// ClearSession forgets the active session locally.
func (c *Console) ClearSession() {
	c.mu.Lock()
	c.state.session = nil
	c.mu.Unlock()
}

// adopt makes the backend's copy of the session the active one. Concurrent
// callers race; the last one wins.
func (c *Console) adopt(session *models.Session) {
	c.mu.Lock()
	c.state.session = session
	c.mu.Unlock()
}
