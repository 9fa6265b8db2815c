package console

import (
	"context"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// LoadChannels refreshes the channel list from the backend.
func (c *Console) LoadChannels(ctx context.Context) ([]models.Channel, error) {
	channels, err := c.backend.ListChannels(ctx)
	if err != nil {
		c.logger.Error("load channels failed", "error", err)
		c.fail(err)
		return nil, err
	}

	c.mu.Lock()
	c.state.channels = channels
	c.mu.Unlock()
	return channels, nil
}

// ListClips queries the backend catalog. The recent clip ledger is not
// touched.
func (c *Console) ListClips(ctx context.Context, filter models.ClipFilter) ([]models.Clip, error) {
	clips, err := c.backend.ListClips(ctx, filter)
	if err != nil {
		c.logger.Error("list clips failed", "error", err)
		return nil, err
	}
	return clips, nil
}

// SessionClips lists the clips of sessionID, or of the active session when
// sessionID is empty.
func (c *Console) SessionClips(ctx context.Context, sessionID string) ([]models.Clip, error) {
	if sessionID == "" {
		sessionID = c.sessionID()
	}
	if sessionID == "" {
		return nil, ErrNoSession
	}
	return c.backend.SessionClips(ctx, sessionID)
}

func (c *Console) GetClip(ctx context.Context, clipID string) (*models.Clip, error) {
	return c.backend.GetClip(ctx, clipID)
}

// ToggleFavorite flips the favorite flag of a clip and refreshes its entry
// in the recent clips, if it is there.
func (c *Console) ToggleFavorite(ctx context.Context, clipID string) (*models.Clip, error) {
	clip, err := c.backend.ToggleFavorite(ctx, clipID)
	if err != nil {
		c.logger.Error("toggle favorite failed", "clip_id", clipID, "error", err)
		return nil, err
	}
	c.ledger.Replace(*clip)
	return clip, nil
}

func (c *Console) RecordWatch(ctx context.Context, clipID string) error {
	if err := c.backend.RecordWatch(ctx, clipID); err != nil {
		c.logger.Warn("record watch failed", "clip_id", clipID, "error", err)
		return err
	}
	return nil
}

// RecentClips returns the clips seen on the event feed, newest first.
func (c *Console) RecentClips() []models.Clip {
	return c.ledger.List()
}

// ClearClips empties the recent clips.
func (c *Console) ClearClips() {
	c.ledger.Clear()
}
