package console

import (
	"context"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/fanout"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// publish and recordPlay outlive the caller's ctx so that an abandoned
// request still leaves its play on record.
func (c *Console) publish(ctx context.Context, event models.PlayEvent) {
	if c.publisher == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := c.publisher.PublishPlay(ctx, event); err != nil {
		c.logger.Warn("publish play event failed", "action", event.Action, "play_id", event.PlayID, "error", err)
	}
}

func (c *Console) recordPlay(ctx context.Context, play models.Play, report fanout.Report) {
	if c.journal == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := c.journal.RecordPlay(ctx, play, report.Results()); err != nil {
		c.logger.Warn("journal play failed", "play_id", play.PlayID, "error", err)
	}
}

// archive copies a ready clip to the archiver in the background.
func (c *Console) archive(ctx context.Context, clip models.Clip) {
	if c.archiver == nil {
		return
	}

	c.archives.Add(1)
	go func() {
		defer c.archives.Done()

		body, size, err := c.backend.Download(ctx, clip.ID)
		if err != nil {
			c.logger.Warn("clip download failed", "clip_id", clip.ID, "error", err)
			return
		}
		defer body.Close()

		location, err := c.archiver.ArchiveClip(ctx, clip, body, size)
		if err != nil {
			c.logger.Warn("clip archive failed", "clip_id", clip.ID, "error", err)
			return
		}
		c.logger.Info("clip archived", "clip_id", clip.ID, "location", location)
	}()
}
