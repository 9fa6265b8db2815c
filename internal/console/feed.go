package console

import (
	"context"
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/events"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

var feedEvents = []models.EventType{
	models.EventClipCreated,
	models.EventClipReady,
	models.EventClipFailed,
	models.EventSessionStart,
	models.EventSessionEnd,
	models.EventClipSegmentReady,
}

// Subscribe registers the console on every event type of stream. Listeners
// only enqueue; Run applies the events. Enqueueing blocks while the queue is
// full so no event is lost.
func (c *Console) Subscribe(stream *events.Stream) []*events.Subscription {
	subs := make([]*events.Subscription, 0, len(feedEvents))
	for _, eventType := range feedEvents {
		subs = append(subs, stream.On(eventType, func(payload json.RawMessage) {
			c.Enqueue(models.Event{Type: eventType, Payload: payload})
		}))
	}
	return subs
}

// Enqueue hands an event to the feed loop. Once Run has returned the event
// is dropped instead of blocking the caller.
func (c *Console) Enqueue(event models.Event) {
	select {
	case c.events <- event:
	case <-c.done:
		c.logger.Debug("feed stopped, dropping event", "type", event.Type)
	}
}

// Run applies queued events until ctx is done, then waits for pending clip
// archives.
func (c *Console) Run(ctx context.Context) error {
	c.logger.Info("Feed: starting event loop")
	defer c.archives.Wait()
	defer c.stopOnce.Do(func() { close(c.done) })

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Feed: stopping event loop")
			return ctx.Err()
		case event := <-c.events:
			c.handle(ctx, event)
		}
	}
}

func (c *Console) handle(ctx context.Context, event models.Event) {
	switch event.Type {
	case models.EventClipCreated:
		if clip, ok := c.decodeClip(event); ok {
			c.ledger.Upsert(clip)
			c.logger.Debug("clip created", "clip_id", clip.ID, "play_id", clip.PlayID)
		}

	case models.EventClipReady:
		if clip, ok := c.decodeClip(event); ok {
			c.ledger.Upsert(clip)
			c.logger.Info("clip ready", "clip_id", clip.ID, "channel_id", clip.ChannelID, "play_id", clip.PlayID)
			c.archive(ctx, clip)
		}

	case models.EventClipFailed:
		var clip models.Clip
		if err := gojson.Unmarshal(event.Payload, &clip); err == nil && clip.ID != "" {
			c.ledger.Upsert(clip)
		}
		c.logger.Warn("clip failed", "payload", string(event.Payload))
		c.fail(fmt.Errorf("clip failed: %s", event.Payload))

	case models.EventSessionStart, models.EventSessionEnd:
		var session models.Session
		if err := gojson.Unmarshal(event.Payload, &session); err != nil {
			c.logger.Warn("malformed session event", "type", event.Type, "error", err)
			return
		}
		c.applySession(event.Type, session)

	case models.EventClipSegmentReady:
		var segment models.ClipSegmentReady
		if err := gojson.Unmarshal(event.Payload, &segment); err != nil {
			c.logger.Warn("malformed segment event", "error", err)
			return
		}
		c.mu.Lock()
		c.state.segments[segment.ChannelID] = segment
		c.mu.Unlock()

	default:
		c.logger.Debug("ignoring event", "type", event.Type)
	}
}

func (c *Console) decodeClip(event models.Event) (models.Clip, bool) {
	var clip models.Clip
	if err := gojson.Unmarshal(event.Payload, &clip); err != nil {
		c.logger.Warn("malformed clip event", "type", event.Type, "error", err)
		return models.Clip{}, false
	}
	if clip.ID == "" {
		c.logger.Warn("clip event without id", "type", event.Type)
		return models.Clip{}, false
	}
	return clip, true
}

// applySession replaces the active session with a backend-pushed copy. Pushes
// for other sessions, unknown statuses or backwards transitions are ignored.
func (c *Console) applySession(eventType models.EventType, pushed models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.session
	if current == nil || pushed.ID != current.ID {
		return
	}
	if !pushed.Status.Valid() {
		return
	}
	if pushed.Status != current.Status && !models.IsValidStatusTransition(current.Status, pushed.Status) {
		c.logger.Warn("ignoring session push", "type", eventType, "from", current.Status, "to", pushed.Status)
		return
	}

	session := *current
	session.Status = pushed.Status
	if pushed.Name != "" {
		session.Name = pushed.Name
	}
	if pushed.Opponent != "" {
		session.Opponent = pushed.Opponent
	}
	c.state.session = &session
	c.logger.Info("session updated by backend", "type", eventType, "session_id", session.ID, "status", session.Status)
}
