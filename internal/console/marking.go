package console

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/fanout"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

var idCharset = append(append([]rune{}, lo.LowerCaseLettersCharset...), lo.NumbersCharset...)

func newPlayID(now time.Time) string {
	return fmt.Sprintf("play-%d-%s", now.UnixMilli(), lo.RandomString(6, idCharset))
}

func newQuickID(now time.Time) string {
	return fmt.Sprintf("quick-%d-%s", now.UnixMilli(), lo.RandomString(6, idCharset))
}

// MarkState returns the mark in progress.
func (c *Console) MarkState() models.MarkState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.mark
}

// Tag returns the play tag being built.
func (c *Console) Tag() models.PlayTag {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.tag
}

// StartMark opens a new play and tells every agent to begin a ghost clip.
// It does nothing while a mark is already in progress. The mark is visible
// in the state before any agent is contacted; the call returns once every
// agent has answered.
func (c *Console) StartMark(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state.mark.IsMarking {
		c.mu.Unlock()
		return "", nil
	}
	now := c.now()
	playID := newPlayID(now)
	c.state.mark = models.MarkState{PlayID: &playID, MarkInTime: &now, IsMarking: true}
	c.state.tag = models.PlayTag{}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	c.logger.Info("mark in", "play_id", playID)

	report := fanout.Run(ctx, c.logger, "mark in", c.registry.List(), func(ctx context.Context, agent models.CaptureAgent) error {
		return c.agents.StartGhostClip(ctx, agent.URL, playID)
	})
	err := c.recordFanout(report)

	c.publish(ctx, models.PlayEvent{
		Action:    models.ActionMarkIn,
		PlayID:    playID,
		SessionID: sessionID,
		Agents:    report.Total(),
		Failed:    len(report.Failures()),
		TimeStamp: now,
	})
	return playID, err
}

// EndMark closes the play in progress with the accumulated tag, overridden
// field by field by extra. The console is idle again before any agent is
// contacted. It does nothing when no mark is in progress.
func (c *Console) EndMark(ctx context.Context, extra models.PlayTag) (string, error) {
	c.mu.Lock()
	if !c.state.mark.IsMarking {
		c.mu.Unlock()
		return "", nil
	}
	playID := *c.state.mark.PlayID
	markIn := *c.state.mark.MarkInTime
	tags := c.state.tag.Merge(extra)
	c.state.mark = models.MarkState{}
	c.state.tag = models.PlayTag{}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	markOut := c.now()
	c.logger.Info("mark out", "play_id", playID, "duration", markOut.Sub(markIn), "play_type", tags.PlayType, "result", tags.Result)

	report := fanout.Run(ctx, c.logger, "mark out", c.registry.List(), func(ctx context.Context, agent models.CaptureAgent) error {
		return c.agents.EndGhostClip(ctx, agent.URL, playID, tags)
	})
	err := c.recordFanout(report)

	c.publish(ctx, models.PlayEvent{
		Action:    models.ActionMarkOut,
		PlayID:    playID,
		SessionID: sessionID,
		Tags:      &tags,
		Agents:    report.Total(),
		Failed:    len(report.Failures()),
		TimeStamp: markOut,
	})
	c.recordPlay(ctx, models.Play{
		PlayID:    playID,
		SessionID: sessionID,
		MarkIn:    markIn,
		MarkOut:   markOut,
		Tags:      tags,
	}, report)
	return playID, err
}

// CancelMark drops the mark in progress without telling the agents; their
// unfinished ghost clips expire on their own.
func (c *Console) CancelMark(ctx context.Context) {
	c.mu.Lock()
	if !c.state.mark.IsMarking {
		c.mu.Unlock()
		return
	}
	playID := *c.state.mark.PlayID
	c.state.mark = models.MarkState{}
	c.state.tag = models.PlayTag{}
	sessionID := c.sessionIDLocked()
	c.mu.Unlock()

	c.logger.Info("mark cancelled", "play_id", playID)
	c.publish(ctx, models.PlayEvent{
		Action:    models.ActionCancel,
		PlayID:    playID,
		SessionID: sessionID,
		TimeStamp: c.now(),
	})
}

func (c *Console) SetPlayType(playType string) {
	c.UpdateTag(models.PlayTag{PlayType: playType})
}

func (c *Console) SetResult(result string) {
	c.UpdateTag(models.PlayTag{Result: result})
}

func (c *Console) SetQuarter(quarter int) {
	c.UpdateTag(models.PlayTag{Quarter: &quarter})
}

func (c *Console) SetDown(down int) {
	c.UpdateTag(models.PlayTag{Down: &down})
}

func (c *Console) SetDistance(distance int) {
	c.UpdateTag(models.PlayTag{Distance: &distance})
}

func (c *Console) SetYardLine(yardLine int) {
	c.UpdateTag(models.PlayTag{YardLine: &yardLine})
}

// UpdateTag merges the set fields of tag into the play tag being built.
func (c *Console) UpdateTag(tag models.PlayTag) {
	c.mu.Lock()
	c.state.tag = c.state.tag.Merge(tag)
	c.mu.Unlock()
}

// QuickClip asks every agent for the last seconds of video, regardless of
// any mark in progress. Without a playID each agent gets its own freshly
// generated request id.
func (c *Console) QuickClip(ctx context.Context, seconds int, playID string) error {
	if seconds <= 0 {
		seconds = c.quickClipSeconds
	}
	now := c.now()
	agents := c.registry.List()

	ids := make(map[string]string, len(agents))
	for _, agent := range agents {
		ids[agent.ID] = playID
		if playID == "" {
			ids[agent.ID] = newQuickID(now)
		}
	}

	report := fanout.Run(ctx, c.logger, "quick clip", agents, func(ctx context.Context, agent models.CaptureAgent) error {
		return c.agents.QuickClip(ctx, agent.URL, seconds, ids[agent.ID])
	})
	err := c.recordFanout(report)

	var agentPlayIDs map[string]string
	if playID == "" {
		agentPlayIDs = ids
	}

	c.publish(ctx, models.PlayEvent{
		Action:          models.ActionQuickClip,
		PlayID:          playID,
		AgentPlayIDs:    agentPlayIDs,
		SessionID:       c.sessionID(),
		DurationSeconds: seconds,
		Agents:          report.Total(),
		Failed:          len(report.Failures()),
		TimeStamp:       now,
	})
	return err
}

// GenerateClip asks every agent to cut the interval [start, end] under a
// new play id. An empty or inverted interval is ignored.
func (c *Console) GenerateClip(ctx context.Context, start, end time.Time) (string, error) {
	if !end.After(start) {
		return "", nil
	}
	playID := newPlayID(c.now())

	report := fanout.Run(ctx, c.logger, "generate clip", c.registry.List(), func(ctx context.Context, agent models.CaptureAgent) error {
		return c.agents.GenerateClip(ctx, agent.URL, start.UnixMilli(), end.UnixMilli(), playID)
	})
	err := c.recordFanout(report)

	c.publish(ctx, models.PlayEvent{
		Action:          models.ActionRangeClip,
		PlayID:          playID,
		SessionID:       c.sessionID(),
		DurationSeconds: int(end.Sub(start).Seconds()),
		Agents:          report.Total(),
		Failed:          len(report.Failures()),
		TimeStamp:       c.now(),
	})
	return playID, err
}

func (c *Console) sessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionIDLocked()
}

func (c *Console) sessionIDLocked() string {
	if c.state.session == nil {
		return ""
	}
	return c.state.session.ID
}
