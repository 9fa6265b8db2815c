package console

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

// AddAgent registers a capture agent for channelID reachable at url. The
// agent is not contacted. Blank input is ignored and reported as false.
func (c *Console) AddAgent(url, channelID string) (models.CaptureAgent, bool) {
	url = strings.TrimRight(strings.TrimSpace(url), "/")
	channelID = strings.TrimSpace(channelID)
	if url == "" || channelID == "" {
		return models.CaptureAgent{}, false
	}

	agent := models.CaptureAgent{
		ID:        "agent-" + uuid.NewString(),
		ChannelID: channelID,
		URL:       url,
		Status:    models.AgentConnected,
	}
	c.registry.Add(agent)
	c.logger.Info("capture agent added", "agent_id", agent.ID, "channel_id", channelID, "url", url)
	return agent, true
}

// RemoveAgent unregisters the agent with id. Unknown ids are ignored.
func (c *Console) RemoveAgent(id string) {
	c.registry.Remove(id)
	c.logger.Info("capture agent removed", "agent_id", id)
}

func (c *Console) Agents() []models.CaptureAgent {
	return c.registry.List()
}

// AgentStatus probes one agent and returns whatever it reports. The
// registry is not updated.
func (c *Console) AgentStatus(ctx context.Context, id string) (map[string]any, error) {
	agent, ok := c.registry.Get(id)
	if !ok {
		return nil, ErrUnknownAgent
	}
	status, err := c.agents.Status(ctx, agent.URL)
	if err != nil {
		c.logger.Warn("agent status probe failed", "agent_id", id, "error", err)
		return nil, err
	}
	return status, nil
}
