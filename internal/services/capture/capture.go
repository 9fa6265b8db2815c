// Package capture sends ghost-clip commands to capture agents.
package capture

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/command"
)

type Client struct {
	cmd *command.Client
}

func NewClient(cmd *command.Client) *Client {
	return &Client{cmd: cmd}
}

type configRequest struct {
	SessionID string `json:"session_id"`
	ChannelID string `json:"channel_id"`
}

type markInRequest struct {
	PlayID string `json:"play_id"`
}

type markOutRequest struct {
	PlayID       string         `json:"play_id"`
	GenerateClip bool           `json:"generate_clip"`
	Tags         models.PlayTag `json:"tags"`
}

type quickClipRequest struct {
	DurationSeconds int    `json:"duration_seconds"`
	PlayID          string `json:"play_id"`
}

type clipRequest struct {
	StartTime int64  `json:"start_time"`
	EndTime   int64  `json:"end_time"`
	PlayID    string `json:"play_id"`
}

// Status returns the agent's self-reported status document as-is.
func (c *Client) Status(ctx context.Context, agentURL string) (map[string]any, error) {
	status := map[string]any{}
	if err := c.cmd.Do(ctx, agentURL, "/api/v1/status", http.MethodGet, nil, &status); err != nil {
		return nil, fmt.Errorf("agent status: %w", err)
	}
	return status, nil
}

// Configure binds the agent to a session and the channel it records.
func (c *Client) Configure(ctx context.Context, agentURL, sessionID, channelID string) error {
	if err := c.send(ctx, agentURL, "/api/v1/config", configRequest{SessionID: sessionID, ChannelID: channelID}); err != nil {
		return fmt.Errorf("configure agent: %w", err)
	}
	return nil
}

// StartGhostClip marks the beginning of playID in the agent's buffer.
func (c *Client) StartGhostClip(ctx context.Context, agentURL, playID string) error {
	if err := c.send(ctx, agentURL, "/api/v1/mark/in", markInRequest{PlayID: playID}); err != nil {
		return fmt.Errorf("start ghost clip %s: %w", playID, err)
	}
	return nil
}

// EndGhostClip closes playID and asks the agent to cut the clip with tags.
func (c *Client) EndGhostClip(ctx context.Context, agentURL, playID string, tags models.PlayTag) error {
	req := markOutRequest{PlayID: playID, GenerateClip: true, Tags: tags}
	if err := c.send(ctx, agentURL, "/api/v1/mark/out", req); err != nil {
		return fmt.Errorf("end ghost clip %s: %w", playID, err)
	}
	return nil
}

// QuickClip extracts the last durationSeconds of buffered video.
func (c *Client) QuickClip(ctx context.Context, agentURL string, durationSeconds int, playID string) error {
	req := quickClipRequest{DurationSeconds: durationSeconds, PlayID: playID}
	if err := c.send(ctx, agentURL, "/api/v1/clip/quick", req); err != nil {
		return fmt.Errorf("quick clip %s: %w", playID, err)
	}
	return nil
}

// GenerateClip cuts an explicit interval given in unix milliseconds.
func (c *Client) GenerateClip(ctx context.Context, agentURL string, startTime, endTime int64, playID string) error {
	req := clipRequest{StartTime: startTime, EndTime: endTime, PlayID: playID}
	if err := c.send(ctx, agentURL, "/api/v1/clip", req); err != nil {
		return fmt.Errorf("generate clip %s: %w", playID, err)
	}
	return nil
}

// send posts body and requires the reply, if any, to be valid JSON.
func (c *Client) send(ctx context.Context, agentURL, path string, body any) error {
	var ack any
	return c.cmd.Do(ctx, agentURL, path, http.MethodPost, body, &ack)
}
