// Package catalog talks to the backend clip catalog.
package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/command"
)

type Client struct {
	BaseURL string
	cmd     *command.Client
}

func NewClient(baseURL string, cmd *command.Client) *Client {
	return &Client{BaseURL: baseURL, cmd: cmd}
}

type createSessionRequest struct {
	Name string             `json:"name"`
	Type models.SessionType `json:"type"`
}

func (c *Client) CreateSession(ctx context.Context, name string, sessionType models.SessionType) (*models.Session, error) {
	var session models.Session
	err := c.cmd.Do(ctx, c.BaseURL, "/api/v1/sessions", http.MethodPost, createSessionRequest{Name: name, Type: sessionType}, &session)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (c *Client) StartSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := c.cmd.Do(ctx, c.BaseURL, sessionPath(sessionID, "start"), http.MethodPost, nil, &session); err != nil {
		return nil, fmt.Errorf("start session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (c *Client) CompleteSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := c.cmd.Do(ctx, c.BaseURL, sessionPath(sessionID, "complete"), http.MethodPost, nil, &session); err != nil {
		return nil, fmt.Errorf("complete session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (c *Client) ListChannels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := c.cmd.Do(ctx, c.BaseURL, "/api/v1/channels", http.MethodGet, nil, &channels); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

type clipList struct {
	Clips []models.Clip `json:"clips"`
}

// ListClips returns clips matching filter. Unset filter fields are omitted
// from the query.
func (c *Client) ListClips(ctx context.Context, filter models.ClipFilter) ([]models.Clip, error) {
	path := "/api/v1/clips"
	if query := clipQuery(filter); query != "" {
		path += "?" + query
	}

	var list clipList
	if err := c.cmd.Do(ctx, c.BaseURL, path, http.MethodGet, nil, &list); err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	return list.Clips, nil
}

func (c *Client) SessionClips(ctx context.Context, sessionID string) ([]models.Clip, error) {
	var list clipList
	if err := c.cmd.Do(ctx, c.BaseURL, sessionPath(sessionID, "clips"), http.MethodGet, nil, &list); err != nil {
		return nil, fmt.Errorf("list session %s clips: %w", sessionID, err)
	}
	return list.Clips, nil
}

func (c *Client) GetClip(ctx context.Context, clipID string) (*models.Clip, error) {
	var clip models.Clip
	if err := c.cmd.Do(ctx, c.BaseURL, clipPath(clipID, ""), http.MethodGet, nil, &clip); err != nil {
		return nil, fmt.Errorf("get clip %s: %w", clipID, err)
	}
	return &clip, nil
}

func (c *Client) ToggleFavorite(ctx context.Context, clipID string) (*models.Clip, error) {
	var clip models.Clip
	if err := c.cmd.Do(ctx, c.BaseURL, clipPath(clipID, "favorite"), http.MethodPost, nil, &clip); err != nil {
		return nil, fmt.Errorf("toggle favorite %s: %w", clipID, err)
	}
	return &clip, nil
}

func (c *Client) RecordWatch(ctx context.Context, clipID string) error {
	if _, err := c.cmd.Send(ctx, c.BaseURL, clipPath(clipID, "watch"), http.MethodPost, nil); err != nil {
		return fmt.Errorf("record watch %s: %w", clipID, err)
	}
	return nil
}

// Download opens the clip's media for reading. Size is -1 when the backend
// does not announce it.
func (c *Client) Download(ctx context.Context, clipID string) (io.ReadCloser, int64, error) {
	body, size, err := c.cmd.Open(ctx, c.BaseURL, clipPath(clipID, "download"))
	if err != nil {
		return nil, 0, fmt.Errorf("download clip %s: %w", clipID, err)
	}
	return body, size, nil
}

func (c *Client) StreamURL(clipID string) string {
	return command.JoinURL(c.BaseURL, clipPath(clipID, "stream"))
}

func (c *Client) ThumbnailURL(clipID string) string {
	return command.JoinURL(c.BaseURL, clipPath(clipID, "thumbnail"))
}

func (c *Client) DownloadURL(clipID string) string {
	return command.JoinURL(c.BaseURL, clipPath(clipID, "download"))
}

func sessionPath(sessionID, action string) string {
	return "/api/v1/sessions/" + url.PathEscape(sessionID) + "/" + action
}

func clipPath(clipID, action string) string {
	path := "/api/v1/clips/" + url.PathEscape(clipID)
	if action != "" {
		path += "/" + action
	}
	return path
}

func clipQuery(filter models.ClipFilter) string {
	params := url.Values{}
	if filter.SessionID != "" {
		params.Set("session_id", filter.SessionID)
	}
	if filter.ChannelID != "" {
		params.Set("channel_id", filter.ChannelID)
	}
	if filter.Status != "" {
		params.Set("status", string(filter.Status))
	}
	if filter.Favorite != nil {
		params.Set("favorite", strconv.FormatBool(*filter.Favorite))
	}
	if filter.Limit > 0 {
		params.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		params.Set("offset", strconv.Itoa(filter.Offset))
	}
	return params.Encode()
}
