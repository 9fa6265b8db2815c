// Package command issues single HTTP commands to capture agents and the
// backend catalog. It keeps no state between calls and never retries.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultTimeout bounds a single command when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

type Config struct {
	// Timeout for one request, including reading the body.
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// Response is a successful (2xx) reply.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into out. An empty body leaves out untouched.
func (r *Response) Decode(out any) error {
	if out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, out)
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, logger: logger}
}

// Send issues method on base+path with body encoded as JSON (nil sends no
// body). Every failure comes back as *Error.
func (c *Client) Send(ctx context.Context, base, path, method string, body any) (*Response, error) {
	url := JoinURL(base, path)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindEncode, Method: method, URL: url, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, &Error{Kind: KindConnection, Method: method, URL: url, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &Error{Kind: classify(err), Method: method, URL: url, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: classify(err), Method: method, URL: url, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Kind: KindStatus, Method: method, URL: url, StatusCode: resp.StatusCode, Body: respBody}
	}

	c.logger.Debug("command sent",
		"method", method,
		"url", url,
		"status", resp.StatusCode,
		"elapsed", time.Since(start),
	)

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// Do is Send followed by decoding the response into out.
func (c *Client) Do(ctx context.Context, base, path, method string, body, out any) error {
	resp, err := c.Send(ctx, base, path, method, body)
	if err != nil {
		return err
	}
	if err := resp.Decode(out); err != nil {
		return &Error{Kind: KindDecode, Method: method, URL: JoinURL(base, path), StatusCode: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return nil
}

// Open issues a GET and hands back the unread body for streaming downloads.
// The caller closes it.
func (c *Client) Open(ctx context.Context, base, path string) (io.ReadCloser, int64, error) {
	url := JoinURL(base, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &Error{Kind: KindConnection, Method: http.MethodGet, URL: url, Err: err}
	}

	// Downloads may outlive the per-command timeout.
	client := *c.http
	client.Timeout = 0

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, &Error{Kind: classify(err), Method: http.MethodGet, URL: url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, 0, &Error{Kind: KindStatus, Method: http.MethodGet, URL: url, StatusCode: resp.StatusCode, Body: respBody}
	}
	return resp.Body, resp.ContentLength, nil
}

// JoinURL concatenates base and path with exactly one slash between them.
func JoinURL(base, path string) string {
	if path == "" {
		return strings.TrimRight(base, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func classify(err error) Kind {
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindConnection
}
