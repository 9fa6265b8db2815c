package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/console"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/capture"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/catalog"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/command"
)

func newTestAPI(t *testing.T, backend http.Handler) (http.Handler, *console.Console) {
	t.Helper()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)

	cmd := command.New(command.Config{Timeout: time.Second})
	c := console.New(console.Options{
		Backend: catalog.NewClient(srv.URL, cmd),
		Agents:  capture.NewClient(cmd),
	})
	return NewHandlers(c, nil).Router([]string{"http://localhost:5173"}), c
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okAgent(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"recording"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestMarkFlow(t *testing.T) {
	h, _ := newTestAPI(t, http.NotFoundHandler())
	agent := okAgent(t)

	rec := do(t, h, http.MethodPost, "/api/v1/agents", `{"url":"`+agent.URL+`","channel_id":"cam-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add agent: %d %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/mark/in", "")
	var in actionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &in); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || !strings.HasPrefix(in.PlayID, "play-") || !in.State.Mark.IsMarking {
		t.Fatalf("mark in: %d %+v", rec.Code, in)
	}

	if rec := do(t, h, http.MethodPut, "/api/v1/tag", `{"playType":"run","down":2}`); rec.Code != http.StatusOK {
		t.Fatalf("tag: %d", rec.Code)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/mark/out", `{"result":"gain"}`)
	var out actionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.PlayID != in.PlayID || out.State.Mark.IsMarking || !out.State.Tag.IsEmpty() || out.Warning != "" {
		t.Errorf("mark out: %+v", out)
	}
}

func TestPartialFailureIsAWarning(t *testing.T) {
	h, _ := newTestAPI(t, http.NotFoundHandler())
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	do(t, h, http.MethodPost, "/api/v1/agents", `{"url":"`+okAgent(t).URL+`","channel_id":"cam-1"}`)
	do(t, h, http.MethodPost, "/api/v1/agents", `{"url":"`+broken.URL+`","channel_id":"cam-2"}`)

	rec := do(t, h, http.MethodPost, "/api/v1/clip/quick", `{"duration_seconds":10}`)
	var resp actionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || resp.Warning != "quick clip: 1 of 2 capture agents failed" {
		t.Errorf("quick clip: %d %+v", rec.Code, resp)
	}
	if resp.State.LastError != resp.Warning {
		t.Errorf("last error = %q", resp.State.LastError)
	}

	if rec := do(t, h, http.MethodDelete, "/api/v1/error", ""); rec.Code != http.StatusNoContent {
		t.Errorf("dismiss: %d", rec.Code)
	}
	var state console.Snapshot
	_ = json.Unmarshal(do(t, h, http.MethodGet, "/api/v1/state", "").Body.Bytes(), &state)
	if state.LastError != "" {
		t.Errorf("last error after dismiss = %q", state.LastError)
	}
}

func TestSessionErrors(t *testing.T) {
	h, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))

	if rec := do(t, h, http.MethodPost, "/api/v1/session/start", ""); rec.Code != http.StatusConflict {
		t.Errorf("start without session: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/session", `{"name":"Week 2","type":"game"}`); rec.Code != http.StatusBadGateway {
		t.Errorf("create with backend down: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/agents/agent-x/status", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown agent status: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/agents", `{"url":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid agent: %d", rec.Code)
	}
}

func TestCreateAndStartSession(t *testing.T) {
	h, c := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "scheduled"
		if strings.HasSuffix(r.URL.Path, "/start") {
			status = "live"
		}
		_, _ = w.Write([]byte(`{"id":"s7","name":"Week 2","type":"game","status":"` + status + `"}`))
	}))

	if rec := do(t, h, http.MethodPost, "/api/v1/session", `{"name":"Week 2","type":"game"}`); rec.Code != http.StatusOK {
		t.Fatalf("create: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/session/start", ""); rec.Code != http.StatusOK {
		t.Fatalf("start: %d %s", rec.Code, rec.Body)
	}
	if s := c.Session(); s == nil || s.Status != models.StatusLive {
		t.Errorf("session = %+v", s)
	}
}

func TestListClipsFilter(t *testing.T) {
	var query string
	h, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"clips":[{"id":"c1","status":"ready"}]}`))
	}))

	rec := do(t, h, http.MethodGet, "/api/v1/clips?session_id=s1&favorite=true&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d %s", rec.Code, rec.Body)
	}
	for _, want := range []string{"session_id=s1", "favorite=true", "limit=5"} {
		if !strings.Contains(query, want) {
			t.Errorf("backend query %q missing %s", query, want)
		}
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/clips?limit=x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestAPI(t, http.NotFoundHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/mark/in", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestAbandonedRequestDoesNotCancelAgents(t *testing.T) {
	h, c := newTestAPI(t, http.NotFoundHandler())
	var completed atomic.Int32
	agent := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		completed.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer agent.Close()
	c.AddAgent(agent.URL, "cam-1")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clip/quick", nil).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got := c.LastError(); got != "" {
		t.Errorf("LastError = %q, want none", got)
	}
	if completed.Load() != 1 {
		t.Errorf("agent completed %d requests, want 1", completed.Load())
	}
}
