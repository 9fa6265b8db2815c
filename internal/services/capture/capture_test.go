package capture

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/command"
)

type recorded struct {
	path string
	body map[string]any
}

func newAgent(t *testing.T) (*httptest.Server, *[]recorded) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{}
		json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, recorded{path: r.URL.Path, body: body})
		w.Write([]byte(`{"status":"ok","buffering":true}`))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestEndGhostClipBody(t *testing.T) {
	server, calls := newAgent(t)
	client := NewClient(command.New(command.Config{}))

	err := client.EndGhostClip(context.Background(), server.URL, "play-1", models.PlayTag{PlayType: "Pass", Result: "TD"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := (*calls)[0]
	if got.path != "/api/v1/mark/out" {
		t.Errorf("unexpected path %s", got.path)
	}
	if got.body["play_id"] != "play-1" || got.body["generate_clip"] != true {
		t.Errorf("unexpected body %v", got.body)
	}
	tags, _ := got.body["tags"].(map[string]any)
	if len(tags) != 2 || tags["playType"] != "Pass" || tags["result"] != "TD" {
		t.Errorf("unexpected tags %v", tags)
	}
}

func TestEndGhostClipEmptyTags(t *testing.T) {
	server, calls := newAgent(t)
	client := NewClient(command.New(command.Config{}))

	if err := client.EndGhostClip(context.Background(), server.URL, "play-1", models.PlayTag{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tags, ok := (*calls)[0].body["tags"].(map[string]any)
	if !ok || len(tags) != 0 {
		t.Errorf("expected empty tags object, got %v", (*calls)[0].body["tags"])
	}
}

func TestCommandPaths(t *testing.T) {
	server, calls := newAgent(t)
	client := NewClient(command.New(command.Config{}))
	ctx := context.Background()

	if err := client.Configure(ctx, server.URL, "s1", "field1"); err != nil {
		t.Fatal(err)
	}
	if err := client.StartGhostClip(ctx, server.URL, "p1"); err != nil {
		t.Fatal(err)
	}
	if err := client.QuickClip(ctx, server.URL, 15, "quick-1"); err != nil {
		t.Fatal(err)
	}
	if err := client.GenerateClip(ctx, server.URL, 1000, 2000, "p2"); err != nil {
		t.Fatal(err)
	}

	want := []string{"/api/v1/config", "/api/v1/mark/in", "/api/v1/clip/quick", "/api/v1/clip"}
	for i, path := range want {
		if (*calls)[i].path != path {
			t.Errorf("call %d: expected %s, got %s", i, path, (*calls)[i].path)
		}
	}
	if (*calls)[0].body["session_id"] != "s1" || (*calls)[0].body["channel_id"] != "field1" {
		t.Errorf("unexpected config body %v", (*calls)[0].body)
	}
	if (*calls)[2].body["duration_seconds"] != float64(15) {
		t.Errorf("unexpected quick clip body %v", (*calls)[2].body)
	}
	if (*calls)[3].body["start_time"] != float64(1000) || (*calls)[3].body["end_time"] != float64(2000) {
		t.Errorf("unexpected clip body %v", (*calls)[3].body)
	}
}

func TestStatus(t *testing.T) {
	server, _ := newAgent(t)
	client := NewClient(command.New(command.Config{}))

	status, err := client.Status(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status["status"] != "ok" || status["buffering"] != true {
		t.Errorf("unexpected status %v", status)
	}
}

func TestMalformedAckIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":`))
	}))
	defer server.Close()
	client := NewClient(command.New(command.Config{}))

	err := client.StartGhostClip(context.Background(), server.URL, "play-1")
	if !errors.Is(err, command.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestEmptyAckIsSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()
	client := NewClient(command.New(command.Config{}))

	if err := client.QuickClip(context.Background(), server.URL, 15, "quick-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
