package database

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

func TestNullIntRoundTrip(t *testing.T) {
	if got := nullInt(nil); got.Valid {
		t.Errorf("nullInt(nil) = %+v", got)
	}
	three := 3
	if got := intPtr(nullInt(&three)); got == nil || *got != 3 {
		t.Errorf("intPtr = %v", got)
	}
	if got := intPtr(sql.NullInt64{}); got != nil {
		t.Errorf("intPtr(null) = %v", *got)
	}
}

// TestRecordPlay runs against a real PostgreSQL when TEST_DATABASE_DSN is set.
func TestRecordPlay(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()

	db, err := New(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer db.Close()
	if err := db.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	sessionID := "test-session-" + time.Now().Format("150405.000000")
	down := 2
	markIn := time.Now().UTC().Truncate(time.Millisecond)
	play := models.Play{
		PlayID:    sessionID + "-play",
		SessionID: sessionID,
		MarkIn:    markIn,
		MarkOut:   markIn.Add(7 * time.Second),
		Tags:      models.PlayTag{PlayType: "run", Down: &down},
	}
	results := []models.AgentResult{
		{AgentID: "agent-a", ChannelID: "cam-a", OK: true},
		{AgentID: "agent-b", ChannelID: "cam-b", Error: "timeout"},
	}

	if err := db.RecordPlay(ctx, play, results); err != nil {
		t.Fatalf("RecordPlay: %v", err)
	}
	play.Tags.Result = "gain"
	if err := db.RecordPlay(ctx, play, results[:1]); err != nil {
		t.Fatalf("RecordPlay again: %v", err)
	}

	plays, err := db.SessionPlays(ctx, sessionID)
	if err != nil {
		t.Fatalf("SessionPlays: %v", err)
	}
	if len(plays) != 1 || plays[0].Tags.Result != "gain" || plays[0].Tags.Down == nil || *plays[0].Tags.Down != 2 {
		t.Fatalf("plays = %+v", plays)
	}

	var agents int
	if err := db.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM play_agents WHERE play_id = $1", play.PlayID).Scan(&agents); err != nil {
		t.Fatal(err)
	}
	if agents != 1 {
		t.Errorf("agent rows = %d, want 1", agents)
	}
}
