package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.URL != "http://localhost:8080" || cfg.Events.ReconnectDelay != 3*time.Second {
		t.Errorf("defaults not applied: %+v", cfg.Backend)
	}
	if cfg.Marking.QuickClipSeconds != 15 || cfg.Kafka.PlayTopic != "console-plays" {
		t.Errorf("defaults not applied: %+v %+v", cfg.Marking, cfg.Kafka)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PLATFORM_URL", "https://platform.example.com")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	path := writeConfig(t, `
backend:
  url: http://file.example.com
  timeout: 4s
events:
  reconnect_delay: 500ms
api:
  allowed_origins: [http://a.example.com, http://b.example.com]
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Backend.URL != "https://platform.example.com" {
		t.Errorf("env did not override file: %s", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 4*time.Second || cfg.Events.ReconnectDelay != 500*time.Millisecond {
		t.Errorf("durations = %v, %v", cfg.Backend.Timeout, cfg.Events.ReconnectDelay)
	}
	if len(cfg.API.AllowedOrigins) != 2 {
		t.Errorf("origins = %v", cfg.API.AllowedOrigins)
	}
	if strings.Join(cfg.Kafka.Brokers, ",") != "k1:9092,k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Backend.EventsURL != "ws://localhost:8080/ws" {
		t.Errorf("unset key lost its default: %s", cfg.Backend.EventsURL)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	cfg.Backend.EventsURL = "http://localhost:8080/ws"
	cfg.Events.ReconnectDelay = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("want error")
	}
	for _, want := range []string{"backend.events_url", "events.reconnect_delay"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
