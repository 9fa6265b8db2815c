package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the console configuration. Values come from defaults, then the
// YAML file, then the environment.
type Config struct {
	Backend struct {
		URL       string        `yaml:"url" env:"PLATFORM_URL"`
		EventsURL string        `yaml:"events_url" env:"WS_URL"`
		Timeout   time.Duration `yaml:"timeout" env:"BACKEND_TIMEOUT"`
	} `yaml:"backend"`

	Events struct {
		ReconnectDelay time.Duration `yaml:"reconnect_delay" env:"EVENTS_RECONNECT_DELAY"`
		QueueSize      int           `yaml:"queue_size" env:"EVENTS_QUEUE_SIZE"`
	} `yaml:"events"`

	API struct {
		Addr           string   `yaml:"addr" env:"API_ADDR"`
		AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"api"`

	Marking struct {
		QuickClipSeconds int `yaml:"quick_clip_seconds" env:"QUICK_CLIP_SECONDS"`
	} `yaml:"marking"`

	Postgres struct {
		DSN string `yaml:"dsn" env:"DATABASE_DSN"`
	} `yaml:"postgres"`

	Kafka struct {
		Brokers    []string `yaml:"brokers" env:"KAFKA_BROKERS" envSeparator:","`
		GroupID    string   `yaml:"group_id" env:"KAFKA_GROUP_ID"`
		PlayTopic  string   `yaml:"play_topic" env:"PLAY_TOPIC"`
		EventTopic string   `yaml:"event_topic" env:"EVENT_TOPIC"`
	} `yaml:"kafka"`

	Minio struct {
		Endpoint  string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
		Bucket    string `yaml:"bucket" env:"MINIO_BUCKET"`
		Secure    bool   `yaml:"secure" env:"MINIO_SECURE"`
	} `yaml:"minio"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"log"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	cfg := &Config{}
	cfg.Backend.URL = "http://localhost:8080"
	cfg.Backend.EventsURL = "ws://localhost:8080/ws"
	cfg.Backend.Timeout = 10 * time.Second
	cfg.Events.ReconnectDelay = 3 * time.Second
	cfg.Events.QueueSize = 256
	cfg.API.Addr = ":8004"
	cfg.API.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Marking.QuickClipSeconds = 15
	cfg.Kafka.GroupID = "console"
	cfg.Kafka.PlayTopic = "console-plays"
	cfg.Minio.Bucket = "clips"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// LoadConfig reads path (skipped when empty) and then the environment. A
// .env file in the working directory is loaded first unless APP_ENV is
// production.
func LoadConfig(path string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values the console cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if err := checkURL(c.Backend.URL, "http", "https"); err != nil {
		errs = append(errs, fmt.Errorf("backend.url: %w", err))
	}
	if err := checkURL(c.Backend.EventsURL, "ws", "wss"); err != nil {
		errs = append(errs, fmt.Errorf("backend.events_url: %w", err))
	}
	if c.Backend.Timeout <= 0 {
		errs = append(errs, errors.New("backend.timeout must be positive"))
	}
	if c.Events.ReconnectDelay <= 0 {
		errs = append(errs, errors.New("events.reconnect_delay must be positive"))
	}
	if c.Events.QueueSize <= 0 {
		errs = append(errs, errors.New("events.queue_size must be positive"))
	}
	if c.Marking.QuickClipSeconds <= 0 {
		errs = append(errs, errors.New("marking.quick_clip_seconds must be positive"))
	}
	if c.API.Addr == "" {
		errs = append(errs, errors.New("api.addr is required"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.PlayTopic == "" && c.Kafka.EventTopic == "" {
		errs = append(errs, errors.New("kafka.brokers set without any topic"))
	}
	if c.Minio.Endpoint != "" && c.Minio.Bucket == "" {
		errs = append(errs, errors.New("minio.bucket is required with minio.endpoint"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, scheme := range schemes {
		if u.Scheme == scheme && u.Host != "" {
			return nil
		}
	}
	return fmt.Errorf("%q is not a %v URL", raw, schemes)
}
