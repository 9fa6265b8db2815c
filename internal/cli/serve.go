package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/api"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/config"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/console"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/database"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/events"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/kafka"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/s3"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/capture"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the console, the event feed and the control API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Main: init...")

	backend, commands := newCatalog(cfg, logger)
	opts := console.Options{
		Backend:          backend,
		Agents:           capture.NewClient(commands),
		QuickClipSeconds: cfg.Marking.QuickClipSeconds,
		QueueSize:        cfg.Events.QueueSize,
		Logger:           logger,
	}

	closers, err := attachSinks(ctx, cfg, logger, &opts)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Warn("close failed", "error", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	c := console.New(opts)

	stream := events.NewStream(events.Config{ReconnectDelay: cfg.Events.ReconnectDelay, Logger: logger})
	c.Subscribe(stream)
	stream.Connect(cfg.Backend.EventsURL)
	defer stream.Disconnect()

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.EventTopic != "" {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.EventTopic, logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		go consumer.Run(ctx, stream.Dispatch)
	}

	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		_ = c.Run(ctx)
	}()

	if _, err := c.LoadChannels(ctx); err != nil {
		logger.Warn("channels unavailable at startup", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           api.NewHandlers(c, logger).Router(cfg.API.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting console API server", "addr", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-feedDone
			return err
		}
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api shutdown", "error", err)
	}
	<-feedDone
	return nil
}

// attachSinks connects the optional play journal, play producer and clip
// archive. The returned closers must run even when err is not nil.
func attachSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts *console.Options) ([]func() error, error) {
	var closers []func() error

	if cfg.Postgres.DSN != "" {
		db, err := database.New(ctx, cfg.Postgres.DSN, logger)
		if err != nil {
			return closers, err
		}
		closers = append(closers, db.Close)
		if err := db.Init(ctx); err != nil {
			return closers, err
		}
		opts.Journal = db
		logger.Info("play journal enabled")
	}

	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.PlayTopic != "" {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.PlayTopic)
		if err != nil {
			return closers, err
		}
		closers = append(closers, producer.Close)
		opts.Publisher = producer
		logger.Info("play events enabled", "topic", cfg.Kafka.PlayTopic)
	}

	if cfg.Minio.Endpoint != "" {
		archive, err := s3.NewMinioClient(s3.Config{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Secure:    cfg.Minio.Secure,
		})
		if err != nil {
			return closers, err
		}
		opts.Archiver = archive
		logger.Info("clip archive enabled", "bucket", cfg.Minio.Bucket)
	}

	return closers, nil
}
