package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/config"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/catalog"
	"github.com/Capitan-Parrot/distributed-video-system/console/internal/services/command"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "console",
	Short: "Live capture operator console",
	Long: `console coordinates capture agents during a live event: it runs the recording
session, fans mark-in/mark-out commands out to every agent and follows the
backend clip feed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("CONFIG_PATH"), "YAML config file (env CONFIG_PATH)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads the config and installs the logger every command shares.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newCatalog(cfg *config.Config, logger *slog.Logger) (*catalog.Client, *command.Client) {
	cmd := command.New(command.Config{Timeout: cfg.Backend.Timeout, Logger: logger})
	return catalog.NewClient(cfg.Backend.URL, cmd), cmd
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
