package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/database"
)

var playsSession string

var playsCmd = &cobra.Command{
	Use:   "plays",
	Short: "List journaled plays of a session",
	RunE:  runPlays,
}

func init() {
	playsCmd.Flags().StringVar(&playsSession, "session", "", "Session id (required)")
	rootCmd.AddCommand(playsCmd)
}

func runPlays(cmd *cobra.Command, args []string) error {
	if playsSession == "" && len(args) > 0 {
		playsSession = args[0]
	}
	if playsSession == "" {
		return errors.New("--session is required")
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is not configured")
	}

	db, err := database.New(cmd.Context(), cfg.Postgres.DSN, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	plays, err := db.SessionPlays(cmd.Context(), playsSession)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PLAY\tMARK IN\tLENGTH\tTYPE\tRESULT")
	for _, p := range plays {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.PlayID,
			formatTime(p.MarkIn),
			p.MarkOut.Sub(p.MarkIn).Round(100*time.Millisecond),
			p.Tags.PlayType,
			p.Tags.Result,
		)
	}
	return w.Flush()
}
