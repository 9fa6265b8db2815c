package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Capitan-Parrot/distributed-video-system/console/internal/models"
)

var (
	clipsSession  string
	clipsChannel  string
	clipsStatus   string
	clipsFavorite bool
	clipsLimit    int
)

var clipsCmd = &cobra.Command{
	Use:   "clips",
	Short: "List clips from the backend catalog",
	RunE:  runClips,
}

func init() {
	clipsCmd.Flags().StringVar(&clipsSession, "session", "", "Only clips of this session")
	clipsCmd.Flags().StringVar(&clipsChannel, "channel", "", "Only clips of this channel")
	clipsCmd.Flags().StringVar(&clipsStatus, "status", "", "Only clips in this status (pending, processing, ready, failed)")
	clipsCmd.Flags().BoolVar(&clipsFavorite, "favorite", false, "Only favorite clips")
	clipsCmd.Flags().IntVar(&clipsLimit, "limit", 50, "Maximum number of clips")
	rootCmd.AddCommand(clipsCmd)
}

func runClips(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	backend, _ := newCatalog(cfg, logger)

	filter := models.ClipFilter{
		SessionID: clipsSession,
		ChannelID: clipsChannel,
		Status:    models.ClipStatus(clipsStatus),
		Limit:     clipsLimit,
	}
	if clipsFavorite {
		favorite := true
		filter.Favorite = &favorite
	}

	clips, err := backend.ListClips(cmd.Context(), filter)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCHANNEL\tPLAY\tSTATUS\tFAV\tSTREAM")
	for _, clip := range clips {
		fav := ""
		if clip.IsFavorite {
			fav = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			clip.ID,
			formatTime(clip.CreatedAt),
			clip.ChannelID,
			clip.PlayID,
			clip.Status,
			fav,
			backend.StreamURL(clip.ID),
		)
	}
	return w.Flush()
}
