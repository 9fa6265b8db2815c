package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List the cameras known to the backend",
	RunE:  runChannels,
}

func init() {
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	backend, _ := newCatalog(cfg, logger)

	channels, err := backend.ListChannels(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tHLS")
	for _, ch := range channels {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ch.ID, ch.Name, ch.Status, ch.HLSURL)
	}
	return w.Flush()
}
