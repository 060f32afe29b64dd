package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"camera-notifier/internal/infrastructure/storage"
)

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent ticks recorded by watch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfg.Watch.HistoryPath == "" {
				return errors.New("watch.history_path is not configured")
			}

			h, err := storage.OpenHistory(cfg.Watch.HistoryPath)
			if err != nil {
				return err
			}
			defer h.Close()

			entries, err := h.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			totals, err := h.Totals(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tDURATION\tLABEL\tPREVIOUS\tCHANGED\tNOTIFIED\tFAILURE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%t\t%s\n",
					e.Started.Local().Format(time.DateTime),
					e.Duration.Round(time.Millisecond),
					e.Label, e.Previous, e.Changed, e.Notified, e.Kind)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nsuccessful: %d, failed: %d\n", totals.Successful, totals.Failed)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of ticks to show")

	return cmd
}
