package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"camera-notifier/internal/container"
	"camera-notifier/internal/infrastructure/files"
)

func classifyCmd() *cobra.Command {
	var crop bool

	cmd := &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify a single image with the current model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := container.NewEngine(cfg, slog.Default())
			if err != nil {
				return err
			}

			path := args[0]
			if crop {
				manager, err := files.NewManager(cfg.Watch.ScratchDir, slog.Default())
				if err != nil {
					return err
				}
				cropped, err := manager.Crop(path, container.CropRect(cfg.Camera))
				if err != nil {
					return err
				}
				defer manager.ArchiveAndCleanup(cropped, "")
				path = cropped
			}

			label, err := engine.Classify(cmd.Context(), path)
			if err != nil {
				return err
			}

			fmt.Println(label)
			return nil
		},
	}

	cmd.Flags().BoolVar(&crop, "crop", false, "apply the configured camera crop before classifying")

	return cmd
}
