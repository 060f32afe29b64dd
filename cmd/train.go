package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"camera-notifier/internal/container"
	"camera-notifier/internal/infrastructure/classifier"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the classifier from the training directory and overwrite the weights",
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := container.NewEngine(cfg, slog.Default())
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(cfg.Classifier.Epochs,
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Training...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)

			engine.OnEpoch(func(r classifier.EpochReport) {
				bar.Describe(fmt.Sprintf("[cyan][bold]Epoch %d/%d[reset] acc=%.3f", r.Epoch, r.Epochs, r.Accuracy))
				if err := bar.Add(1); err != nil {
					slog.Warn("Failed to update progress bar", "error", err)
				}
			})

			if _, err := engine.EnsureReady(cmd.Context(), true); err != nil {
				return err
			}

			report := engine.LastTrainReport()
			fmt.Printf("classes: %v\ntrain samples: %d\nvalidation samples: %d\nbest epoch: %d\nbest accuracy: %.4f\nweights: %s\n",
				report.Labels.Strings(), report.TrainSize, report.ValidSize,
				report.BestEpoch, report.BestAccuracy, cfg.Classifier.ModelPath)
			return nil
		},
	}
}
