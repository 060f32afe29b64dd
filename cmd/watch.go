package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"camera-notifier/internal/container"
)

func watchCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the capture, classify and notify loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), once)
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single tick and exit")

	return cmd
}

func runWatch(ctx context.Context, once bool) error {
	c, err := container.New(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close resources", "error", err)
		}
	}()

	if once {
		result := c.Watch.Tick(ctx)
		if result.Err != nil {
			return result.Err
		}
		slog.Info("Tick finished", "label", result.Label, "changed", result.Changed, "notified", result.Notified)
		return nil
	}

	var server *http.Server
	if cfg.Metrics.Addr != "" {
		server = c.Metrics.NewServer(cfg.Metrics.Addr)
		go func() {
			slog.Info("Metrics server listening", "addr", cfg.Metrics.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	if err := c.Watch.Start(ctx); err != nil {
		return err
	}

	statsInterval := cfg.Watch.StatsInterval()
	if statsInterval <= 0 {
		statsInterval = 5 * time.Minute
	}
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := c.Watch.Stats()
			slog.Info("Watch stats", "successful", stats.Successful, "failed", stats.Failed)

		case <-ctx.Done():
			c.Watch.Stop()
			slog.Info("Waiting for the current tick to finish")
			c.Watch.Wait()

			if server != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Warn("Failed to shut down metrics server", "error", err)
				}
				cancel()
			}

			stats := c.Watch.Stats()
			slog.Info("Watch stopped", "successful", stats.Successful, "failed", stats.Failed)
			return nil
		}
	}
}
