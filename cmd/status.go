package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"camera-notifier/internal/infrastructure/storage"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the last recorded label",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo := storage.NewFileStateRepository(cfg.Watch.StatusFilePath)
			label, _, err := repo.Read(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(label)
			return nil
		},
	}
}
