package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func reapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reap",
		Short: "Expire overdue rooms once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			deps, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close()

			svc := wireServices(deps, cfg)
			n, err := svc.reaper.RunOnce(ctx)
			if err != nil {
				return err
			}
			slog.Info("reap finished", "expired", n)
			return nil
		},
	}
}
