package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/ecscache/internal/config"
	"github.com/vitaliisemenov/ecscache/internal/registry"
	"github.com/vitaliisemenov/ecscache/pkg/logger"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <query-id>",
		Short: "print the registry's record of one query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queryID := args[0]

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

			ctx := cmd.Context()
			pool, err := registry.Connect(ctx, registry.Config{
				DSN:            cfg.Registry.DSN,
				MaxConns:       cfg.Registry.MaxConns,
				MinConns:       cfg.Registry.MinConns,
				ConnectTimeout: cfg.Registry.ConnectTimeout,
			}, log)
			if err != nil {
				return err
			}
			defer pool.Close()

			recorder := registry.NewRecorder(pool, log)
			return printQuery(ctx, recorder, queryID)
		},
	}
}

func printQuery(ctx context.Context, recorder *registry.Recorder, queryID string) error {
	records, err := recorder.ListQueries(ctx)
	if err != nil {
		return err
	}

	for _, rec := range records {
		if rec.QueryID != queryID {
			continue
		}
		fmt.Printf("query_id:    %s\n", rec.QueryID)
		fmt.Printf("trivial:     %t\n", rec.Trivial)
		fmt.Printf("grouped:     %t\n", rec.Grouped)
		fmt.Printf("cascade:     %t\n", rec.Cascade)
		fmt.Printf("created_at:  %s\n", rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
		return nil
	}

	return fmt.Errorf("inspect: no registry record for query id %q", queryID)
}
