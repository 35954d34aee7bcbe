package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vitaliisemenov/ecscache/internal/config"
	"github.com/vitaliisemenov/ecscache/internal/registry"
	"github.com/vitaliisemenov/ecscache/pkg/logger"
)

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "manage the query-registry schema",
	}
	cmd.AddCommand(newRegistryMigrateCmd())
	cmd.AddCommand(newRegistryStatusCmd())
	return cmd
}

func newRegistryMigrateCmd() *cobra.Command {
	var down bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply or roll back query-registry migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

			migrator, err := registry.NewMigrator(cfg.Registry.DSN, log)
			if err != nil {
				return err
			}
			defer migrator.Close()

			if down {
				return migrator.Down()
			}
			return migrator.Up()
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration instead of applying pending ones")
	return cmd
}

func newRegistryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "print the current query-registry schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.NewLogger(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})

			migrator, err := registry.NewMigrator(cfg.Registry.DSN, log)
			if err != nil {
				return err
			}
			defer migrator.Close()

			version, err := migrator.Status()
			if err != nil {
				return err
			}
			fmt.Printf("schema version: %d\n", version)
			return nil
		},
	}
}
