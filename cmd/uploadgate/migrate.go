package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uploadgate/core/config"
	"github.com/dmitrymomot/uploadgate/core/logger"
	"github.com/dmitrymomot/uploadgate/integration/database/pg"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  `Create or update the upload_configs table in the database named by PG_CONN_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var cfg pg.Config
			if err := config.Load(&cfg); err != nil {
				return err
			}

			log := logger.New(logger.WithDevelopment("uploadgate"))
			pool, err := pg.Connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
				return err
			}
			log.InfoContext(ctx, "migrations applied")
			return nil
		},
	}
}
