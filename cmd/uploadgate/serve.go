package main

import (
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uploadgate/app"
	"github.com/dmitrymomot/uploadgate/core/logger"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the upload HTTP server",
		Long: `Start the HTTP server with the upload endpoint, health checks and
Prometheus metrics. The janitor sweeps abandoned partial files in the
background when UPLOAD_JANITOR_INTERVAL is positive.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.NewFromEnv(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Run(ctx); err != nil {
				a.Logger().ErrorContext(ctx, "server stopped", logger.Error(err))
				return err
			}
			a.Logger().InfoContext(ctx, "server stopped")
			return nil
		},
	}
}
