package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/uploadgate/app"
)

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove abandoned partial uploads and expired sessions",
		Long: `Run a single janitor pass: delete .part files older than
UPLOAD_PART_MAX_AGE below the storage root and drop expired sessions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := app.NewFromEnv(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Sweep(ctx)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d partial files, %d sessions\n", report.Parts, report.Sessions)
			return err
		},
	}
}
