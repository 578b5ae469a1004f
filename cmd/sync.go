package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/spf13/cobra"
)

func newSyncCmd(loader *appLoader) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}
			if err := app.cfg.ValidateSync(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			source, err := app.openSource(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = source.Close(context.Background()) }()

			session := app.newSessionManager()
			if err := app.connect(cmd.Context(), session); err != nil {
				return err
			}

			result, err := app.newSyncService(session, source, dryRun).RunSyncPass(cmd.Context())
			if err != nil {
				return err
			}

			return writePassResult(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert and reconcile without uploading")

	return cmd
}

func writePassResult(cmd *cobra.Command, result application.PassResult) error {
	if !result.Ran {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "session not connected, nothing synced")
		return err
	}
	verb, n := "uploaded", result.Uploaded
	if result.DryRun {
		verb, n = "would upload", result.Ready
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "fetched %d, converted %d, skipped %d, already uploaded %d, %s %d\n",
		result.Fetched, result.Converted, result.Skipped, result.Duplicates, verb, n)
	return err
}
