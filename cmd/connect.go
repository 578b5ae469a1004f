package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd(loader *appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Log in to Tidepool and resolve the upload data set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			session := app.newSessionManager()
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Connecting to Tidepool...", func(ctx context.Context) error {
				return app.connect(ctx, session)
			})
			if err != nil {
				return err
			}

			snapshot := session.Snapshot()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Connected as user %s, uploading to data set %s\n",
				snapshot.RemoteUserID, snapshot.UploadTargetID)
			return err
		},
	}
}
