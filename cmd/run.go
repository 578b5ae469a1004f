package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/nightscout-tidepool-sync/internal/adapters/trigger"
	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCmd(loader *appLoader) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon",
		Long: "run connects to Tidepool and syncs on every interval tick and on every change to a watched path. " +
			"A failed session stays failed until the process receives SIGHUP, which reconnects.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}
			if err := app.cfg.ValidateSync(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hangups := make(chan os.Signal, 1)
			signal.Notify(hangups, syscall.SIGHUP)
			defer signal.Stop(hangups)

			return runDaemon(ctx, app, dryRun, hangups)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Convert and reconcile without uploading")

	return cmd
}

// runDaemon blocks until ctx is done. Each value on reconnect triggers an
// explicit reconnect.
func runDaemon(ctx context.Context, app *app, dryRun bool, reconnect <-chan os.Signal) error {
	source, err := app.openSource(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = source.Close(context.Background()) }()

	session := app.newSessionManager()
	if err := app.connect(ctx, session); err != nil {
		app.log.WithError(err).Error("initial connect failed, send SIGHUP to retry")
	}

	service := app.newSyncService(session, source, dryRun)
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error { return service.Run(ctx) })
	group.Go(func() error {
		return trigger.NewInterval(app.cfg.Sync.Interval, service, app.log).Run(ctx)
	})
	if len(app.cfg.Sync.WatchPaths) > 0 {
		group.Go(func() error {
			return trigger.NewWatcher(app.cfg.Sync.WatchPaths, service, app.log).Run(ctx)
		})
	}
	if addr := app.cfg.Metrics.Addr; addr != "" {
		group.Go(func() error { return app.metrics.Serve(ctx, addr) })
	}
	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-reconnect:
				reconnectSession(ctx, app, session, service)
			}
		}
	})

	app.log.WithField("interval", app.cfg.Sync.Interval.String()).Info("sync daemon started")
	err = group.Wait()
	app.log.Info("sync daemon stopped")
	return err
}

func reconnectSession(ctx context.Context, app *app, session *application.SessionManager, service *application.SyncService) {
	previous := session.Snapshot().UploadTargetID

	app.log.Info("reconnecting on request")
	if err := app.connect(ctx, session); err != nil {
		app.log.WithError(err).Error("reconnect failed")
		return
	}

	if current := session.Snapshot().UploadTargetID; previous != "" && current != previous {
		app.log.WithFields(logrus.Fields{"previous": previous, "current": current}).Info("upload target changed, clearing ledger")
		app.ledger.Reset()
	}
	service.Notify(application.SignalDataLoaded)
}
