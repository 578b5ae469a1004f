package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	statusadapter "github.com/bnema/nightscout-tidepool-sync/internal/adapters/render/status"
	"github.com/bnema/nightscout-tidepool-sync/internal/application"
	"github.com/spf13/cobra"
)

type statusJSON struct {
	Username       string           `json:"username"`
	APIHost        string           `json:"api_host"`
	Known          bool             `json:"known"`
	UploadTargetID string           `json:"upload_target_id,omitempty"`
	HighWaterMark  *time.Time       `json:"high_water_mark,omitempty"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
	LastPass       *passSummaryJSON `json:"last_pass,omitempty"`
}

type passSummaryJSON struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Converted  int       `json:"converted"`
	Skipped    int       `json:"skipped"`
	Uploaded   int       `json:"uploaded"`
	Error      string    `json:"error,omitempty"`
}

func newStatusCmd(loader *appLoader) *cobra.Command {
	var asJSON bool
	var staleAfter time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the last persisted sync pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loader.load(cmd)
			if err != nil {
				return err
			}

			status, err := application.GetStatus(cmd.Context(), app.statusRepo, app.cfg.Tidepool.Username, app.cfg.Tidepool.APIHost)
			if err != nil {
				return err
			}

			if staleAfter == 0 {
				staleAfter = 3 * app.cfg.Sync.Interval
			}
			return writeStatusOutput(cmd, app, status, staleAfter, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	cmd.Flags().DurationVar(&staleAfter, "stale-after", 0, "Flag a last pass older than this (default 3x sync.interval)")

	return cmd
}

func writeStatusOutput(cmd *cobra.Command, app *app, status application.Status, staleAfter time.Duration, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(toStatusJSON(status))
	}

	rendered, err := app.statusRenderer(status, statusadapter.RenderOptions{
		Now:        app.now(),
		StaleAfter: staleAfter,
	})
	if err != nil {
		return fmt.Errorf("render status: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func toStatusJSON(status application.Status) statusJSON {
	out := statusJSON{
		Username:       status.Username,
		APIHost:        status.APIHost,
		Known:          status.Known,
		UploadTargetID: status.Sync.UploadTargetID,
		HighWaterMark:  optionalTime(status.Sync.HighWaterMark),
		UpdatedAt:      optionalTime(status.Sync.UpdatedAt),
	}
	if pass := status.Sync.LastPass; pass != nil {
		out.LastPass = &passSummaryJSON{
			StartedAt:  pass.StartedAt,
			FinishedAt: pass.FinishedAt,
			Fetched:    pass.Fetched,
			Converted:  pass.Converted,
			Skipped:    pass.Skipped,
			Uploaded:   pass.Uploaded,
			Error:      pass.Error,
		}
	}
	return out
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
