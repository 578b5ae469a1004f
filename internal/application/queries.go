package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
)

// Status is what `nts status` reports: where the uploader points and what
// the last persisted pass did.
type Status struct {
	Username string
	APIHost  string
	Sync     domain.SyncStatus
	// Known is false until a pass has been persisted.
	Known bool
}

func GetStatus(ctx context.Context, repo ports.StatusRepository, username, apiHost string) (Status, error) {
	status := Status{Username: username, APIHost: apiHost}

	stored, err := repo.Get(ctx)
	switch {
	case errors.Is(err, domain.ErrStatusNotFound):
		return status, nil
	case err != nil:
		return Status{}, fmt.Errorf("read sync status: %w", err)
	}

	status.Sync = stored
	status.Known = true
	return status, nil
}
