package ports

import (
	"context"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

type StatusRepository interface {
	Get(ctx context.Context) (domain.SyncStatus, error)
	Save(ctx context.Context, status domain.SyncStatus) error
}

// UploadLedger remembers record keys that were already submitted.
type UploadLedger interface {
	Seen(key string) bool
	Mark(keys ...string)
}
