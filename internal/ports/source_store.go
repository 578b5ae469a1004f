package ports

import (
	"context"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

// SourceStore reads the local monitoring store. Every listing is newest first.
type SourceStore interface {
	ListEntries(ctx context.Context, count int) ([]domain.RawRecord, error)
	ListTreatments(ctx context.Context, count int) ([]domain.RawRecord, error)
	ListProfiles(ctx context.Context, since time.Time) ([]domain.RawRecord, error)
}
