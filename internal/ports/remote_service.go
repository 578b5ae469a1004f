package ports

import (
	"context"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

type LoginResult struct {
	Token  string
	UserID string
}

type CreateUploadTargetRequest struct {
	Client       domain.ClientIdentity
	DataSetType  domain.DataSetType
	Deduplicator string
}

// RemoteService is the clinical data service. Calls made with a token return
// an error wrapping domain.ErrTransientAuth on 401/403.
type RemoteService interface {
	Login(ctx context.Context, credentials domain.Credentials) (LoginResult, error)
	ListUploadTargets(ctx context.Context, token, userID, clientName string) ([]domain.UploadTarget, error)
	CreateUploadTarget(ctx context.Context, token, userID string, req CreateUploadTargetRequest) (domain.UploadTarget, error)
	Upload(ctx context.Context, token, uploadTargetID string, records []domain.TargetRecord) error
}
