// Package chain tries a primary secret backend and falls back to a second one.
package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/nightscout-tidepool-sync/internal/adapters/secrets/file"
	passstore "github.com/bnema/nightscout-tidepool-sync/internal/adapters/secrets/pass"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
)

type Store struct {
	primary  ports.SecretStore
	fallback ports.SecretStore
}

var _ ports.SecretStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary secret store is nil")
	errNilFallbackStore = errors.New("fallback secret store is nil")
)

func NewStore(primary ports.SecretStore, fallback ports.SecretStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

// NewPassFirst reads from pass and falls back to plain files under fileRoot.
func NewPassFirst(passDir, fileRoot string) (*Store, error) {
	return NewStore(passstore.NewStore(passDir), filestore.NewStore(fileRoot))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil || shouldSkipFallback(err) {
		return err
	}

	if fallbackErr := s.fallback.Put(ctx, key, value); fallbackErr != nil {
		return combine("put", err, fallbackErr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil || shouldSkipFallback(err) {
		return value, err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr != nil {
		return "", combine("get", err, fallbackErr)
	}
	return fallbackValue, nil
}

// Delete removes the key from both backends.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	if err != nil && fallbackErr != nil {
		return combine("delete", err, fallbackErr)
	}
	return nil
}

func combine(op string, primaryErr, fallbackErr error) error {
	return errors.Join(
		fmt.Errorf("primary backend %s failed: %w", op, primaryErr),
		fmt.Errorf("fallback backend %s failed: %w", op, fallbackErr),
	)
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
