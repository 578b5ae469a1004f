package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
)

type SetPasswordCommand struct {
	Username string
	Password string
	// SecretKey overrides the default key derived from Username.
	SecretKey string
}

// SetPassword stores the remote password and returns the key it was stored
// under.
func SetPassword(ctx context.Context, secrets ports.SecretStore, cmd SetPasswordCommand) (string, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" {
		return "", errors.New("username is required")
	}
	if cmd.Password == "" {
		return "", errors.New("password is required")
	}

	key := cmd.SecretKey
	if key == "" {
		key = domain.PasswordSecretKey(username)
	}
	if err := secrets.Put(ctx, key, cmd.Password); err != nil {
		return "", fmt.Errorf("store tidepool password: %w", err)
	}
	return key, nil
}
