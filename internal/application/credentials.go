package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
)

// ResolveCredentials builds the login credentials. A literal password wins;
// otherwise the password is read from secrets under passwordRef, or under
// the default key for username when passwordRef is empty.
func ResolveCredentials(ctx context.Context, secrets ports.SecretStore, username, password, passwordRef string) (domain.Credentials, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Credentials{}, errors.New("tidepool username is not configured")
	}
	if password != "" {
		return domain.Credentials{Username: username, Password: password}, nil
	}
	if secrets == nil {
		return domain.Credentials{}, errors.New("no tidepool password configured and no secret store available")
	}

	key := passwordRef
	if key == "" {
		key = domain.PasswordSecretKey(username)
	}

	secret, err := secrets.Get(ctx, key)
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("read tidepool password %q: %w", key, err)
	}
	if secret == "" {
		return domain.Credentials{}, fmt.Errorf("tidepool password %q is empty", key)
	}

	return domain.Credentials{Username: username, Password: secret}, nil
}
