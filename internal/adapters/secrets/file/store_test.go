package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "nts/tidepool/user@example.com/password"

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid secret key"},
		{name: "parent", key: "..", wantErr: "invalid secret key"},
		{name: "traversal", key: "../escape", wantErr: "invalid secret key"},
		{name: "nested traversal", key: "nts/../../secret", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), testKey, "hunter2"))
	require.NoError(t, store.Put(context.Background(), testKey, "hunter3"))

	got, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "hunter3", got)

	secretPath := filepath.Join(root, testKey)
	info, err := os.Stat(secretPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMode), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(secretPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreGetTrimsTrailingNewline(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	secretPath := filepath.Join(root, testKey)
	require.NoError(t, os.MkdirAll(filepath.Dir(secretPath), storeDirMode))
	require.NoError(t, os.WriteFile(secretPath, []byte("hunter2\n"), secretFileMode))

	got, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got)
}

func TestStoreGetMissingSecret(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreDeleteIsIdempotentWhenSecretMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	require.NoError(t, store.Put(context.Background(), testKey, "hunter2"))
	require.NoError(t, store.Delete(context.Background(), testKey))
	require.NoError(t, store.Delete(context.Background(), testKey))

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}
