package pass

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "nts/tidepool/user@example.com/password"

func TestStorePutUsesPassInsert(t *testing.T) {
	t.Parallel()

	called := false
	store := &Store{
		run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
			called = true
			assert.Empty(t, env)
			assert.Equal(t, []string{"insert", "-m", "-f", testKey}, args)
			assert.Equal(t, "hunter2\n", input)
			return "", "", nil
		},
	}

	require.NoError(t, store.Put(context.Background(), testKey, "hunter2"))
	assert.True(t, called)
}

func TestStoreGetReturnsFirstLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		stdout string
		want   string
	}{
		{name: "single line", stdout: "hunter2\n", want: "hunter2"},
		{name: "crlf", stdout: "hunter2\r\n", want: "hunter2"},
		{name: "multi line entry", stdout: "hunter2\nurl: api.tidepool.org\n", want: "hunter2"},
		{name: "no newline", stdout: "hunter2", want: "hunter2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := &Store{
				run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
					assert.Equal(t, []string{"show", testKey}, args)
					assert.Empty(t, input)
					return tc.stdout, "", nil
				},
			}

			value, err := store.Get(context.Background(), testKey)
			require.NoError(t, err)
			assert.Equal(t, tc.want, value)
		})
	}
}

func TestStoreUsesConfiguredStoreDir(t *testing.T) {
	t.Parallel()

	store := NewStore("/srv/password-store")
	store.run = func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
		assert.Equal(t, []string{"PASSWORD_STORE_DIR=/srv/password-store"}, env)
		return "hunter2\n", "", nil
	}

	_, err := store.Get(context.Background(), testKey)
	require.NoError(t, err)
}

func TestStoreGetMapsMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
			return "", "Error: " + testKey + " is not in the password store.", errors.New("exit status 1")
		},
	}

	_, err := store.Get(context.Background(), testKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreGetReturnsClearError(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
			return "", "gpg: decryption failed: No secret key", errors.New("exit status 2")
		},
	}

	_, err := store.Get(context.Background(), testKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "pass get")
	assert.ErrorContains(t, err, testKey)
	assert.ErrorContains(t, err, "decryption failed")
}

func TestStoreDeleteIgnoresMissingEntry(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
			assert.Equal(t, []string{"rm", "-f", testKey}, args)
			return "", "Error: " + testKey + " is not in the password store.", errors.New("exit status 1")
		},
	}

	require.NoError(t, store.Delete(context.Background(), testKey))
}

func TestStoreHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	store := &Store{
		run: func(ctx context.Context, env []string, input string, args ...string) (string, string, error) {
			t.Fatal("pass must not run with a cancelled context")
			return "", "", nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, testKey)
	require.ErrorIs(t, err, context.Canceled)
}
