package toml

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	statePath := filepath.Join(t.TempDir(), "nested", "state.toml")
	config := viper.New()
	config.Set(StatePathKey, statePath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo, statePath
}

func TestRepositoryGetMissingFile(t *testing.T) {
	t.Parallel()

	repo, _ := newTestRepository(t)

	_, err := repo.Get(context.Background())
	require.ErrorIs(t, err, domain.ErrStatusNotFound)
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo, statePath := newTestRepository(t)

	started := time.Date(2026, 5, 9, 11, 0, 0, 0, time.UTC)
	status := domain.SyncStatus{
		UploadTargetID: "ds-1",
		HighWaterMark:  time.Date(2026, 5, 9, 10, 5, 0, 123_000_000, time.UTC),
		UpdatedAt:      started.Add(2 * time.Second),
		LastPass: &domain.PassSummary{
			StartedAt:  started,
			FinishedAt: started.Add(2 * time.Second),
			Fetched:    6,
			Converted:  5,
			Skipped:    1,
			Uploaded:   6,
		},
	}

	require.NoError(t, repo.Save(context.Background(), status))

	got, err := repo.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, status, got)

	info, err := os.Stat(statePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateFileMode), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(statePath))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(stateDirMode), dirInfo.Mode().Perm())

	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "upload_target_id = 'ds-1'")
}

func TestRepositorySaveOverwrites(t *testing.T) {
	t.Parallel()

	repo, statePath := newTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, domain.SyncStatus{
		UploadTargetID: "ds-1",
		LastPass:       &domain.PassSummary{Error: "upload chunk 0: boom"},
	}))
	require.NoError(t, repo.Save(ctx, domain.SyncStatus{UploadTargetID: "ds-2"}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatus{UploadTargetID: "ds-2"}, got)

	entries, err := os.ReadDir(filepath.Dir(statePath))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestRepositoryRejectsNewerSchema(t *testing.T) {
	t.Parallel()

	repo, statePath := newTestRepository(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(statePath), stateDirMode))
	require.NoError(t, os.WriteFile(statePath, []byte("version = 99\n"), stateFileMode))

	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported state schema version 99")
}

func TestRepositoryRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	repo, statePath := newTestRepository(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(statePath), stateDirMode))
	require.NoError(t, os.WriteFile(statePath, []byte("version = [\n"), stateFileMode))

	_, err := repo.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode state file")
}

func TestRepositoryHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	repo, statePath := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, repo.Save(ctx, domain.SyncStatus{UploadTargetID: "ds-1"}), context.Canceled)
	_, err := repo.Get(ctx)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(statePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRepositoriesSharePathLock(t *testing.T) {
	t.Parallel()

	statePath := filepath.Join(t.TempDir(), "state.toml")
	config := viper.New()
	config.Set(StatePathKey, statePath)

	first, err := NewRepository(config)
	require.NoError(t, err)
	second, err := NewRepository(config)
	require.NoError(t, err)
	assert.Same(t, first.mu, second.mu)

	var wg sync.WaitGroup
	for i := range 20 {
		repo := first
		if i%2 == 1 {
			repo = second
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Save(context.Background(), domain.SyncStatus{UploadTargetID: "ds-1"}))
			_, err := repo.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestNewRepositoryDefaultsPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	repo, err := NewRepository(nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".nts", "state.toml"), repo.Path())
}
