package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	StatePathKey    = "state.path"
	stateFileMode   = 0o600
	stateDirMode    = 0o700
	stateConfigDir  = ".nts"
	stateConfigFile = "state.toml"
	tempFilePattern = ".state-*.toml.tmp"
)

// Repository persists the sync status in a TOML file.
type Repository struct {
	statePath string
	mu        *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.StatusRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(StatePathKey, filepath.Join(homeDir, stateConfigDir, stateConfigFile))

	statePath := cfg.GetString(StatePathKey)
	if statePath == "" {
		return nil, errors.New("state path is empty")
	}
	statePath, err = normalizeStatePath(statePath)
	if err != nil {
		return nil, err
	}

	return &Repository{statePath: statePath, mu: lockForPath(statePath)}, nil
}

func (r *Repository) Path() string {
	return r.statePath
}

func (r *Repository) Get(ctx context.Context) (domain.SyncStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.SyncStatus{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.SyncStatus{}, err
	}
	if file.Sync == nil {
		return domain.SyncStatus{}, domain.ErrStatusNotFound
	}

	return fromSchema(*file.Sync), nil
}

func (r *Repository) Save(ctx context.Context, status domain.SyncStatus) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(status)
	file.Sync = &encoded

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (stateFileSchema, error) {
	data, err := os.ReadFile(r.statePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stateFileSchema{}, nil
		}
		return stateFileSchema{}, fmt.Errorf("read state file: %w", err)
	}

	var file stateFileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return stateFileSchema{}, fmt.Errorf("decode state file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return stateFileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file stateFileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.statePath), stateDirMode); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode state file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.statePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}

	if err := tempFile.Chmod(stateFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp state file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tempName, r.statePath); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	cleanup = false
	return nil
}

func normalizeStatePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func toSchema(status domain.SyncStatus) syncSchema {
	encoded := syncSchema{
		UploadTargetID: status.UploadTargetID,
		HighWaterMark:  formatTime(status.HighWaterMark),
		UpdatedAt:      formatTime(status.UpdatedAt),
	}
	if pass := status.LastPass; pass != nil {
		encoded.LastPass = &passSchema{
			StartedAt:  formatTime(pass.StartedAt),
			FinishedAt: formatTime(pass.FinishedAt),
			Fetched:    pass.Fetched,
			Converted:  pass.Converted,
			Skipped:    pass.Skipped,
			Uploaded:   pass.Uploaded,
			Error:      pass.Error,
		}
	}
	return encoded
}

func fromSchema(encoded syncSchema) domain.SyncStatus {
	status := domain.SyncStatus{
		UploadTargetID: encoded.UploadTargetID,
		HighWaterMark:  parseTime(encoded.HighWaterMark),
		UpdatedAt:      parseTime(encoded.UpdatedAt),
	}
	if pass := encoded.LastPass; pass != nil {
		status.LastPass = &domain.PassSummary{
			StartedAt:  parseTime(pass.StartedAt),
			FinishedAt: parseTime(pass.FinishedAt),
			Fetched:    pass.Fetched,
			Converted:  pass.Converted,
			Skipped:    pass.Skipped,
			Uploaded:   pass.Uploaded,
			Error:      pass.Error,
		}
	}
	return status
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed.UTC()
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}
