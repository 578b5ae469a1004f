package toml

import "fmt"

const currentSchemaVersion = 1

type stateFileSchema struct {
	Version int         `toml:"version"`
	Sync    *syncSchema `toml:"sync,omitempty"`
}

func (s *stateFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s stateFileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported state schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type syncSchema struct {
	UploadTargetID string      `toml:"upload_target_id"`
	HighWaterMark  string      `toml:"high_water_mark,omitempty"`
	UpdatedAt      string      `toml:"updated_at"`
	LastPass       *passSchema `toml:"last_pass,omitempty"`
}

type passSchema struct {
	StartedAt  string `toml:"started_at"`
	FinishedAt string `toml:"finished_at"`
	Fetched    int    `toml:"fetched"`
	Converted  int    `toml:"converted"`
	Skipped    int    `toml:"skipped"`
	Uploaded   int    `toml:"uploaded"`
	Error      string `toml:"error,omitempty"`
}
