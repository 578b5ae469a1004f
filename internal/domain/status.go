package domain

import "time"

// PassSummary records the outcome of one sync pass.
type PassSummary struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Converted  int
	Skipped    int
	Uploaded   int
	Error      string
}

// SyncStatus is what survives between process runs: the last pass and the
// newest record time known to be uploaded.
type SyncStatus struct {
	UploadTargetID string
	HighWaterMark  time.Time
	LastPass       *PassSummary
	UpdatedAt      time.Time
}
