package ports

import (
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

// SyncMetrics receives sync and session observations.
type SyncMetrics interface {
	SessionState(state domain.SessionState)
	PassFinished(outcome string, elapsed time.Duration)
	RecordsFetched(collection string, n int)
	RecordsSkipped(stage string, n int)
	RecordsReconciled(outcome string, n int)
	RecordsUploaded(n int)
	UploadAttempt(result string)
}

type NopMetrics struct{}

func (NopMetrics) SessionState(domain.SessionState)   {}
func (NopMetrics) PassFinished(string, time.Duration) {}
func (NopMetrics) RecordsFetched(string, int)         {}
func (NopMetrics) RecordsSkipped(string, int)         {}
func (NopMetrics) RecordsReconciled(string, int)      {}
func (NopMetrics) RecordsUploaded(int)                {}
func (NopMetrics) UploadAttempt(string)               {}
