package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/convert"
	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/bnema/nightscout-tidepool-sync/internal/ports"
	"github.com/bnema/nightscout-tidepool-sync/internal/reconcile"
	"github.com/sirupsen/logrus"
)

// Signal asks for a sync pass. Signals carry no payload.
type Signal string

const (
	SignalDataReceived Signal = "data-received"
	SignalDataLoaded   Signal = "data-loaded"
)

const (
	DefaultEntriesCount    = 500
	DefaultTreatmentsCount = 500
	DefaultChunkSize       = 1000
	DefaultUploadAttempts  = 3
	DefaultUploadBackoff   = 2 * time.Second
)

const (
	passOutcomeOK      = "ok"
	passOutcomeFailed  = "failed"
	passOutcomeSkipped = "skipped"
)

type SyncConfig struct {
	EntriesCount    int
	TreatmentsCount int
	ChunkSize       int
	UploadAttempts  int
	UploadBackoff   time.Duration
	DryRun          bool
	OriginName      string
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.EntriesCount <= 0 {
		c.EntriesCount = DefaultEntriesCount
	}
	if c.TreatmentsCount <= 0 {
		c.TreatmentsCount = DefaultTreatmentsCount
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.UploadAttempts <= 0 {
		c.UploadAttempts = DefaultUploadAttempts
	}
	if c.UploadBackoff < 0 {
		c.UploadBackoff = 0
	}
	return c
}

// PassResult summarizes one sync pass. Ran is false when the session was not
// connected and the pass did nothing. Ready counts the records left to submit
// after the ledger filter.
type PassResult struct {
	Ran        bool
	Fetched    int
	Converted  int
	Skipped    int
	Duplicates int
	Ready      int
	Uploaded   int
	DryRun     bool
	Outcomes   map[reconcile.Outcome]int
	Newest     time.Time
}

type SyncOption func(*SyncService)

func WithLedger(ledger ports.UploadLedger) SyncOption {
	return func(s *SyncService) { s.ledger = ledger }
}

func WithStatusRepository(repo ports.StatusRepository) SyncOption {
	return func(s *SyncService) { s.status = repo }
}

func WithLogger(log logrus.FieldLogger) SyncOption {
	return func(s *SyncService) { s.log = log }
}

func WithMetrics(metrics ports.SyncMetrics) SyncOption {
	return func(s *SyncService) { s.metrics = metrics }
}

func WithClock(clock ports.Clock) SyncOption {
	return func(s *SyncService) { s.clock = clock }
}

// SyncService runs sync passes: fetch, convert, reconcile, upload. At most
// one pass runs at a time.
type SyncService struct {
	session   *SessionManager
	source    ports.SourceStore
	remote    ports.RemoteService
	ledger    ports.UploadLedger
	status    ports.StatusRepository
	converter convert.Converter
	cfg       SyncConfig
	log       logrus.FieldLogger
	metrics   ports.SyncMetrics
	clock     ports.Clock
	sleep     func(ctx context.Context, d time.Duration) error

	passMu  sync.Mutex
	signals chan Signal
}

func NewSyncService(session *SessionManager, source ports.SourceStore, remote ports.RemoteService, cfg SyncConfig, opts ...SyncOption) *SyncService {
	cfg = cfg.withDefaults()
	s := &SyncService{
		session:   session,
		source:    source,
		remote:    remote,
		converter: convert.Converter{OriginName: cfg.OriginName},
		cfg:       cfg,
		signals:   make(chan Signal, 1),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	s.log = s.log.WithField("component", "sync")
	if s.metrics == nil {
		s.metrics = ports.NopMetrics{}
	}
	if s.clock == nil {
		s.clock = ports.SystemClock{}
	}
	return s
}

// Notify queues a pass. Signals arriving while one is already queued are
// coalesced into it.
func (s *SyncService) Notify(signal Signal) {
	select {
	case s.signals <- signal:
		s.log.WithField("signal", signal).Debug("sync pass queued")
	default:
		s.log.WithField("signal", signal).Debug("sync pass already queued")
	}
}

// Run executes queued passes one at a time until ctx is done.
func (s *SyncService) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case signal := <-s.signals:
			if _, err := s.RunSyncPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.log.WithError(err).WithField("signal", signal).Error("sync pass failed")
			}
		}
	}
}

// RunSyncPass runs one pass, or returns domain.ErrPassInProgress when another
// pass holds the lock.
func (s *SyncService) RunSyncPass(ctx context.Context) (PassResult, error) {
	if !s.passMu.TryLock() {
		return PassResult{}, domain.ErrPassInProgress
	}
	defer s.passMu.Unlock()

	session := s.session.Snapshot()
	if !session.Connected() {
		s.log.WithField("state", session.State).Info("session not connected, skipping sync pass")
		s.metrics.PassFinished(passOutcomeSkipped, 0)
		return PassResult{}, nil
	}

	started := s.clock.Now()
	result, err := s.runPass(ctx)
	finished := s.clock.Now()

	outcome := passOutcomeOK
	if err != nil {
		outcome = passOutcomeFailed
	}
	s.metrics.PassFinished(outcome, finished.Sub(started))
	s.saveStatus(ctx, session, result, err, started, finished)

	entry := s.log.WithFields(logrus.Fields{
		"fetched":    result.Fetched,
		"converted":  result.Converted,
		"skipped":    result.Skipped,
		"duplicates": result.Duplicates,
		"uploaded":   result.Uploaded,
		"elapsed":    finished.Sub(started).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("sync pass finished with error")
	} else {
		entry.Info("sync pass finished")
	}

	return result, err
}

// pending pairs a converted record with the document it came from so
// failures further down can log the original.
type pending struct {
	raw    domain.RawRecord
	target domain.TargetRecord
}

func (s *SyncService) runPass(ctx context.Context) (PassResult, error) {
	result := PassResult{Ran: true, DryRun: s.cfg.DryRun, Outcomes: map[reconcile.Outcome]int{}}

	raws, err := s.fetch(ctx)
	if err != nil {
		return result, err
	}
	result.Fetched = len(raws)

	converted := make([]pending, 0, len(raws))
	for _, raw := range raws {
		target, err := s.converter.ConvertRaw(raw)
		if err != nil {
			result.Skipped++
			s.metrics.RecordsSkipped("convert", 1)
			s.rawLogger(raw).WithError(err).Warn("skipping record that failed conversion")
			continue
		}
		converted = append(converted, pending{raw: raw, target: target})
	}
	result.Converted = len(converted)

	reconciler := reconcile.New()
	for _, item := range converted {
		outcome, err := reconciler.Add(item.target)
		if err != nil {
			result.Skipped++
			s.metrics.RecordsSkipped("reconcile", 1)
			s.rawLogger(item.raw).WithError(err).Warn("skipping record that failed reconciliation")
			continue
		}
		result.Outcomes[outcome]++
		if outcome == reconcile.OutcomeOverlap {
			s.rawLogger(item.raw).Warn("temp basal overlaps the following segment")
		}
	}
	for outcome, n := range result.Outcomes {
		s.metrics.RecordsReconciled(outcome.String(), n)
	}

	batch := s.unseen(reconciler.Records(), &result)
	result.Ready = len(batch)
	if len(batch) == 0 {
		return result, nil
	}

	if s.cfg.DryRun {
		s.log.WithField("records", len(batch)).Info("dry run, would upload")
		return result, nil
	}

	return result, s.upload(ctx, batch, &result)
}

// fetch returns profiles, treatments and entries in that order, each newest
// first.
func (s *SyncService) fetch(ctx context.Context) ([]domain.RawRecord, error) {
	entries, err := s.source.ListEntries(ctx, s.cfg.EntriesCount)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	s.metrics.RecordsFetched(convert.CollectionEntries, len(entries))

	treatments, err := s.source.ListTreatments(ctx, s.cfg.TreatmentsCount)
	if err != nil {
		return nil, fmt.Errorf("list treatments: %w", err)
	}
	s.metrics.RecordsFetched(convert.CollectionTreatments, len(treatments))

	since, ok := oldestTime(treatments)
	if !ok {
		since, ok = oldestTime(entries)
	}
	if !ok {
		return append(treatments, entries...), nil
	}

	profiles, err := s.source.ListProfiles(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	s.metrics.RecordsFetched(convert.CollectionProfile, len(profiles))

	raws := make([]domain.RawRecord, 0, len(profiles)+len(treatments)+len(entries))
	raws = append(raws, profiles...)
	raws = append(raws, treatments...)
	raws = append(raws, entries...)
	return raws, nil
}

func (s *SyncService) unseen(records []domain.TargetRecord, result *PassResult) []domain.TargetRecord {
	if s.ledger == nil {
		return records
	}

	out := make([]domain.TargetRecord, 0, len(records))
	for _, record := range records {
		if s.ledger.Seen(domain.RecordKey(record)) {
			result.Duplicates++
			continue
		}
		out = append(out, record)
	}
	if result.Duplicates > 0 {
		s.log.WithField("records", result.Duplicates).Debug("dropping records uploaded by an earlier pass")
	}
	return out
}

func (s *SyncService) upload(ctx context.Context, batch []domain.TargetRecord, result *PassResult) error {
	for start, chunk := 0, 0; start < len(batch); start, chunk = start+s.cfg.ChunkSize, chunk+1 {
		end := min(start+s.cfg.ChunkSize, len(batch))
		records := batch[start:end]

		if err := s.uploadChunk(ctx, chunk, records); err != nil {
			return err
		}

		keys := make([]string, 0, len(records))
		for _, record := range records {
			keys = append(keys, domain.RecordKey(record))
			if record.RecordTime().After(result.Newest) {
				result.Newest = record.RecordTime()
			}
		}
		if s.ledger != nil {
			s.ledger.Mark(keys...)
		}
		result.Uploaded += len(records)
		s.metrics.RecordsUploaded(len(records))
	}
	return nil
}

func (s *SyncService) uploadChunk(ctx context.Context, chunk int, records []domain.TargetRecord) error {
	backoff := s.cfg.UploadBackoff
	attempt := 0
	var err error

	for attempt < s.cfg.UploadAttempts {
		attempt++
		err = s.session.WithAuthRetry(ctx, func(ctx context.Context, session domain.Session) error {
			return s.remote.Upload(ctx, session.AuthToken, session.UploadTargetID, records)
		})
		if err == nil {
			s.metrics.UploadAttempt("ok")
			return nil
		}
		s.metrics.UploadAttempt("error")

		if !retryableUpload(ctx, err) || attempt == s.cfg.UploadAttempts {
			break
		}

		s.log.WithError(err).WithFields(logrus.Fields{
			"chunk":   chunk,
			"attempt": attempt,
			"backoff": backoff.String(),
		}).Warn("upload failed, retrying")
		if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
			err = errors.Join(err, sleepErr)
			break
		}
		backoff *= 2
	}

	return &domain.UploadError{Chunk: chunk, Records: len(records), Attempts: attempt, Err: err}
}

// retryableUpload reports whether another attempt could succeed. A failed or
// missing session needs an explicit reconnect first.
func retryableUpload(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var authErr *domain.AuthenticationError
	if errors.As(err, &authErr) || errors.Is(err, domain.ErrNotConnected) || errors.Is(err, domain.ErrInvalidPayload) {
		return false
	}
	var statusErr *domain.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.Status >= 400 && statusErr.Status < 500 && statusErr.Status != 429 {
		return false
	}
	return true
}

func (s *SyncService) saveStatus(ctx context.Context, session domain.Session, result PassResult, passErr error, started, finished time.Time) {
	if s.status == nil {
		return
	}

	status, err := s.status.Get(ctx)
	if err != nil && !errors.Is(err, domain.ErrStatusNotFound) {
		s.log.WithError(err).Warn("read sync status")
		return
	}

	summary := &domain.PassSummary{
		StartedAt:  started,
		FinishedAt: finished,
		Fetched:    result.Fetched,
		Converted:  result.Converted,
		Skipped:    result.Skipped,
		Uploaded:   result.Uploaded,
	}
	if passErr != nil {
		summary.Error = passErr.Error()
	}

	if status.UploadTargetID != session.UploadTargetID {
		status.HighWaterMark = time.Time{}
	}
	status.UploadTargetID = session.UploadTargetID
	if result.Newest.After(status.HighWaterMark) {
		status.HighWaterMark = result.Newest
	}
	status.LastPass = summary
	status.UpdatedAt = finished

	if err := s.status.Save(ctx, status); err != nil {
		s.log.WithError(err).Warn("save sync status")
	}
}

func (s *SyncService) rawLogger(raw domain.RawRecord) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{
		"collection": raw.Collection,
		"record_id":  raw.ID,
		"variant":    convert.Variant(raw),
		"raw":        raw.Fields,
	})
}

func oldestTime(raws []domain.RawRecord) (time.Time, bool) {
	var oldest time.Time
	for _, raw := range raws {
		record, err := convert.FromRaw(raw)
		if err != nil {
			continue
		}
		at := record.SourceTime()
		if oldest.IsZero() || at.Before(oldest) {
			oldest = at
		}
	}
	return oldest, !oldest.IsZero()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
