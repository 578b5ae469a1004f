// Package reconcile stitches converted basal segments into the contiguous
// timeline the remote data model expects.
//
// Records are fed newest first. Each temp basal is annotated with the
// scheduled rate it suppresses and joined to the segment placed before it
// (which is the chronologically later one): small gaps are closed by
// stretching the new segment, larger ones are filled with a synthetic
// scheduled segment.
package reconcile

import (
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

// MergeThreshold separates gaps that are closed by stretching a segment from
// gaps that get a synthetic scheduled segment.
const MergeThreshold = time.Minute

const syntheticOriginPrefix = "post-"

type Outcome int

const (
	// OutcomePassedThrough is any non-basal record.
	OutcomePassedThrough Outcome = iota
	// OutcomeAppended is a basal placed without repair: the first one, or one
	// that already ends exactly where the later segment starts.
	OutcomeAppended
	OutcomeMerged
	OutcomeFilled
	// OutcomeOverlap is a basal that runs past the start of the later segment.
	// It is placed unchanged.
	OutcomeOverlap
)

func (o Outcome) String() string {
	switch o {
	case OutcomePassedThrough:
		return "passed-through"
	case OutcomeAppended:
		return "appended"
	case OutcomeMerged:
		return "merged"
	case OutcomeFilled:
		return "filled"
	case OutcomeOverlap:
		return "overlap"
	default:
		return "unknown"
	}
}

type Reconciler struct {
	profiles []domain.PumpSettings
	previous *domain.Basal
	out      []domain.TargetRecord
}

func New() *Reconciler {
	return &Reconciler{}
}

// Add places record after everything added so far. A temp basal that cannot
// be annotated returns a *domain.ReconciliationError and is not placed.
func (r *Reconciler) Add(record domain.TargetRecord) (Outcome, error) {
	switch rec := record.(type) {
	case domain.PumpSettings:
		r.profiles = append(r.profiles, rec)
		r.out = append(r.out, rec)
		return OutcomePassedThrough, nil
	case domain.Basal:
		if rec.DeliveryType != domain.DeliveryTypeTemp {
			r.place(rec)
			return OutcomeAppended, nil
		}
		return r.addTempBasal(rec)
	default:
		r.out = append(r.out, record)
		return OutcomePassedThrough, nil
	}
}

// Records returns the reconciled batch in processing order.
func (r *Reconciler) Records() []domain.TargetRecord {
	out := make([]domain.TargetRecord, len(r.out))
	copy(out, r.out)
	return out
}

func (r *Reconciler) addTempBasal(basal domain.Basal) (Outcome, error) {
	profile, ok := r.profileAt(basal.Time)
	if !ok {
		return 0, &domain.ReconciliationError{Reason: domain.ReasonNoActiveProfile, RecordID: basal.Origin.ID}
	}

	scheduled, err := profile.ScheduledRateAt(basal.Time)
	if err != nil {
		return 0, &domain.ReconciliationError{Reason: domain.ReasonScheduleLookup, RecordID: basal.Origin.ID, Err: err}
	}
	basal.Suppressed = &domain.SuppressedBasal{
		DeliveryType: domain.DeliveryTypeScheduled,
		Rate:         scheduled,
		ScheduleName: profile.ActiveSchedule,
	}

	if r.previous == nil {
		r.place(basal)
		return OutcomeAppended, nil
	}

	later := *r.previous
	gap := later.Time.Sub(basal.End())
	switch {
	case gap < 0:
		r.place(basal)
		return OutcomeOverlap, nil
	case gap == 0:
		r.place(basal)
		return OutcomeAppended, nil
	case gap < MergeThreshold:
		basal.Duration = later.Time.Sub(basal.Time)
		r.place(basal)
		return OutcomeMerged, nil
	}

	fillRate, err := profile.ScheduledRateAt(basal.End())
	if err != nil {
		return 0, &domain.ReconciliationError{Reason: domain.ReasonScheduleLookup, RecordID: basal.Origin.ID, Err: err}
	}
	filler := domain.Basal{
		TargetMeta: domain.TargetMeta{
			Time: basal.End(),
			Origin: domain.Origin{
				ID:   syntheticOriginPrefix + basal.Origin.ID,
				Name: basal.Origin.Name,
				Type: basal.Origin.Type,
			},
		},
		DeliveryType: domain.DeliveryTypeScheduled,
		Duration:     gap,
		Rate:         fillRate,
	}
	r.out = append(r.out, filler)
	r.place(basal)
	return OutcomeFilled, nil
}

func (r *Reconciler) place(basal domain.Basal) {
	r.out = append(r.out, basal)
	r.previous = &basal
}

// profileAt picks the newest profile that started at or before t. When every
// known profile started later, the oldest one is the closest approximation.
func (r *Reconciler) profileAt(t time.Time) (domain.PumpSettings, bool) {
	if len(r.profiles) == 0 {
		return domain.PumpSettings{}, false
	}

	var active, oldest *domain.PumpSettings
	for i := range r.profiles {
		p := &r.profiles[i]
		if oldest == nil || p.Time.Before(oldest.Time) {
			oldest = p
		}
		if p.Time.After(t) {
			continue
		}
		if active == nil || p.Time.After(active.Time) {
			active = p
		}
	}

	if active == nil {
		return *oldest, true
	}
	return *active, true
}
