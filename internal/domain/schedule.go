package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

const day = 24 * time.Hour

var ErrEmptySchedule = errors.New("basal schedule is empty")

// BasalSegment is one entry of a basal schedule: Rate applies from Start
// (offset from local midnight) until the next segment's Start.
type BasalSegment struct {
	Start time.Duration
	Rate  float64
}

type BasalSchedule []BasalSegment

// Normalize sorts segments by start time and drops duplicate starts, keeping
// the last one seen.
func (s BasalSchedule) Normalize() BasalSchedule {
	sorted := make(BasalSchedule, len(s))
	copy(sorted, s)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := make(BasalSchedule, 0, len(sorted))
	for _, seg := range sorted {
		if n := len(out); n > 0 && out[n-1].Start == seg.Start {
			out[n-1] = seg
			continue
		}
		out = append(out, seg)
	}
	return out
}

func (s BasalSchedule) Validate() error {
	if len(s) == 0 {
		return ErrEmptySchedule
	}
	for i, seg := range s {
		if seg.Start < 0 || seg.Start >= day {
			return fmt.Errorf("segment %d: start %s outside of day", i, seg.Start)
		}
		if math.IsNaN(seg.Rate) || math.IsInf(seg.Rate, 0) {
			return fmt.Errorf("segment %d: rate %v is not a finite number", i, seg.Rate)
		}
		if seg.Rate < 0 {
			return fmt.Errorf("segment %d: negative rate %v", i, seg.Rate)
		}
		if i > 0 && seg.Start <= s[i-1].Start {
			return fmt.Errorf("segment %d: start %s not after previous", i, seg.Start)
		}
	}
	return nil
}

// RateAt returns the rate of the last segment starting at or before offset.
// A schedule whose first segment starts after midnight wraps around, so the
// last segment covers the time before it.
func (s BasalSchedule) RateAt(offset time.Duration) (float64, error) {
	if len(s) == 0 {
		return 0, ErrEmptySchedule
	}

	rate := s[len(s)-1].Rate
	for _, seg := range s {
		if seg.Start > offset {
			break
		}
		rate = seg.Rate
	}
	return rate, nil
}

// OffsetInDay is the time elapsed since midnight in t's location.
func OffsetInDay(t time.Time) time.Duration {
	h, m, sec := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(t.Nanosecond())
}
