package domain

import (
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata"
)

type TargetType string

const (
	TargetTypeContinuousGlucose TargetType = "cbg"
	TargetTypeBasal             TargetType = "basal"
	TargetTypeBolus             TargetType = "bolus"
	TargetTypeFood              TargetType = "food"
	TargetTypePumpSettings      TargetType = "pumpSettings"
)

type DeliveryType string

const (
	DeliveryTypeScheduled DeliveryType = "scheduled"
	DeliveryTypeTemp      DeliveryType = "temp"
)

func (d DeliveryType) Valid() bool {
	switch d {
	case DeliveryTypeScheduled, DeliveryTypeTemp:
		return true
	default:
		return false
	}
}

type Origin struct {
	ID   string
	Name string
	Type string
}

// TargetRecord is one of ContinuousGlucose, Basal, NormalBolus, Food or
// PumpSettings, mirroring the remote data model.
type TargetRecord interface {
	Type() TargetType
	RecordTime() time.Time
	RecordOrigin() Origin
	Accept(v TargetVisitor) error

	targetRecord()
}

type TargetVisitor interface {
	VisitContinuousGlucose(ContinuousGlucose) error
	VisitBasal(Basal) error
	VisitNormalBolus(NormalBolus) error
	VisitFood(Food) error
	VisitPumpSettings(PumpSettings) error
}

type TargetMeta struct {
	Time   time.Time
	Origin Origin
}

func (m TargetMeta) RecordTime() time.Time { return m.Time }
func (m TargetMeta) RecordOrigin() Origin  { return m.Origin }
func (TargetMeta) targetRecord()           {}

type ContinuousGlucose struct {
	TargetMeta
	Units string
	Value float64
}

func (ContinuousGlucose) Type() TargetType { return TargetTypeContinuousGlucose }

func (r ContinuousGlucose) Accept(v TargetVisitor) error { return v.VisitContinuousGlucose(r) }

// SuppressedBasal describes the scheduled basal a temp basal overrides.
type SuppressedBasal struct {
	DeliveryType DeliveryType
	Rate         float64
	ScheduleName string
}

type Basal struct {
	TargetMeta
	DeliveryType DeliveryType
	Duration     time.Duration
	Rate         float64
	Suppressed   *SuppressedBasal
}

func (Basal) Type() TargetType { return TargetTypeBasal }

func (r Basal) Accept(v TargetVisitor) error { return v.VisitBasal(r) }

// End is the instant the segment stops delivering.
func (r Basal) End() time.Time {
	return r.Time.Add(r.Duration)
}

type NormalBolus struct {
	TargetMeta
	Normal float64
}

func (NormalBolus) Type() TargetType { return TargetTypeBolus }

func (r NormalBolus) Accept(v TargetVisitor) error { return v.VisitNormalBolus(r) }

type Food struct {
	TargetMeta
	// Carbohydrate is the net carbohydrate amount in grams.
	Carbohydrate float64
}

func (Food) Type() TargetType { return TargetTypeFood }

func (r Food) Accept(v TargetVisitor) error { return v.VisitFood(r) }

type PumpSettings struct {
	TargetMeta
	ActiveSchedule string
	BasalSchedules map[string]BasalSchedule
	Units          string
	Timezone       string
}

func (PumpSettings) Type() TargetType { return TargetTypePumpSettings }

func (r PumpSettings) Accept(v TargetVisitor) error { return v.VisitPumpSettings(r) }

// ScheduledRateAt returns the rate of the active schedule in effect at t,
// evaluated in the settings' timezone.
func (r PumpSettings) ScheduledRateAt(t time.Time) (float64, error) {
	schedule, ok := r.BasalSchedules[r.ActiveSchedule]
	if !ok {
		return 0, fmt.Errorf("active schedule %q not found", r.ActiveSchedule)
	}

	loc := time.UTC
	if r.Timezone != "" {
		if l, err := time.LoadLocation(r.Timezone); err == nil {
			loc = l
		}
	}

	return schedule.RateAt(OffsetInDay(t.In(loc)))
}

// RecordKey identifies a target record for idempotent submission. Basal
// segments include their duration since reconciliation may stretch them.
func RecordKey(record TargetRecord) string {
	key := string(record.Type()) + "|" + record.RecordOrigin().ID + "|" + strconv.FormatInt(record.RecordTime().UnixMilli(), 10)
	if basal, ok := record.(Basal); ok {
		key += "|" + strconv.FormatInt(basal.Duration.Milliseconds(), 10)
	}
	return key
}
