package domain

import "time"

// RawRecord is an untyped document as it came out of the source store.
type RawRecord struct {
	Collection string
	ID         string
	Fields     map[string]any
}

// SourceRecord is one of GlucoseReading, TempBasal, CorrectionBolus, MealBolus
// or ProfileSettings. The set is closed: consumers dispatch through
// SourceVisitor so a new variant fails to compile until every consumer handles it.
type SourceRecord interface {
	SourceID() string
	SourceTime() time.Time
	Accept(v SourceVisitor) (TargetRecord, error)

	sourceRecord()
}

type SourceVisitor interface {
	VisitGlucoseReading(GlucoseReading) (TargetRecord, error)
	VisitTempBasal(TempBasal) (TargetRecord, error)
	VisitCorrectionBolus(CorrectionBolus) (TargetRecord, error)
	VisitMealBolus(MealBolus) (TargetRecord, error)
	VisitProfileSettings(ProfileSettings) (TargetRecord, error)
}

type SourceMeta struct {
	ID   string
	Time time.Time
}

func (m SourceMeta) SourceID() string      { return m.ID }
func (m SourceMeta) SourceTime() time.Time { return m.Time }
func (SourceMeta) sourceRecord()           {}

type GlucoseReading struct {
	SourceMeta
	// Value is in mg/dL.
	Value     float64
	Device    string
	Direction string
}

func (r GlucoseReading) Accept(v SourceVisitor) (TargetRecord, error) {
	return v.VisitGlucoseReading(r)
}

type TempBasal struct {
	SourceMeta
	// Rate is in U/h.
	Rate     float64
	Duration time.Duration
}

func (r TempBasal) Accept(v SourceVisitor) (TargetRecord, error) {
	return v.VisitTempBasal(r)
}

type CorrectionBolus struct {
	SourceMeta
	Insulin float64
}

func (r CorrectionBolus) Accept(v SourceVisitor) (TargetRecord, error) {
	return v.VisitCorrectionBolus(r)
}

type MealBolus struct {
	SourceMeta
	Carbs   float64
	Insulin float64
}

func (r MealBolus) Accept(v SourceVisitor) (TargetRecord, error) {
	return v.VisitMealBolus(r)
}

type ProfileSettings struct {
	SourceMeta
	// DefaultProfile selects the active entry of Schedules.
	DefaultProfile string
	Schedules      map[string]BasalSchedule
	Units          string
	Timezone       string
}

func (r ProfileSettings) Accept(v SourceVisitor) (TargetRecord, error) {
	return v.VisitProfileSettings(r)
}
