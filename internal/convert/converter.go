// Package convert maps monitoring-store documents onto the remote data model,
// one record at a time.
package convert

import (
	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

const (
	DefaultOriginName = "com.github.nightscout.cgm-remote-monitor.tidepool-sync"
	OriginTypeService = "service"

	unitsMgdL  = "mg/dL"
	unitsGrams = "grams"
)

// Converter is stateless; the zero value uses DefaultOriginName.
type Converter struct {
	OriginName string
}

var _ domain.SourceVisitor = Converter{}

// ConvertRaw decodes raw and converts the result.
func (c Converter) ConvertRaw(raw domain.RawRecord) (domain.TargetRecord, error) {
	record, err := FromRaw(raw)
	if err != nil {
		return nil, err
	}
	return c.Convert(record)
}

// Convert maps record onto its target variant and validates the result.
func (c Converter) Convert(record domain.SourceRecord) (domain.TargetRecord, error) {
	target, err := record.Accept(c)
	if err != nil {
		return nil, err
	}
	if err := Validate(target); err != nil {
		return nil, &domain.ConversionError{Variant: string(target.Type()), RecordID: record.SourceID(), Err: err}
	}
	return target, nil
}

func (c Converter) VisitGlucoseReading(r domain.GlucoseReading) (domain.TargetRecord, error) {
	return domain.ContinuousGlucose{
		TargetMeta: c.meta(r.SourceMeta),
		Units:      unitsMgdL,
		Value:      r.Value,
	}, nil
}

func (c Converter) VisitTempBasal(r domain.TempBasal) (domain.TargetRecord, error) {
	return domain.Basal{
		TargetMeta:   c.meta(r.SourceMeta),
		DeliveryType: domain.DeliveryTypeTemp,
		Duration:     r.Duration,
		Rate:         r.Rate,
	}, nil
}

func (c Converter) VisitCorrectionBolus(r domain.CorrectionBolus) (domain.TargetRecord, error) {
	return domain.NormalBolus{
		TargetMeta: c.meta(r.SourceMeta),
		Normal:     r.Insulin,
	}, nil
}

func (c Converter) VisitMealBolus(r domain.MealBolus) (domain.TargetRecord, error) {
	return domain.Food{
		TargetMeta:   c.meta(r.SourceMeta),
		Carbohydrate: r.Carbs,
	}, nil
}

func (c Converter) VisitProfileSettings(r domain.ProfileSettings) (domain.TargetRecord, error) {
	schedules := make(map[string]domain.BasalSchedule, len(r.Schedules))
	for name, schedule := range r.Schedules {
		schedules[name] = schedule.Normalize()
	}

	units := r.Units
	if units == "" {
		units = unitsMgdL
	}

	return domain.PumpSettings{
		TargetMeta:     c.meta(r.SourceMeta),
		ActiveSchedule: r.DefaultProfile,
		BasalSchedules: schedules,
		Units:          units,
		Timezone:       r.Timezone,
	}, nil
}

func (c Converter) meta(source domain.SourceMeta) domain.TargetMeta {
	name := c.OriginName
	if name == "" {
		name = DefaultOriginName
	}
	return domain.TargetMeta{
		Time: source.Time.UTC(),
		Origin: domain.Origin{
			ID:   source.ID,
			Name: name,
			Type: OriginTypeService,
		},
	}
}
