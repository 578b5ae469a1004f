package tidepool

import (
	"fmt"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

type originPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type basePayload struct {
	Type   string        `json:"type"`
	Time   string        `json:"time"`
	Origin originPayload `json:"origin"`
}

type cbgPayload struct {
	basePayload
	Units string  `json:"units"`
	Value float64 `json:"value"`
}

type suppressedPayload struct {
	Type         string  `json:"type"`
	DeliveryType string  `json:"deliveryType"`
	Rate         float64 `json:"rate"`
	ScheduleName string  `json:"scheduleName,omitempty"`
}

type basalPayload struct {
	basePayload
	DeliveryType string             `json:"deliveryType"`
	Duration     int64              `json:"duration"`
	Rate         float64            `json:"rate"`
	Suppressed   *suppressedPayload `json:"suppressed,omitempty"`
}

type bolusPayload struct {
	basePayload
	SubType string  `json:"subType"`
	Normal  float64 `json:"normal"`
}

type carbohydratePayload struct {
	Net   float64 `json:"net"`
	Units string  `json:"units"`
}

type foodPayload struct {
	basePayload
	Nutrition struct {
		Carbohydrate carbohydratePayload `json:"carbohydrate"`
	} `json:"nutrition"`
}

type scheduleEntryPayload struct {
	Start int64   `json:"start"`
	Rate  float64 `json:"rate"`
}

type unitsPayload struct {
	Carb string `json:"carb"`
	BG   string `json:"bg"`
}

type pumpSettingsPayload struct {
	basePayload
	ActiveSchedule string                            `json:"activeSchedule"`
	BasalSchedules map[string][]scheduleEntryPayload `json:"basalSchedules"`
	Units          unitsPayload                      `json:"units"`
	Timezone       string                            `json:"timezone,omitempty"`
}

// EncodeRecords maps records onto the platform's JSON data model.
func EncodeRecords(records []domain.TargetRecord) ([]any, error) {
	payload := make([]any, 0, len(records))
	for _, record := range records {
		var enc encoder
		if err := record.Accept(&enc); err != nil {
			return nil, fmt.Errorf("encode %s %s: %w: %w", record.Type(), record.RecordOrigin().ID, domain.ErrInvalidPayload, err)
		}
		payload = append(payload, enc.out)
	}
	return payload, nil
}

type encoder struct {
	out any
}

var _ domain.TargetVisitor = (*encoder)(nil)

func (e *encoder) VisitContinuousGlucose(r domain.ContinuousGlucose) error {
	e.out = cbgPayload{
		basePayload: base(r.Type(), r.TargetMeta),
		Units:       r.Units,
		Value:       r.Value,
	}
	return nil
}

func (e *encoder) VisitBasal(r domain.Basal) error {
	payload := basalPayload{
		basePayload:  base(r.Type(), r.TargetMeta),
		DeliveryType: string(r.DeliveryType),
		Duration:     r.Duration.Milliseconds(),
		Rate:         r.Rate,
	}
	if r.Suppressed != nil {
		payload.Suppressed = &suppressedPayload{
			Type:         string(domain.TargetTypeBasal),
			DeliveryType: string(r.Suppressed.DeliveryType),
			Rate:         r.Suppressed.Rate,
			ScheduleName: r.Suppressed.ScheduleName,
		}
	}
	e.out = payload
	return nil
}

func (e *encoder) VisitNormalBolus(r domain.NormalBolus) error {
	e.out = bolusPayload{
		basePayload: base(r.Type(), r.TargetMeta),
		SubType:     "normal",
		Normal:      r.Normal,
	}
	return nil
}

func (e *encoder) VisitFood(r domain.Food) error {
	payload := foodPayload{basePayload: base(r.Type(), r.TargetMeta)}
	payload.Nutrition.Carbohydrate = carbohydratePayload{Net: r.Carbohydrate, Units: "grams"}
	e.out = payload
	return nil
}

func (e *encoder) VisitPumpSettings(r domain.PumpSettings) error {
	schedules := make(map[string][]scheduleEntryPayload, len(r.BasalSchedules))
	for name, schedule := range r.BasalSchedules {
		entries := make([]scheduleEntryPayload, 0, len(schedule))
		for _, segment := range schedule {
			entries = append(entries, scheduleEntryPayload{
				Start: segment.Start.Milliseconds(),
				Rate:  segment.Rate,
			})
		}
		schedules[name] = entries
	}

	e.out = pumpSettingsPayload{
		basePayload:    base(r.Type(), r.TargetMeta),
		ActiveSchedule: r.ActiveSchedule,
		BasalSchedules: schedules,
		Units:          unitsPayload{Carb: "grams", BG: r.Units},
		Timezone:       r.Timezone,
	}
	return nil
}

func base(kind domain.TargetType, meta domain.TargetMeta) basePayload {
	return basePayload{
		Type: string(kind),
		Time: formatTime(meta.Time),
		Origin: originPayload{
			ID:   meta.Origin.ID,
			Name: meta.Origin.Name,
			Type: meta.Origin.Type,
		},
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
