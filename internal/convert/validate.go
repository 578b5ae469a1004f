package convert

import (
	"fmt"
	"math"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

// Validate checks the fields the remote service requires of record.
func Validate(record domain.TargetRecord) error {
	if record.RecordTime().IsZero() {
		return fmt.Errorf("%w: time is required", domain.ErrInvalidRecord)
	}
	origin := record.RecordOrigin()
	if origin.ID == "" {
		return fmt.Errorf("%w: origin id is required", domain.ErrInvalidRecord)
	}
	if origin.Name == "" {
		return fmt.Errorf("%w: origin name is required", domain.ErrInvalidRecord)
	}
	return record.Accept(validator{})
}

type validator struct{}

var _ domain.TargetVisitor = validator{}

func (validator) VisitContinuousGlucose(r domain.ContinuousGlucose) error {
	if r.Units == "" {
		return invalid("units are required")
	}
	if err := finite("glucose value", r.Value); err != nil {
		return err
	}
	if r.Value <= 0 {
		return invalid("glucose value %v must be positive", r.Value)
	}
	return nil
}

func (validator) VisitBasal(r domain.Basal) error {
	if !r.DeliveryType.Valid() {
		return invalid("unrecognized delivery type %q", r.DeliveryType)
	}
	if r.Duration < 0 {
		return invalid("negative duration %s", r.Duration)
	}
	if err := finite("rate", r.Rate); err != nil {
		return err
	}
	if r.Rate < 0 {
		return invalid("negative rate %v", r.Rate)
	}
	if r.Suppressed != nil {
		if r.Suppressed.DeliveryType != domain.DeliveryTypeScheduled {
			return invalid("suppressed delivery type %q must be scheduled", r.Suppressed.DeliveryType)
		}
		if err := finite("suppressed rate", r.Suppressed.Rate); err != nil {
			return err
		}
		if r.Suppressed.Rate < 0 {
			return invalid("negative suppressed rate %v", r.Suppressed.Rate)
		}
	}
	return nil
}

func (validator) VisitNormalBolus(r domain.NormalBolus) error {
	if err := finite("bolus", r.Normal); err != nil {
		return err
	}
	if r.Normal < 0 {
		return invalid("negative bolus %v", r.Normal)
	}
	return nil
}

func (validator) VisitFood(r domain.Food) error {
	if err := finite("carbohydrate", r.Carbohydrate); err != nil {
		return err
	}
	if r.Carbohydrate < 0 {
		return invalid("negative carbohydrate %v", r.Carbohydrate)
	}
	return nil
}

func (validator) VisitPumpSettings(r domain.PumpSettings) error {
	if r.ActiveSchedule == "" {
		return invalid("active schedule is required")
	}
	if _, ok := r.BasalSchedules[r.ActiveSchedule]; !ok {
		return invalid("active schedule %q has no basal schedule", r.ActiveSchedule)
	}
	for name, schedule := range r.BasalSchedules {
		if err := schedule.Validate(); err != nil {
			return invalid("basal schedule %q: %v", name, err)
		}
	}
	return nil
}

// finite rejects NaN and infinities, which have no JSON encoding.
func finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid("%s %v is not a finite number", field, v)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRecord, fmt.Sprintf(format, args...))
}
