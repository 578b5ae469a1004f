package convert

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
)

const (
	CollectionEntries    = "entries"
	CollectionTreatments = "treatments"
	CollectionProfile    = "profile"
)

const (
	entryTypeSGV = "sgv"

	eventTempBasal       = "Temp Basal"
	eventCorrectionBolus = "Correction Bolus"
	eventMealBolus       = "Meal Bolus"
)

// maxTreatmentDuration bounds temp basal durations so absurd values cannot
// overflow time.Duration.
const maxTreatmentDuration = 24 * time.Hour

var (
	errMissingField = errors.New("missing field")
	errNotANumber   = errors.New("missing or not a finite number")
)

// FromRaw decodes a store document into its typed source record.
func FromRaw(raw domain.RawRecord) (domain.SourceRecord, error) {
	switch raw.Collection {
	case CollectionEntries:
		return entryFromRaw(raw)
	case CollectionTreatments:
		return treatmentFromRaw(raw)
	case CollectionProfile:
		return profileFromRaw(raw)
	default:
		return nil, &domain.ConversionError{Variant: raw.Collection, RecordID: raw.ID, Err: domain.ErrUnknownVariant}
	}
}

// Variant names the kind of a store document for error reporting.
func Variant(raw domain.RawRecord) string {
	switch raw.Collection {
	case CollectionEntries:
		return fmt.Sprintf("%s/%q", raw.Collection, stringField(raw.Fields, "type"))
	case CollectionTreatments:
		return fmt.Sprintf("%s/%q", raw.Collection, stringField(raw.Fields, "eventType"))
	default:
		return raw.Collection
	}
}

func entryFromRaw(raw domain.RawRecord) (domain.SourceRecord, error) {
	if stringField(raw.Fields, "type") != entryTypeSGV {
		return nil, conversionError(raw, domain.ErrUnknownVariant)
	}

	at, err := timeField(raw.Fields, "date", "dateString")
	if err != nil {
		return nil, conversionError(raw, err)
	}
	value, ok := numberField(raw.Fields, "sgv")
	if !ok {
		return nil, conversionError(raw, fmt.Errorf("sgv: %w", errNotANumber))
	}

	return domain.GlucoseReading{
		SourceMeta: domain.SourceMeta{ID: raw.ID, Time: at},
		Value:      value,
		Device:     stringField(raw.Fields, "device"),
		Direction:  stringField(raw.Fields, "direction"),
	}, nil
}

func treatmentFromRaw(raw domain.RawRecord) (domain.SourceRecord, error) {
	at, err := timeField(raw.Fields, "created_at", "timestamp", "mills")
	if err != nil {
		return nil, conversionError(raw, err)
	}
	meta := domain.SourceMeta{ID: raw.ID, Time: at}

	switch stringField(raw.Fields, "eventType") {
	case eventTempBasal:
		rate, ok := numberField(raw.Fields, "absolute")
		if !ok {
			rate, ok = numberField(raw.Fields, "rate")
		}
		if !ok {
			return nil, conversionError(raw, fmt.Errorf("absolute rate: %w", errNotANumber))
		}
		duration, err := treatmentDuration(raw.Fields)
		if err != nil {
			return nil, conversionError(raw, err)
		}
		return domain.TempBasal{SourceMeta: meta, Rate: rate, Duration: duration}, nil

	case eventCorrectionBolus:
		insulin, ok := numberField(raw.Fields, "insulin")
		if !ok {
			return nil, conversionError(raw, fmt.Errorf("insulin: %w", errNotANumber))
		}
		return domain.CorrectionBolus{SourceMeta: meta, Insulin: insulin}, nil

	case eventMealBolus:
		carbs, ok := numberField(raw.Fields, "carbs")
		if !ok {
			return nil, conversionError(raw, fmt.Errorf("carbs: %w", errNotANumber))
		}
		insulin, _ := numberField(raw.Fields, "insulin")
		return domain.MealBolus{SourceMeta: meta, Carbs: carbs, Insulin: insulin}, nil

	default:
		return nil, conversionError(raw, domain.ErrUnknownVariant)
	}
}

func treatmentDuration(fields map[string]any) (time.Duration, error) {
	if ms, ok := numberField(fields, "durationInMilliseconds"); ok {
		return boundedDuration("durationInMilliseconds", ms, float64(time.Millisecond))
	}
	minutes, ok := numberField(fields, "duration")
	if !ok {
		return 0, fmt.Errorf("duration: %w", errNotANumber)
	}
	return boundedDuration("duration", minutes, float64(time.Minute))
}

// boundedDuration converts value units of unit nanoseconds, rejecting
// anything outside [0, maxTreatmentDuration] before the conversion.
func boundedDuration(key string, value, unit float64) (time.Duration, error) {
	nanos := math.Round(value * unit)
	if nanos < 0 || nanos > float64(maxTreatmentDuration) {
		return 0, fmt.Errorf("%s %v outside [0, %s]", key, value, maxTreatmentDuration)
	}
	return time.Duration(nanos), nil
}

func profileFromRaw(raw domain.RawRecord) (domain.SourceRecord, error) {
	at, err := timeField(raw.Fields, "startDate", "created_at", "mills")
	if err != nil {
		return nil, conversionError(raw, err)
	}

	store, ok := raw.Fields["store"].(map[string]any)
	if !ok || len(store) == 0 {
		return nil, conversionError(raw, fmt.Errorf("store: %w", errMissingField))
	}

	defaultProfile := stringField(raw.Fields, "defaultProfile")
	settings := domain.ProfileSettings{
		SourceMeta:     domain.SourceMeta{ID: raw.ID, Time: at},
		DefaultProfile: defaultProfile,
		Schedules:      make(map[string]domain.BasalSchedule, len(store)),
		Units:          stringField(raw.Fields, "units"),
	}

	names := make([]string, 0, len(store))
	for name := range store {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		entry, ok := store[name].(map[string]any)
		if !ok {
			return nil, conversionError(raw, fmt.Errorf("store %q: not an object", name))
		}
		schedule, err := basalSchedule(entry["basal"])
		if err != nil {
			return nil, conversionError(raw, fmt.Errorf("store %q: %w", name, err))
		}
		settings.Schedules[name] = schedule

		if name == defaultProfile {
			settings.Timezone = stringField(entry, "timezone")
			if units := stringField(entry, "units"); units != "" {
				settings.Units = units
			}
		}
	}

	return settings, nil
}

func basalSchedule(value any) (domain.BasalSchedule, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("basal: %w", errMissingField)
	}

	schedule := make(domain.BasalSchedule, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("basal[%d]: not an object", i)
		}
		rate, ok := numberField(entry, "value")
		if !ok {
			return nil, fmt.Errorf("basal[%d] value: %w", i, errNotANumber)
		}
		start, err := scheduleStart(entry)
		if err != nil {
			return nil, fmt.Errorf("basal[%d]: %w", i, err)
		}
		schedule = append(schedule, domain.BasalSegment{Start: start, Rate: rate})
	}

	return schedule.Normalize(), nil
}

func scheduleStart(entry map[string]any) (time.Duration, error) {
	if seconds, ok := numberField(entry, "timeAsSeconds"); ok {
		if seconds < 0 || seconds >= (24 * time.Hour).Seconds() {
			return 0, fmt.Errorf("timeAsSeconds %v outside of day", seconds)
		}
		return time.Duration(seconds * float64(time.Second)), nil
	}

	clock := stringField(entry, "time")
	if clock == "" {
		return 0, fmt.Errorf("time: %w", errMissingField)
	}
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", clock, err)
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}

func conversionError(raw domain.RawRecord, err error) error {
	return &domain.ConversionError{Variant: Variant(raw), RecordID: raw.ID, Err: err}
}

func stringField(fields map[string]any, key string) string {
	value, _ := fields[key].(string)
	return strings.TrimSpace(value)
}

// numberField reads a finite number. NaN and infinities count as absent.
func numberField(fields map[string]any, key string) (float64, bool) {
	v, ok := rawNumber(fields, key)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func rawNumber(fields map[string]any, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

// timeField returns the first usable instant among keys. Numbers are epoch
// milliseconds, strings are RFC 3339.
func timeField(fields map[string]any, keys ...string) (time.Time, error) {
	for _, key := range keys {
		switch v := fields[key].(type) {
		case time.Time:
			if !v.IsZero() {
				return v.UTC(), nil
			}
		case string:
			if v == "" {
				continue
			}
			parsed, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return time.Time{}, fmt.Errorf("parse %s %q: %w", key, v, err)
			}
			return parsed.UTC(), nil
		default:
			if ms, ok := numberField(fields, key); ok && ms > 0 {
				return time.UnixMilli(int64(ms)).UTC(), nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%s: %w", strings.Join(keys, "|"), errMissingField)
}
