package tidepool

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bnema/nightscout-tidepool-sync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecords(t *testing.T) {
	t.Parallel()

	meta := domain.TargetMeta{
		Time:   time.Date(2026, 5, 9, 10, 0, 0, 500_000_000, time.FixedZone("CEST", 2*60*60)),
		Origin: domain.Origin{ID: "abc", Name: "uploader", Type: "service"},
	}
	origin := `"time":"2026-05-09T08:00:00.500Z","origin":{"id":"abc","name":"uploader","type":"service"}`

	tests := []struct {
		name   string
		record domain.TargetRecord
		want   string
	}{
		{
			name:   "continuous glucose",
			record: domain.ContinuousGlucose{TargetMeta: meta, Units: "mg/dL", Value: 104},
			want:   `{"type":"cbg",` + origin + `,"units":"mg/dL","value":104}`,
		},
		{
			name: "temp basal with suppressed schedule",
			record: domain.Basal{
				TargetMeta:   meta,
				DeliveryType: domain.DeliveryTypeTemp,
				Duration:     30 * time.Minute,
				Rate:         2,
				Suppressed:   &domain.SuppressedBasal{DeliveryType: domain.DeliveryTypeScheduled, Rate: 1, ScheduleName: "A"},
			},
			want: `{"type":"basal",` + origin + `,"deliveryType":"temp","duration":1800000,"rate":2,
				"suppressed":{"type":"basal","deliveryType":"scheduled","rate":1,"scheduleName":"A"}}`,
		},
		{
			name:   "scheduled basal",
			record: domain.Basal{TargetMeta: meta, DeliveryType: domain.DeliveryTypeScheduled, Duration: time.Minute, Rate: 0.8},
			want:   `{"type":"basal",` + origin + `,"deliveryType":"scheduled","duration":60000,"rate":0.8}`,
		},
		{
			name:   "normal bolus",
			record: domain.NormalBolus{TargetMeta: meta, Normal: 1.25},
			want:   `{"type":"bolus",` + origin + `,"subType":"normal","normal":1.25}`,
		},
		{
			name:   "food",
			record: domain.Food{TargetMeta: meta, Carbohydrate: 45},
			want:   `{"type":"food",` + origin + `,"nutrition":{"carbohydrate":{"net":45,"units":"grams"}}}`,
		},
		{
			name: "pump settings",
			record: domain.PumpSettings{
				TargetMeta:     meta,
				ActiveSchedule: "A",
				BasalSchedules: map[string]domain.BasalSchedule{
					"A": {{Start: 0, Rate: 0.8}, {Start: 6 * time.Hour, Rate: 1.2}},
				},
				Units:    "mmol/L",
				Timezone: "Europe/Amsterdam",
			},
			want: `{"type":"pumpSettings",` + origin + `,"activeSchedule":"A",
				"basalSchedules":{"A":[{"start":0,"rate":0.8},{"start":21600000,"rate":1.2}]},
				"units":{"carb":"grams","bg":"mmol/L"},"timezone":"Europe/Amsterdam"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := EncodeRecords([]domain.TargetRecord{tt.record})
			require.NoError(t, err)
			require.Len(t, payload, 1)

			encoded, err := json.Marshal(payload[0])
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(encoded))
		})
	}
}
