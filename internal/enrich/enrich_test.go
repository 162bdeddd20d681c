package enrich

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	require.NoError(t, err)
	return parsed
}

func TestLoadScoreFormula(t *testing.T) {
	cfg := config.DefaultPipeline()
	weights := []domain.WeightRecord{
		{Timestamp: ts(t, "2024-03-05 21:00:00"), WeightKg: 81.0, Source: "Withings"},
	}
	enricher := New(cfg, nil, weights)

	tests := []struct {
		name string
		row  domain.ActivityRecord
		want float64
	}{
		{
			// 60 × 2.5 × (1 + 5×0.04) + 100 × 0.1 = 180 + 10
			name: "running with measured weight",
			row: domain.ActivityRecord{
				Timestamp:      ts(t, "2024-03-05 18:30:00"),
				ActivityType:   "Running",
				DurationMin:    domain.Float(60),
				ElevationGainM: domain.Float(100),
			},
			want: 190.0,
		},
		{
			// No weight for the day: the configured default (76) applies,
			// so the penalty factor is exactly 1.
			name: "trail run with default weight",
			row: domain.ActivityRecord{
				Timestamp:      ts(t, "2024-03-10 10:00:00"),
				ActivityType:   "Trail Running",
				DurationMin:    domain.Float(90),
				ElevationGainM: domain.Float(500),
			},
			want: 320.0,
		},
		{
			// Unknown category falls back to the default coefficient 1.5.
			name: "unknown category",
			row: domain.ActivityRecord{
				Timestamp:    ts(t, "2024-03-10 10:00:00"),
				ActivityType: "Rowing",
				DurationMin:  domain.Float(40),
			},
			want: 60.0,
		},
		{
			name: "missing metrics score zero",
			row: domain.ActivityRecord{
				Timestamp:    ts(t, "2024-03-10 10:00:00"),
				ActivityType: "Tennis",
			},
			want: 0.0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows := []domain.ActivityRecord{tc.row}
			enricher.Apply(rows)
			require.NotNil(t, rows[0].LoadScore)
			require.InDelta(t, tc.want, *rows[0].LoadScore, 1e-9)
		})
	}
}

func TestLoadScoreRoundsToOneDecimal(t *testing.T) {
	cfg := config.DefaultPipeline()
	weights := []domain.WeightRecord{
		{Timestamp: ts(t, "2024-03-05 21:00:00"), WeightKg: 77.3, Source: "Withings"},
	}
	enricher := New(cfg, nil, weights)

	rows := []domain.ActivityRecord{{
		Timestamp:    ts(t, "2024-03-05 18:30:00"),
		ActivityType: "Walking",
		DurationMin:  domain.Float(33),
	}}
	enricher.Apply(rows)
	// 33 × 1.0 × (1 + 1.3×0.04) = 34.716 → 34.7
	require.InDelta(t, 34.7, *rows[0].LoadScore, 1e-9)
}

func TestEquipmentRulePriority(t *testing.T) {
	cfg := config.DefaultPipeline()
	calendar := Calendar{
		"2024-04-14": {Day: "2024-04-14", Name: "Spring Half Marathon", Equipment: "Adidas Adizero"},
	}
	enricher := New(cfg, calendar, nil)

	rows := []domain.ActivityRecord{
		// Calendar day beats everything, even a tennis session.
		{Timestamp: ts(t, "2024-04-14 09:00:00"), ActivityType: "Tennis"},
		{Timestamp: ts(t, "2024-04-15 09:00:00"), ActivityType: "Tennis"},
		{Timestamp: ts(t, "2024-04-16 09:00:00"), ActivityType: "Running"},
	}
	enricher.Apply(rows)

	require.Equal(t, "Adidas Adizero", rows[0].Equipment)
	require.Equal(t, "Spring Half Marathon", rows[0].EventName)

	require.Equal(t, cfg.RacquetEquipment, rows[1].Equipment)
	require.Equal(t, cfg.RacquetEventName, rows[1].EventName)

	require.Equal(t, cfg.DefaultEquipment, rows[2].Equipment)
	require.Equal(t, cfg.DefaultEventName, rows[2].EventName)
}

func TestEquipmentCalendarBlankFieldsFallBack(t *testing.T) {
	cfg := config.DefaultPipeline()
	calendar := Calendar{
		"2024-04-14": {Day: "2024-04-14"},
	}
	enricher := New(cfg, calendar, nil)

	rows := []domain.ActivityRecord{
		{Timestamp: ts(t, "2024-04-14 09:00:00"), ActivityType: "Running"},
	}
	enricher.Apply(rows)
	require.Equal(t, cfg.DefaultEquipment, rows[0].Equipment)
	require.Equal(t, cfg.CalendarEventName, rows[0].EventName)
}

func TestReadCalendar(t *testing.T) {
	input := strings.Join([]string{
		"Date;Name;Equipment",
		"2024-04-14;Spring Half Marathon;Adidas Adizero",
		"not-a-date;Broken;Row",
		"2024-05-01 08:00:00;Trail Race;Hoka Speedgoat",
	}, "\n")

	cal, err := ReadCalendar(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cal, 2)
	require.Equal(t, "Adidas Adizero", cal["2024-04-14"].Equipment)
	require.Equal(t, "Trail Race", cal["2024-05-01"].Name)
}

func TestLoadCalendarMissingFile(t *testing.T) {
	cal, err := LoadCalendar("does/not/exist.csv")
	require.NoError(t, err)
	require.Empty(t, cal)
}
