package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivityTypeMapsKnownVocabularies(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"running", ActivityRunning},
		{"street_running", ActivityRunning},
		{"Running", ActivityRunning},
		{"trail_running", ActivityTrailRunning},
		{"trail", ActivityTrailRunning},
		{"TrailRunning", ActivityTrailRunning},
		{"treadmill_running", ActivityTreadmillRunning},
		{"cycling", ActivityCycling},
		{"road_cycling", ActivityCycling},
		{"mountain_biking", ActivityCycling},
		{"indoor_cycling", ActivityIndoorCycling},
		{"walking", ActivityWalking},
		{"hiking", ActivityWalking},
		{"tennis", ActivityTennis},
		{"tenis", ActivityTennis},
		{"Tennis Match", ActivityTennis},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, ActivityType(tc.input), "input %q", tc.input)
	}
}

func TestActivityTypeTitleCasesUnknown(t *testing.T) {
	require.Equal(t, "Rowing", ActivityType("rowing"))
	require.Equal(t, "Cross Country Skiing", ActivityType("cross_country_skiing"))
}

func TestActivityTypeEmptyFallsBackToOther(t *testing.T) {
	require.Equal(t, ActivityOther, ActivityType(""))
	require.Equal(t, ActivityOther, ActivityType("   "))
	require.Equal(t, ActivityOther, ActivityType("nan"))
}
