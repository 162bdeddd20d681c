package csvtable

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", value, time.Local)
	require.NoError(t, err)
	return parsed
}

func sampleWeights(t *testing.T) []domain.WeightRecord {
	t.Helper()
	return []domain.WeightRecord{
		{
			Timestamp:    ts(t, "2024-03-06 21:15:00"),
			WeightKg:     82.1,
			BodyFatPct:   domain.Float(21.45),
			MuscleMassKg: domain.Float(61.2),
			Source:       domain.SourceWithings,
		},
		{
			Timestamp: ts(t, "2024-03-05 00:00:00"),
			WeightKg:  83,
			Source:    domain.SourcePesoBook,
		},
	}
}

func sampleActivities(t *testing.T) []domain.ActivityRecord {
	t.Helper()
	return []domain.ActivityRecord{
		{
			Timestamp:      ts(t, "2024-03-05 18:30:00"),
			ActivityType:   "Running",
			DistanceKm:     domain.Float(10),
			DurationMin:    domain.Float(55.5),
			Calories:       domain.Float(1234),
			AvgHeartRate:   domain.Float(152),
			MaxHeartRate:   domain.Float(181),
			ElevationGainM: domain.Float(120),
			AvgCadence:     domain.Float(172),
			Equipment:      "Brooks Adrenaline GTS 23",
			EventName:      "Training",
			LoadScore:      domain.Float(188),
			Source:         domain.SourceGarmin,
		},
	}
}

func TestWriteWeightsFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weight_master.csv")
	writer := NewWriter("es")

	require.NoError(t, writer.WriteWeights(path, sampleWeights(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "Date;Weight (kg);Body Fat (%);Muscle Mass (kg);Source", lines[0])
	require.Equal(t, "2024-03-06 21:15:00;82,10;21,45;61,20;Withings", lines[1])
	// Midnight timestamps render date-only; optional fields stay empty.
	require.Equal(t, "2024-03-05;83,00;;;PesoBook", lines[2])
}

func TestWriteActivitiesFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity_master.csv")
	writer := NewWriter("es")

	require.NoError(t, writer.WriteActivities(path, sampleActivities(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	require.Equal(t,
		"Date;Type;Distance (km);Duration (min);Calories;Avg HR;Max HR;Elevation (m);Avg Cadence;Equipment;Event;Load Score;Source",
		lines[0])
	require.Equal(t,
		"2024-03-05 18:30:00;Running;10,00;55,5;1.234;152;181;120;172;Brooks Adrenaline GTS 23;Training;188,0;Garmin",
		lines[1])
}

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	weightPath := filepath.Join(dir, "weight_master.csv")
	activityPath := filepath.Join(dir, "activity_master.csv")
	writer := NewWriter("es")
	reader := NewReader("es")

	require.NoError(t, writer.WriteWeights(weightPath, sampleWeights(t)))
	require.NoError(t, writer.WriteActivities(activityPath, sampleActivities(t)))

	weights, err := reader.ReadWeights(weightPath)
	require.NoError(t, err)
	require.Len(t, weights, 2)
	require.InDelta(t, 82.1, weights[0].WeightKg, 1e-9)
	require.NotNil(t, weights[0].BodyFatPct)
	require.InDelta(t, 21.45, *weights[0].BodyFatPct, 1e-9)
	require.Nil(t, weights[1].BodyFatPct)

	activities, err := reader.ReadActivities(activityPath)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	require.InDelta(t, 1234, *activities[0].Calories, 1e-9, "grouped integers must read back exactly")
	require.InDelta(t, 55.5, *activities[0].DurationMin, 1e-9)
	require.Equal(t, "Brooks Adrenaline GTS 23", activities[0].Equipment)

	// Writing what was read reproduces the file byte for byte.
	secondPath := filepath.Join(dir, "weight_master_2.csv")
	require.NoError(t, writer.WriteWeights(secondPath, weights))
	first, err := os.ReadFile(weightPath)
	require.NoError(t, err)
	second, err := os.ReadFile(secondPath)
	require.NoError(t, err)
	require.Equal(t, string(first), string(second))
}

func TestReadMissingFileIsEmptyTable(t *testing.T) {
	reader := NewReader("es")
	rows, err := reader.ReadWeights(filepath.Join(t.TempDir(), "absent.csv"))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestWriteReplacesExistingFileAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weight_master.csv")
	writer := NewWriter("es")

	require.NoError(t, writer.WriteWeights(path, sampleWeights(t)))
	require.NoError(t, writer.WriteWeights(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "Date;Weight (kg);Body Fat (%);Muscle Mass (kg);Source\n", string(data))

	// No stray temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
