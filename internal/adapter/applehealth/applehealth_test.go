package applehealth

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gonzaloobispo/Bioengine/internal/adapter/cache"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
)

const exportFixture = `<?xml version="1.0" encoding="UTF-8"?>
<HealthData locale="es_ES">
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Health" unit="kg" startDate="2023-05-01 07:30:21 +0100" value="81.6"/>
 <Record type="HKQuantityTypeIdentifierHeartRate" sourceName="Watch" unit="count/min" startDate="2023-05-01 07:31:00 +0100" value="62"/>
 <Record type="HKQuantityTypeIdentifierBodyMass" sourceName="Health" unit="kg" startDate="2023-05-02 07:28:10 +0100" value="81.2"/>
 <Workout workoutActivityType="HKWorkoutActivityTypeRunning" duration="48.5" startDate="2023-05-01 18:02:11 +0100" endDate="2023-05-01 18:50:41 +0100">
  <WorkoutStatistics type="HKQuantityTypeIdentifierDistanceWalkingRunning" sum="9.82" unit="km"/>
  <WorkoutStatistics type="HKQuantityTypeIdentifierActiveEnergyBurned" sum="534" unit="kcal"/>
 </Workout>
 <Workout workoutActivityType="HKWorkoutActivityTypeTennis" duration="61" startDate="2023-05-03 10:00:00 +0100" endDate="2023-05-03 11:01:00 +0100"/>
</HealthData>
`

func TestParse(t *testing.T) {
	weights, activities, err := Parse(context.Background(), strings.NewReader(exportFixture))
	require.NoError(t, err)

	require.Len(t, weights, 2)
	require.InDelta(t, 81.6, weights[0].WeightKg, 1e-9)
	require.Equal(t, "Apple Health XML", weights[0].Source)
	// The timezone suffix is stripped, not converted.
	require.Equal(t, time.Date(2023, 5, 1, 7, 30, 21, 0, time.Local), weights[0].Timestamp)

	require.Len(t, activities, 2)
	run := activities[0]
	require.Equal(t, "Running", run.ActivityType)
	require.InDelta(t, 48.5, *run.DurationMin, 1e-9)
	require.InDelta(t, 9.82, *run.DistanceKm, 1e-9)
	require.InDelta(t, 534, *run.Calories, 1e-9)

	tennis := activities[1]
	require.Equal(t, "Tennis", tennis.ActivityType)
	require.Nil(t, tennis.DistanceKm)
}

func TestFetchMissingFile(t *testing.T) {
	source := New(filepath.Join(t.TempDir(), "export.xml"), nil)

	weights, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Empty(t, weights)

	activities, err := source.FetchActivities(context.Background())
	require.NoError(t, err)
	require.Empty(t, activities)
}

func TestFetchUsesCacheUntilExportChanges(t *testing.T) {
	dir := t.TempDir()
	exportPath := filepath.Join(dir, "export.xml")
	require.NoError(t, os.WriteFile(exportPath, []byte(exportFixture), 0o644))

	store := cache.NewStore(filepath.Join(dir, "cache"))
	source := New(exportPath, store)

	first, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	// The cache entry is now newer than the export; a second fetch returns
	// the snapshot even though the file content is gone.
	require.NoError(t, os.Remove(exportPath))
	require.NoError(t, os.WriteFile(exportPath, []byte("<HealthData/>"), 0o644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(exportPath, past, past))

	second, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Len(t, second, 2)

	// Touching the export forward invalidates the snapshot.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(exportPath, future, future))
	third, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Len(t, third, 0)

	var cached []domain.WeightRecord
	require.NoError(t, store.Get("apple_health_weight", &cached))
	require.Len(t, cached, 0)
}
