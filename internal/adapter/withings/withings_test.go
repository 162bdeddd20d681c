package withings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFetchWeightsDecodesMeasureGroups(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/measure", r.URL.Path)
		require.Equal(t, "getmeas", r.URL.Query().Get("action"))
		require.Equal(t, "1,6,76", r.URL.Query().Get("meastypes"))
		require.Equal(t, "1", r.URL.Query().Get("category"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 0,
			"body": {
				"measuregrps": [
					{
						"date": 1714545021,
						"measures": [
							{"value": 81600, "type": 1, "unit": -3},
							{"value": 2145, "type": 6, "unit": -2},
							{"value": 61200, "type": 76, "unit": -3}
						]
					},
					{
						"date": 1714631421,
						"measures": [{"value": 2150, "type": 6, "unit": -2}]
					}
				]
			}
		}`))
	}))
	defer server.Close()

	source := New("id", "secret", "unused.json",
		WithAPIBase(server.URL), WithHTTPClient(server.Client()))

	rows, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	// The fat-only group carries no weight and is skipped.
	require.Len(t, rows, 1)
	require.InDelta(t, 81.6, rows[0].WeightKg, 1e-9)
	require.InDelta(t, 21.45, *rows[0].BodyFatPct, 1e-9)
	require.InDelta(t, 61.2, *rows[0].MuscleMassKg, 1e-9)
	require.Equal(t, time.Unix(1714545021, 0).Local(), rows[0].Timestamp)
	require.Equal(t, "Withings Cloud", rows[0].Source)
}

func TestFetchWeightsAPIStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status": 401, "body": {}}`))
	}))
	defer server.Close()

	source := New("id", "secret", "unused.json",
		WithAPIBase(server.URL), WithHTTPClient(server.Client()))

	_, err := source.FetchWeights(context.Background())
	require.ErrorContains(t, err, "status 401")
}

func TestFetchWeightsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	source := New("id", "secret", "unused.json",
		WithAPIBase(server.URL), WithHTTPClient(server.Client()))

	_, err := source.FetchWeights(context.Background())
	require.ErrorContains(t, err, "status 502")
}

func TestFetchWeightsUnlinkedToken(t *testing.T) {
	source := New("id", "secret", filepath.Join(t.TempDir(), "absent-token.json"))
	rows, err := source.FetchWeights(context.Background())
	require.NoError(t, err)
	require.Empty(t, rows)
}
