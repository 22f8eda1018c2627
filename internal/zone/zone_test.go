package zone

import (
	"errors"
	"math"
	"testing"

	"github.com/woozymasta/safezone/internal/config"
	"github.com/woozymasta/safezone/internal/geo"
	"github.com/woozymasta/safezone/internal/heatmap"
	"github.com/woozymasta/safezone/internal/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	p   float64
	err error
}

func (s stubScorer) PredictProbability([]float64) (float64, error) {
	return s.p, s.err
}

func registryWith(s score.Scorer) *score.Registry {
	r := score.NewRegistry()
	r.Register(score.UnsafeZoneModel, "Stub", func() (score.Scorer, error) { return s, nil })
	return r
}

func ptr[T any](v T) *T { return &v }

func mockLocations() []Location {
	return []Location{
		{
			ID:              "loc-1",
			Timestamp:       "2025-01-01T23:15:00",
			Location:        geo.Coordinate{Lat: 12.9716, Lng: 77.5946},
			RecentIncidents: 5,
			CrowdScore:      ptr(0.3),
		},
		{
			ID:              "loc-2",
			Timestamp:       "2025-01-01T20:15:00",
			Location:        geo.Coordinate{Lat: 12.9352, Lng: 77.6245},
			RecentIncidents: 1,
			CrowdScore:      ptr(0.7),
		},
		{
			Location:   geo.Coordinate{Lat: 12.95, Lng: 77.61},
			CrowdScore: ptr(0.0),
		},
	}
}

func TestFeatures(t *testing.T) {
	locs := mockLocations()

	assert.Equal(t, []float64{1, 5, 0.3, 1}, Features(locs[0]))
	assert.InDeltaSlice(t, []float64{20.0 / 23, 1, 0.7, 1}, Features(locs[1]), 1e-12)
	assert.Equal(t, []float64{0, 0, 0.5, 1}, Features(Location{}))
	assert.Equal(t, []float64{6.0 / 23, 0, 0.5, 1}, Features(Location{Hour: ptr(6), Timestamp: "2025-01-01T23:00:00"}))
	assert.Equal(t, []float64{9, 9}, Features(Location{Features: []float64{9, 9}, Hour: ptr(3)}))
}

func TestPredictWithDefaultModel(t *testing.T) {
	d := NewDetector(score.DefaultRegistry(), config.Default().Zone)
	res := d.Predict(mockLocations())

	require.Empty(t, res.Error)
	require.Len(t, res.Alerts, 3)
	require.Len(t, res.Scores, 3)

	assert.InDelta(t, 1/(1+math.Exp(-2.06)), res.Scores[0].UnsafeProbability, 1e-12)
	assert.True(t, res.Scores[0].IsUnsafe)
	assert.True(t, res.Scores[1].IsUnsafe)
	assert.False(t, res.Scores[2].IsUnsafe)

	assert.Equal(t, "loc-1", res.Alerts[0].ID)
	assert.Equal(t, "high", res.Alerts[0].Severity)
	assert.Equal(t, "unsafe-zone", res.Alerts[0].Type)
	assert.Equal(t, "Unsafe zone detected by model", res.Alerts[0].Description)
	assert.Equal(t, "2025-01-01T23:15:00", res.Alerts[0].Timestamp)

	assert.Equal(t, "unsafe-2", res.Alerts[2].ID)
	assert.Equal(t, "unsafe-2", res.Scores[2].ID)
	assert.Equal(t, "medium", res.Alerts[2].Severity)

	require.NotNil(t, res.Heatmap)
	assert.Equal(t, 20, res.Heatmap.GridSize)
	assert.Equal(t, 12.9352, res.Heatmap.Bounds.MinLat)
	assert.Equal(t, 77.6245, res.Heatmap.Bounds.MaxLng)
	assert.Equal(t, res.Scores[0].UnsafeProbability, res.Heatmap.Grid[19][0])
}

func TestPredictClampsModelOutput(t *testing.T) {
	cfg := config.Default().Zone
	cfg.HeatmapGridSize = 2

	res := NewDetector(registryWith(stubScorer{p: 3.5}), cfg).Predict(mockLocations()[:1])
	require.Empty(t, res.Error)
	assert.Equal(t, 1.0, res.Scores[0].UnsafeProbability)

	res = NewDetector(registryWith(stubScorer{p: -1}), cfg).Predict(mockLocations()[:1])
	assert.Equal(t, 0.0, res.Scores[0].UnsafeProbability)
	assert.False(t, res.Scores[0].IsUnsafe)
}

func TestPredictUsesConfiguredBounds(t *testing.T) {
	cfg := config.Default().Zone
	cfg.HeatmapGridSize = 3
	cfg.HeatmapBounds = &geo.Bounds{MinLat: 12, MaxLat: 14, MinLng: 77, MaxLng: 79}

	res := NewDetector(registryWith(stubScorer{p: 0.9}), cfg).Predict(mockLocations())
	require.Empty(t, res.Error)
	assert.Equal(t, *cfg.HeatmapBounds, res.Heatmap.Bounds)
	assert.InDelta(t, 0.9, res.Heatmap.Grid[1][1], 1e-12)
	assert.Zero(t, res.Heatmap.Grid[0][0])
}

func TestPredictEmpty(t *testing.T) {
	res := NewDetector(score.DefaultRegistry(), config.Zone{}).Predict(nil)

	assert.Empty(t, res.Error)
	assert.Empty(t, res.Alerts)
	assert.Equal(t, heatmap.DefaultGridSize, res.Heatmap.GridSize)
	assert.Equal(t, geo.UnitBounds, res.Heatmap.Bounds)
}

func TestPredictFailures(t *testing.T) {
	boom := errors.New("model crashed")
	broken := score.NewRegistry()
	broken.Register(score.UnsafeZoneModel, "Broken", func() (score.Scorer, error) { return nil, boom })

	tests := map[string]struct {
		models *score.Registry
		locs   []Location
	}{
		"model error":     {models: registryWith(stubScorer{err: boom}), locs: mockLocations()},
		"model init":      {models: broken, locs: mockLocations()},
		"missing model":   {models: score.NewRegistry(), locs: mockLocations()},
		"nan coordinate":  {models: score.DefaultRegistry(), locs: []Location{{Location: geo.Coordinate{Lat: math.NaN()}}}},
		"non-finite feat": {models: score.DefaultRegistry(), locs: []Location{{Features: []float64{math.Inf(1)}}}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			res := NewDetector(tt.models, config.Default().Zone).Predict(tt.locs)

			assert.Equal(t, PredictionError, res.Error)
			assert.Empty(t, res.Alerts)
			assert.Empty(t, res.Scores)
			assert.Equal(t, heatmap.Empty(), res.Heatmap)
		})
	}
}
