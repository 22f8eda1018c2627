package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/woozymasta/safezone/internal/heatmap"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string  `json:"displayName"`
	Score float64 `json:"score"`
}

func TestEncode(t *testing.T) {
	v := sample{Name: "a", Score: 0.5}

	data, err := encode("json", false, v, nil)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"displayName\": \"a\",\n  \"score\": 0.5\n}\n", string(data))

	data, err = encode("json", true, v, nil)
	require.NoError(t, err)
	assert.Equal(t, "{\"displayName\":\"a\",\"score\":0.5}\n", string(data))

	data, err = encode("yaml", false, v, nil)
	require.NoError(t, err)
	assert.Equal(t, "displayName: a\nscore: 0.5\n", string(data))

	_, err = encode("geojson", false, v, nil)
	assert.Error(t, err)

	data, err = encode("geojson", true, v, geojson.NewFeatureCollection())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type": "FeatureCollection", "features": []}`, string(data))
}

func TestRenderHeatmap(t *testing.T) {
	h, err := heatmap.Build([]heatmap.Point{{Lat: 0, Lng: 0, Score: 1}, {Lat: 1, Lng: 1, Score: 0.5}}, 2, nil)
	require.NoError(t, err)

	dir := t.TempDir()
	r := renderOptions{
		Image:       filepath.Join(dir, "heatmap.webp"),
		ImageSize:   16,
		Tiles:       filepath.Join(dir, "tiles"),
		ZoomLimit:   1,
		TileSize:    8,
		Concurrency: 2,
	}
	require.NoError(t, renderHeatmap(h, r))

	info, err := os.Stat(r.Image)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
	assert.FileExists(t, filepath.Join(dir, "tiles", "1", "1", "1.webp"))

	assert.NoError(t, renderHeatmap(h, renderOptions{}))
}
