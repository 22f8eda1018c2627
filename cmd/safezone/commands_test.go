package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatmapCommandGridSizeLimit(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "points.json")
	require.NoError(t, os.WriteFile(in, []byte(`{"gridSize": 5000, "points": [{"lat": 1, "lng": 1, "score": 0.5}]}`), 0o600))

	out := filepath.Join(dir, "heatmap.json")
	cmd := &heatmapCommand{
		In:  inputOptions{Input: in, InFormat: "json"},
		Out: outputOptions{Output: out, Format: "json"},
	}

	err := cmd.Execute(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zone.max_grid_size 256")
	assert.NoFileExists(t, out)

	cmd.GridSize = 8
	require.NoError(t, cmd.Execute(nil))
	assert.FileExists(t, out)
}
