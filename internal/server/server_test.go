package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/woozymasta/safezone/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xwebp "golang.org/x/image/webp"
)

type envelope struct {
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	RequestID string          `json:"requestId"`
	Success   bool            `json:"success"`
}

func newTestServer() *ServerContext {
	return NewServerContext(config.Default())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "OK", env.Message)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, env.RequestID, rec.Header().Get(RequestIDHeader))
	assert.JSONEq(t, `{"models": 2}`, string(env.Data))
}

func TestRequestIDReused(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", decode(t, rec).RequestID)
}

func TestOptimize(t *testing.T) {
	h := newTestServer().Handler()

	rec := do(t, h, http.MethodPost, "/api/routes/optimize", `{"routes": [
		[{"lat": 12.9716, "lng": 77.5946}, {"lat": 12.2958, "lng": 76.6394}],
		[{"lat": 12.9716, "lng": 77.5946}, {"lat": 12.9750, "lng": 77.6200}]
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "Safe route computed", env.Message)

	var res struct {
		BestIndex *int `json:"bestIndex"`
		Summaries []struct {
			Index           int      `json:"index"`
			GraphDistanceKm *float64 `json:"graphDistanceKm"`
			IsRecommended   bool     `json:"isRecommended"`
		} `json:"summaries"`
		GraphUsed bool `json:"graphUsed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.NotNil(t, res.BestIndex)
	assert.Equal(t, 1, *res.BestIndex)
	assert.True(t, res.GraphUsed)
	require.Len(t, res.Summaries, 2)
	assert.True(t, res.Summaries[0].IsRecommended)
	assert.NotNil(t, res.Summaries[0].GraphDistanceKm)

	rec = do(t, h, http.MethodPost, "/api/routes/optimize", `{"routes": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"bestIndex": null, "bestRoute": null, "summaries": [], "graphUsed": false}`, string(decode(t, rec).Data))
}

func TestBadRequests(t *testing.T) {
	h := newTestServer().Handler()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{name: "empty body", method: http.MethodPost, path: "/api/routes/optimize", status: http.StatusBadRequest},
		{name: "not json", method: http.MethodPost, path: "/api/zones/predict", body: "{", status: http.StatusBadRequest},
		{name: "wrong type", method: http.MethodPost, path: "/api/sos-risk", body: `{"speedKmh": "fast"}`, status: http.StatusBadRequest},
		{name: "bad grid", method: http.MethodPost, path: "/api/heatmap", body: `{"gridSize": 0, "points": []}`, status: http.StatusUnprocessableEntity},
		{name: "grid too large", method: http.MethodPost, path: "/api/heatmap", body: `{"gridSize": 100000, "points": []}`, status: http.StatusBadRequest},
		{name: "image grid too large", method: http.MethodPost, path: "/api/heatmap/image?size=16", body: `{"gridSize": 3000, "points": []}`, status: http.StatusBadRequest},
		{name: "geojson grid too large", method: http.MethodPost, path: "/api/heatmap/geojson", body: `{"gridSize": 257, "points": []}`, status: http.StatusBadRequest},
		{name: "bad size", method: http.MethodPost, path: "/api/heatmap/image?size=0", body: `{"points": []}`, status: http.StatusBadRequest},
		{name: "unknown path", method: http.MethodGet, path: "/api/nope", status: http.StatusNotFound},
		{name: "wrong method", method: http.MethodGet, path: "/api/routes/optimize", status: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)

			env := decode(t, rec)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Message)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer()
	s.MaxBodyBytes = 16

	rec := do(t, s.Handler(), http.MethodPost, "/api/night-mode", `{"unsafeProbability": 0.7, "incidentScore": 0.4}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHeatmapGridSizeAtLimit(t *testing.T) {
	s := newTestServer()
	s.Config.Zone.MaxGridSize = 4

	rec := do(t, s.Handler(), http.MethodPost, "/api/heatmap", `{"gridSize": 4, "points": []}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/api/heatmap", `{"gridSize": 5, "points": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "gridSize must not exceed 4", decode(t, rec).Message)
}

func TestRoutesGeoJSON(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodPost, "/api/routes/geojson", `{"routes": [
		[{"lat": 0, "lng": 0}, {"lat": 0, "lng": 1}],
		[{"lat": 5, "lng": 5}]
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, 1.0, fc.Features[0].Properties["index"])
	assert.Equal(t, true, fc.Features[0].Properties["isRecommended"])
	assert.NotContains(t, fc.Features[0].Properties, "graphDistanceKm")
}

func TestZones(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodPost, "/api/zones/predict", `{"locations": [
		{"id": "loc-1", "timestamp": "2025-01-01T23:15:00", "location": {"lat": 12.9716, "lng": 77.5946}, "recentIncidents": 5, "crowdScore": 0.3},
		{"location": {"lat": 12.95, "lng": 77.61}, "crowdScore": 0}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Alerts []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
		} `json:"alerts"`
		Scores []struct {
			IsUnsafe bool `json:"isUnsafe"`
		} `json:"scores"`
		Heatmap struct {
			GridSize int `json:"gridSize"`
		} `json:"heatmap"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))

	require.Len(t, res.Alerts, 2)
	assert.Equal(t, "loc-1", res.Alerts[0].ID)
	assert.Equal(t, "high", res.Alerts[0].Severity)
	assert.Equal(t, "unsafe-1", res.Alerts[1].ID)
	assert.True(t, res.Scores[0].IsUnsafe)
	assert.False(t, res.Scores[1].IsUnsafe)
	assert.Equal(t, 20, res.Heatmap.GridSize)
}

func TestHeatmap(t *testing.T) {
	h := newTestServer().Handler()
	body := `{"gridSize": 2, "points": [{"lat": 0, "lng": 0, "score": 0.2}, {"lat": 1, "lng": 1, "score": 0.8}]}`

	rec := do(t, h, http.MethodPost, "/api/heatmap", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"grid": [[0.2, 0], [0, 0.8]],
		"bounds": {"minLat": 0, "maxLat": 1, "minLng": 0, "maxLng": 1},
		"gridSize": 2
	}`, string(decode(t, rec).Data))

	rec = do(t, h, http.MethodPost, "/api/heatmap/geojson", body)
	require.Equal(t, http.StatusOK, rec.Code)
	var fc struct {
		Features []json.RawMessage `json:"features"`
		BBox     []float64         `json:"bbox"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Len(t, fc.Features, 2)
	assert.Equal(t, []float64{0, 0, 1, 1}, fc.BBox)
}

func TestHeatmapImage(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodPost, "/api/heatmap/image?size=16",
		`{"gridSize": 2, "points": [{"lat": 0, "lng": 0, "score": 0.2}, {"lat": 1, "lng": 1, "score": 0.8}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))

	cfg, err := xwebp.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Width)
}

func TestSosRisk(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodPost, "/api/sos-risk",
		`{"speedKmh": 3, "suddenStop": true, "unsafeProbability": 0.8, "timeInAppSeconds": 300}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		RiskLevel       string             `json:"riskLevel"`
		ShouldPromptSos bool               `json:"shouldPromptSos"`
		Thresholds      map[string]float64 `json:"thresholds"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.Equal(t, "medium", res.RiskLevel)
	assert.False(t, res.ShouldPromptSos)
	assert.Equal(t, map[string]float64{"high": 0.75, "medium": 0.4, "prompt": 0.6}, res.Thresholds)
}

func TestNightMode(t *testing.T) {
	rec := do(t, newTestServer().Handler(), http.MethodPost, "/api/night-mode",
		`{"timestamp": "2025-01-01T23:30:00", "unsafeProbability": 1, "incidentScore": 1, "userPreference": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Score        float64 `json:"score"`
		ShouldEnable bool    `json:"shouldEnable"`
		Threshold    float64 `json:"threshold"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &res))
	assert.InDelta(t, 1.1/1.5, res.Score, 1e-9)
	assert.True(t, res.ShouldEnable)
	assert.Equal(t, 0.6, res.Threshold)
}

func TestModels(t *testing.T) {
	h := newTestServer().Handler()
	do(t, h, http.MethodPost, "/api/sos-risk", `{}`)

	rec := do(t, h, http.MethodGet, "/api/models", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"name": "sos-risk", "className": "ForestModel", "loaded": true},
		{"name": "unsafe-zone", "className": "LogisticModel", "loaded": false}
	]`, string(decode(t, rec).Data))
}
