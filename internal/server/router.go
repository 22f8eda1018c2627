package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router registers every API route.
func (s *ServerContext) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(HandleNotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(HandleMethodNotAllowed)

	r.HandleFunc("/health", s.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/routes/optimize", s.HandleOptimize).Methods(http.MethodPost)
	r.HandleFunc("/api/routes/geojson", s.HandleRoutesGeoJSON).Methods(http.MethodPost)
	r.HandleFunc("/api/zones/predict", s.HandleZones).Methods(http.MethodPost)
	r.HandleFunc("/api/heatmap", s.HandleHeatmap).Methods(http.MethodPost)
	r.HandleFunc("/api/heatmap/geojson", s.HandleHeatmapGeoJSON).Methods(http.MethodPost)
	r.HandleFunc("/api/heatmap/image", s.HandleHeatmapImage).Methods(http.MethodPost)
	r.HandleFunc("/api/sos-risk", s.HandleSosRisk).Methods(http.MethodPost)
	r.HandleFunc("/api/night-mode", s.HandleNightMode).Methods(http.MethodPost)
	r.HandleFunc("/api/models", s.HandleModels).Methods(http.MethodGet)

	return r
}

// Handler returns the router wrapped in the request id and access log
// middlewares.
func (s *ServerContext) Handler() http.Handler {
	return RequestID(RequestLogger(s.Router()))
}
