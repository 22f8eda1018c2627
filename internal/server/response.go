package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Response is the envelope of every JSON API reply.
type Response struct {
	Data      any    `json:"data"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	resp.RequestID = RequestIDFrom(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("Failed to write response")
	}
}

func okResponse(w http.ResponseWriter, r *http.Request, message string, data any) {
	writeJSON(w, r, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	writeJSON(w, r, status, Response{Message: message, Data: data})
}

// decodeBody reads a JSON request body into v.
func (s *ServerContext) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit)).Decode(v); err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}

		fail(w, r, status, fmt.Sprintf("invalid request body: %v", err), nil)
		return false
	}

	return true
}
