package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/groblegark/configstore/internal/model"
)

// maxBodyBytes caps lookup request bodies.
const maxBodyBytes = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /health) must include
// a valid Authorization: Bearer <token> header.
func (s *ConfigServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /get_config", s.handleGetConfig)
	mux.HandleFunc("GET /v1/models", s.handleListModels)
	mux.HandleFunc("GET /v1/events", s.handleEventStream)
	mux.HandleFunc("GET /health", s.handleHealth)

	var h http.Handler = AuthMiddleware(authToken, mux)
	h = RecoveryMiddleware(s.logger, h)
	h = LoggingMiddleware(s.logger, h)
	return RequestIDMiddleware(s.logger, h)
}

// handleGetConfig handles POST /get_config.
func (s *ConfigServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrBadInput.Error())
		return
	}
	rec, err := s.Lookup(withTransport(r.Context(), "http"), body)
	if err != nil {
		writeError(w, lookupStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHealth handles GET /health.
func (s *ConfigServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// lookupStatus maps a lookup error to its HTTP status code.
func lookupStatus(err error) int {
	switch {
	case errors.Is(err, model.ErrBadInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrModelNotPresent), errors.Is(err, model.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
