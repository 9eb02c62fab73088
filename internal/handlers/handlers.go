// Package handlers implements the JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/excommunicades/starnavi/internal/analytics"
	"github.com/excommunicades/starnavi/internal/auth"
	"github.com/excommunicades/starnavi/internal/autoreply"
	"github.com/excommunicades/starnavi/internal/database"
	"github.com/excommunicades/starnavi/internal/moderation"

	"github.com/rs/zerolog/log"
)

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	store     database.Store
	auth      *auth.Service
	gate      *moderation.Gate
	scheduler *autoreply.Scheduler
	analytics *analytics.Service
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(
	store database.Store,
	authSvc *auth.Service,
	gate *moderation.Gate,
	scheduler *autoreply.Scheduler,
	analyticsSvc *analytics.Service,
) *Handler {
	return &Handler{
		store:     store,
		auth:      authSvc,
		gate:      gate,
		scheduler: scheduler,
		analytics: analyticsSvc,
	}
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes and writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON decodes the request body into target, rejecting unknown
// fields so typos in client payloads fail loudly.
func decodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}

// pathID parses the {id} path parameter. Writes a 400 and returns false
// on anything that is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error, entity string) {
	if errors.Is(err, database.ErrNotFound) {
		writeError(w, http.StatusNotFound, entity+" not found")
		return
	}
	log.Error().Err(err).Str("entity", entity).Msg("Store operation failed")
	writeError(w, http.StatusInternalServerError, "internal error")
}
