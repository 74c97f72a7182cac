package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/kozaktomas/attendance-kiosk/internal/capture"
	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusForError maps kiosk errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, gallery.ErrInvalidIdentity), errors.Is(err, kiosk.ErrUnknownMode):
		return http.StatusBadRequest
	case errors.Is(err, kiosk.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, kiosk.ErrModeActive), errors.Is(err, kiosk.ErrSessionEnded), errors.Is(err, kiosk.ErrNotEnrolling):
		return http.StatusConflict
	case errors.Is(err, kiosk.ErrNoKnownFaces):
		return http.StatusPreconditionFailed
	case errors.Is(err, capture.ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondKioskError sends err with the status it maps to.
func respondKioskError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err.Error())
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
