package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
)

// SessionsHandler drives kiosk modes remotely.
type SessionsHandler struct {
	kiosk  *kiosk.Kiosk
	wait   time.Duration
	logger *slog.Logger
}

// NewSessionsHandler creates a new sessions handler. wait is how long each
// loop tick waits for a remote signal.
func NewSessionsHandler(k *kiosk.Kiosk, wait time.Duration, logger *slog.Logger) *SessionsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionsHandler{kiosk: k, wait: wait, logger: logger}
}

// StartSessionRequest starts a mode.
type StartSessionRequest struct {
	Mode     kiosk.Mode `json:"mode"`
	Identity string     `json:"identity,omitempty"`
}

// Start launches an attendance or enrollment session.
func (h *SessionsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	session, err := h.kiosk.StartSession(req.Mode, req.Identity, h.wait)
	if err != nil {
		h.logger.Info("session rejected",
			"mode", sanitizeForLog(string(req.Mode)),
			"identity", sanitizeForLog(req.Identity),
			"error", err)
		respondKioskError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, session.Info())
}

// Current returns the state of the most recent session.
func (h *SessionsHandler) Current(w http.ResponseWriter, r *http.Request) {
	session, err := h.kiosk.CurrentSession()
	if err != nil {
		respondKioskError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session.Info())
}

// Capture stores the face in view of a running enrollment.
func (h *SessionsHandler) Capture(w http.ResponseWriter, r *http.Request) {
	session, err := h.kiosk.CurrentSession()
	if err != nil {
		respondKioskError(w, err)
		return
	}
	if err := session.Capture(); err != nil {
		respondKioskError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"requested": true})
}

// Stop ends the running session like the operator's cancel key.
func (h *SessionsHandler) Stop(w http.ResponseWriter, r *http.Request) {
	session, err := h.kiosk.CurrentSession()
	if err != nil {
		respondKioskError(w, err)
		return
	}
	if err := session.Stop(); err != nil {
		respondKioskError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]bool{"stopping": true})
}

// Frame returns the latest annotated camera frame.
func (h *SessionsHandler) Frame(w http.ResponseWriter, r *http.Request) {
	session, err := h.kiosk.CurrentSession()
	if err != nil {
		respondKioskError(w, err)
		return
	}
	frame, ok := session.Frame()
	if !ok {
		respondError(w, http.StatusNotFound, "no frame yet")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(frame)
}

// Events streams session events via SSE.
func (h *SessionsHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r, func(id string) SSESession {
		session := h.kiosk.SessionByID(id)
		if session == nil {
			return nil
		}
		return session
	})
}
