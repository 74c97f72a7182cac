package handlers

import (
	"errors"
	"net/http"

	"github.com/kozaktomas/attendance-kiosk/internal/gallery"
	"github.com/kozaktomas/attendance-kiosk/internal/kiosk"
)

// GalleryHandler lists and reloads the enrolled faces.
type GalleryHandler struct {
	kiosk *kiosk.Kiosk
}

// NewGalleryHandler creates a new gallery handler.
func NewGalleryHandler(k *kiosk.Kiosk) *GalleryHandler {
	return &GalleryHandler{kiosk: k}
}

// GalleryResponse describes the loaded gallery.
type GalleryResponse struct {
	Identities []gallery.IdentitySummary `json:"identities"`
	Faces      int                       `json:"faces"`
	Threshold  float64                   `json:"threshold"`
	Warning    string                    `json:"warning,omitempty"`
}

func (h *GalleryHandler) response(warning string) GalleryResponse {
	summary := h.kiosk.Summary()
	faces := 0
	for _, s := range summary {
		faces += s.Samples
	}
	if summary == nil {
		summary = []gallery.IdentitySummary{}
	}
	return GalleryResponse{
		Identities: summary,
		Faces:      faces,
		Threshold:  h.kiosk.Threshold(),
		Warning:    warning,
	}
}

// List returns the identities of the last loaded gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.response(""))
}

// Reload rescans the gallery directory and retrains the recognizer.
func (h *GalleryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	_, err := h.kiosk.Reload(r.Context(), nil)
	switch {
	case errors.Is(err, gallery.ErrNoKnownFaces):
		respondJSON(w, http.StatusOK, h.response(err.Error()))
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to reload gallery")
	default:
		respondJSON(w, http.StatusOK, h.response(""))
	}
}
