package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/attendance-kiosk/internal/ledger"
)

// RecordsHandler serves the attendance table.
type RecordsHandler struct {
	ledger *ledger.Ledger
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(l *ledger.Ledger) *RecordsHandler {
	return &RecordsHandler{ledger: l}
}

// RecordsResponse is the attendance listing.
type RecordsResponse struct {
	Records []ledger.Record `json:"records"`
	Count   int             `json:"count"`
}

// List returns all attendance rows in file order, or only today's with ?today=true.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	todayOnly := false
	if v := r.URL.Query().Get("today"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid today parameter")
			return
		}
		todayOnly = parsed
	}

	var records []ledger.Record
	var err error
	if todayOnly {
		records, err = h.ledger.Today()
	} else {
		records, err = h.ledger.Records()
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read attendance records")
		return
	}

	respondJSON(w, http.StatusOK, RecordsResponse{Records: records, Count: len(records)})
}
