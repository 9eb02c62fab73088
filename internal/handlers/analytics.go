package handlers

import (
	"errors"
	"net/http"

	"github.com/excommunicades/starnavi/internal/analytics"

	"github.com/rs/zerolog/log"
)

// HandleDailyBreakdown returns per-day comment counts for the inclusive
// range given by the date_from and date_to query parameters.
func (h *Handler) HandleDailyBreakdown(w http.ResponseWriter, r *http.Request) {
	fromStr := r.URL.Query().Get("date_from")
	toStr := r.URL.Query().Get("date_to")
	if fromStr == "" || toStr == "" {
		writeError(w, http.StatusBadRequest, "date_from and date_to are required")
		return
	}

	from, err := analytics.ParseDay(fromStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_from must be formatted YYYY-MM-DD")
		return
	}
	to, err := analytics.ParseDay(toStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date_to must be formatted YYYY-MM-DD")
		return
	}

	breakdown, err := h.analytics.DailyBreakdown(r.Context(), from, to)
	if err != nil {
		switch {
		case errors.Is(err, analytics.ErrInvalidRange):
			writeError(w, http.StatusBadRequest, "date_from must not be after date_to")
		case errors.Is(err, analytics.ErrRangeTooLarge):
			writeError(w, http.StatusBadRequest, "date range is too large")
		default:
			log.Error().Err(err).Msg("Daily breakdown failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, breakdown)
}
