package api

import (
	"errors"
	"net/http"

	"github.com/ledgerly/bill-extraction-service/internal/db"
)

// GetSummary returns the fixed insights aggregations over the owner's
// ledger. GET /api/insights/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	summary, err := db.GetSummary(r.Context(), claims.UserID)
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "Insights require a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "summary_failed", "Could not compute the summary.")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}
