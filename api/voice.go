package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/pipeline"
)

type voiceRequest struct {
	Transcript string `json:"transcript"`
}

// ProcessVoice turns a spoken transcript into a ledger entry. The client
// does speech-to-text; this endpoint takes the transcript text only.
// POST /api/voice/process.
func (h *Handler) ProcessVoice(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	var req voiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
		return
	}

	req.Transcript = strings.TrimSpace(req.Transcript)
	if req.Transcript == "" {
		h.sendError(w, http.StatusBadRequest, "transcript_required", "A non-empty transcript is required.")
		return
	}

	voice, err := h.voicePipeline.Run(r.Context(), req.Transcript)
	if errors.Is(err, pipeline.ErrAmountNotFound) {
		h.sendError(w, http.StatusUnprocessableEntity, "amount_not_found",
			"Could not find an amount in the transcript. Please mention the amount, e.g. '500 rupaye'.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "voice_failed", "Could not process the transcript.")
		return
	}

	var entry *db.Entry
	if db.Pool != nil {
		entry = &db.Entry{
			UserID:    claims.UserID,
			EntryType: voice.EntryType,
			Amount:    voice.Amount,
			Note:      &voice.Note,
			Source:    "voice",
		}
		if err := db.CreateEntry(r.Context(), entry); err != nil {
			logger.GetLogger().Warnw("could not create ledger entry for voice transcript", "error", err)
			entry = nil
		}
	}

	response := map[string]interface{}{
		"success":     true,
		"entry_type":  voice.EntryType,
		"amount":      voice.Amount,
		"note":        voice.Note,
		"items":       voice.Items,
		"saved_to_db": entry != nil,
	}
	if entry != nil {
		response["entry"] = entry
	}

	h.sendJSON(w, http.StatusOK, response)
}
