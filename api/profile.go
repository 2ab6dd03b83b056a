package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
)

// gstinFormat is the shape check applied to the merchant's own GSTIN: 15
// alphanumeric characters after uppercasing. The checksum digit is not
// verified.
var gstinFormat = regexp.MustCompile(`^[A-Z0-9]{15}$`)

// businessTypes are the accepted values for a profile's business_type.
var businessTypes = map[string]bool{
	"retail":    true,
	"wholesale": true,
	"services":  true,
	"other":     true,
}

type updateProfileRequest struct {
	BusinessName      string `json:"business_name"`
	GSTIN             string `json:"gstin"`
	BusinessType      string `json:"business_type"`
	Address           string `json:"address"`
	Phone             string `json:"phone"`
	BankName          string `json:"bank_name"`
	BankAccountNumber string `json:"bank_account_number"`
	BankIFSC          string `json:"bank_ifsc"`
}

// GetProfile returns the owner's business profile, or an empty default when
// nothing has been saved yet. GET /api/profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	profile, err := db.GetProfile(r.Context(), claims.UserID)
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "Business profiles require a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "get_failed", "Could not load the profile.")
		return
	}
	if profile == nil {
		profile = &db.BusinessProfile{UserID: claims.UserID}
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}

// UpdateProfile validates and saves the owner's business profile, returning
// the stored record with its recomputed completion percentage.
// POST /api/profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_body", "Request body must be JSON.")
		return
	}

	profile := &db.BusinessProfile{
		UserID:            claims.UserID,
		BusinessName:      optionalField(req.BusinessName),
		GSTIN:             optionalField(strings.ToUpper(req.GSTIN)),
		BusinessType:      optionalField(strings.ToLower(req.BusinessType)),
		Address:           optionalField(req.Address),
		Phone:             optionalField(req.Phone),
		BankName:          optionalField(req.BankName),
		BankAccountNumber: optionalField(req.BankAccountNumber),
		BankIFSC:          optionalField(strings.ToUpper(req.BankIFSC)),
	}

	if profile.GSTIN != nil && !gstinFormat.MatchString(*profile.GSTIN) {
		h.sendError(w, http.StatusBadRequest, "gstin_invalid", "GSTIN must be 15 alphanumeric characters.")
		return
	}
	if profile.BusinessType != nil && !businessTypes[*profile.BusinessType] {
		h.sendError(w, http.StatusBadRequest, "business_type_invalid",
			"Business type must be retail, wholesale, services or other.")
		return
	}

	profile.ProfileCompletionPct = profileCompletion(profile)

	if err := db.UpsertProfile(r.Context(), profile); err != nil {
		if errors.Is(err, db.ErrNoDatabase) {
			h.sendError(w, http.StatusServiceUnavailable, "no_database", "Business profiles require a database.")
			return
		}
		logger.GetLogger().Warnw("could not save business profile", "error", err)
		h.sendError(w, http.StatusInternalServerError, "save_failed", "Could not save the profile.")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"profile": profile,
	})
}

// profileCompletion scores how much of the profile's core identity is
// filled. Name and type weigh 33, GSTIN 34, so a complete core reads 100.
func profileCompletion(p *db.BusinessProfile) int {
	score := 0
	if p.BusinessName != nil {
		score += 33
	}
	if p.GSTIN != nil {
		score += 34
	}
	if p.BusinessType != nil {
		score += 33
	}
	if score > 100 {
		score = 100
	}
	return score
}

// optionalField trims a request field and maps the empty string to nil so
// blanks never overwrite stored values with empty strings.
func optionalField(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
