package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ledgerly/bill-extraction-service/internal/db"
)

type createEntryRequest struct {
	EntryType string   `json:"entry_type"`
	Amount    float64  `json:"amount"`
	Note      *string  `json:"note"`
	Source    string   `json:"source"`
	BillDate  *string  `json:"bill_date"`
	Vendor    *string  `json:"vendor_name"`
	GSTIN     *string  `json:"vendor_gstin"`
	Taxable   *float64 `json:"taxable_amount"`
}

// CreateEntry books a manual ledger entry. POST /api/entries.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	var req createEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
		return
	}

	req.EntryType = strings.ToLower(strings.TrimSpace(req.EntryType))
	if req.EntryType != "income" && req.EntryType != "expense" {
		h.sendError(w, http.StatusBadRequest, "entry_type_invalid", "entry_type must be 'income' or 'expense'.")
		return
	}
	if req.Amount <= 0 {
		h.sendError(w, http.StatusBadRequest, "amount_invalid", "amount must be a positive number.")
		return
	}

	source := req.Source
	if source == "" {
		source = "manual"
	}

	entry := &db.Entry{
		UserID:        claims.UserID,
		EntryType:     req.EntryType,
		Amount:        req.Amount,
		Note:          req.Note,
		Source:        source,
		VendorName:    req.Vendor,
		VendorGSTIN:   req.GSTIN,
		BillDate:      req.BillDate,
		TaxableAmount: req.Taxable,
	}
	err := db.CreateEntry(r.Context(), entry)
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "The ledger requires a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "create_failed", "Could not save the entry.")
		return
	}

	h.sendJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"entry":   entry,
	})
}

// ListEntries returns the owner's ledger entries, newest first.
// GET /api/entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	entries, err := db.ListEntries(r.Context(), claims.UserID, listLimit(r))
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "The ledger requires a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "list_failed", "Could not list entries.")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"entries": entries,
		"count":   len(entries),
	})
}
