package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/ocr"
	"github.com/ledgerly/bill-extraction-service/internal/services"
	"github.com/ledgerly/bill-extraction-service/internal/storage"
)

// allowedExtensions are the upload types the pipeline can process. PDFs are
// accepted and rendered to an image before OCR.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".pdf":  true,
}

// UploadBill accepts a bill image or PDF, runs OCR and extraction, persists
// the bill and a matching expense entry, and returns the structured result.
// POST /api/bills/upload.
func (h *Handler) UploadBill(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLogger()
	ctx := r.Context()
	start := time.Now()

	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "no_file", "File too large or invalid form data.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "no_file", "No file provided (use 'file' or 'image' field).")
			return
		}
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		h.sendError(w, http.StatusBadRequest, "empty_filename", "Uploaded file has no name.")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		h.sendError(w, http.StatusBadRequest, "invalid_file_type",
			"Only image files (PNG, JPG, PDF, etc.) are allowed.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "upload_failed", "Failed to read uploaded file.")
		return
	}

	// Extensions lie; sniff the content too.
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") && !mtype.Is("application/pdf") {
		h.sendError(w, http.StatusBadRequest, "invalid_file_type",
			"Only image files (PNG, JPG, PDF, etc.) are allowed.")
		return
	}

	storedName := uuid.New().String() + ext
	if err := os.MkdirAll(h.config.UploadsDir, 0o755); err != nil {
		h.sendError(w, http.StatusInternalServerError, "upload_failed", "Failed to store uploaded file.")
		return
	}
	localPath := filepath.Join(h.config.UploadsDir, storedName)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		h.sendError(w, http.StatusInternalServerError, "upload_failed", "Failed to store uploaded file.")
		return
	}

	// Record the bill before the slow stages so a crash mid-pipeline still
	// leaves a visible processing row.
	bill := &db.Bill{UserID: claims.UserID, Filename: header.Filename}
	if db.Pool != nil {
		if err := db.CreateBill(ctx, bill); err != nil {
			log.Warnw("could not create bill row", "error", err)
		}
	}

	if storage.Available() {
		key, err := storage.UploadBillImage(ctx, claims.UserID, storedName,
			bytes.NewReader(data), int64(len(data)), mtype.String())
		if err != nil {
			log.Warnw("object storage upload failed, keeping local copy only", "error", err)
		} else {
			bill.StorageKey = &key
			if url, err := storage.GetPresignedURL(ctx, key); err == nil {
				bill.StorageURL = &url
			}
		}
	}

	imagePath := localPath
	if ext == ".pdf" || mtype.Is("application/pdf") {
		converted, err := ocr.ConvertPDFFirstPage(ctx, localPath)
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "pdf_conversion_failed",
				"Could not convert the PDF to an image.")
			return
		}
		defer os.Remove(converted)
		imagePath = converted
	}

	ocrText, err := h.engine.Recognize(ctx, imagePath)
	if err != nil {
		if errors.Is(err, ocr.ErrEngineNotFound) {
			h.sendError(w, http.StatusServiceUnavailable, "tesseract_missing",
				"The OCR engine is not installed on this server.")
			return
		}
		h.sendError(w, http.StatusInternalServerError, "ocr_failed", "Could not read text from the image.")
		return
	}

	detectedAmount := services.DetectAmount(ocrText)

	result := h.billPipeline.Run(ctx, imagePath, ocrText, detectedAmount)
	extraction := result.Bill

	var entry *db.Entry
	if db.Pool != nil && bill.ID != 0 {
		bill.OCRText = &ocrText
		bill.DetectedAmount = detectedAmount
		bill.VendorName = extraction.VendorName
		bill.BillDate = extraction.BillDate
		bill.TotalAmount = extraction.TotalAmount
		if extraction.GSTAmount != nil {
			bill.GSTAmount = extraction.GSTAmount
		} else if sum, ok := extraction.GSTComponentSum(); ok {
			bill.GSTAmount = &sum
		}
		if itemsJSON, err := json.Marshal(extraction.Items); err == nil {
			s := string(itemsJSON)
			bill.ItemsJSON = &s
		}
		if err := db.FinishBill(ctx, bill); err != nil {
			log.Warnw("could not finish bill row", "bill_id", bill.ID, "error", err)
		}

		entry = h.createBillEntry(r, claims.UserID, extraction)
	}

	response := map[string]interface{}{
		"success":         true,
		"filename":        header.Filename,
		"source":          result.Source,
		"extraction":      extraction,
		"detected_amount": detectedAmount,
		"ocr_text":        ocrText,
		"duration":        time.Since(start).Seconds(),
		"saved_to_db":     bill.ID != 0,
	}
	if bill.ID != 0 {
		response["bill_id"] = bill.ID
		response["status"] = bill.Status
	}
	if bill.StorageURL != nil {
		response["image_url"] = *bill.StorageURL
	}
	if entry != nil {
		response["entry"] = entry
	}

	h.sendJSON(w, http.StatusOK, response)
}

// createBillEntry books the bill as an expense so it shows up in the ledger
// without a second manual step. Only a validated positive total is booked;
// the quick detected amount is a display hint, not ledger data. Best effort;
// extraction results are already returned to the caller either way.
func (h *Handler) createBillEntry(r *http.Request, userID int64, extraction *models.BillExtraction) *db.Entry {
	if extraction.TotalAmount == nil || *extraction.TotalAmount <= 0 {
		return nil
	}
	amount := *extraction.TotalAmount

	vendor := "Unknown Vendor"
	if extraction.VendorName != nil && *extraction.VendorName != "" {
		vendor = *extraction.VendorName
	}
	note := fmt.Sprintf("Bill from %s", vendor)

	entry := &db.Entry{
		UserID:        userID,
		EntryType:     "expense",
		Amount:        amount,
		Note:          &note,
		Source:        "bill_upload",
		VendorName:    extraction.VendorName,
		VendorGSTIN:   extraction.VendorGSTIN,
		BillNumber:    extraction.BillNumber,
		BillDate:      extraction.BillDate,
		TaxableAmount: extraction.Subtotal,
		CGSTAmount:    extraction.CGSTAmount,
		SGSTAmount:    extraction.SGSTAmount,
		IGSTAmount:    extraction.IGSTAmount,
	}
	if err := db.CreateEntry(r.Context(), entry); err != nil {
		logger.GetLogger().Warnw("could not create ledger entry for bill", "error", err)
		return nil
	}
	return entry
}

// ListBills returns the owner's bills, newest first. GET /api/bills.
func (h *Handler) ListBills(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	bills, err := db.ListBills(r.Context(), claims.UserID, listLimit(r))
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "Bill history requires a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "list_failed", "Could not list bills.")
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"bills":   bills,
		"count":   len(bills),
	})
}

// GetBill returns one of the owner's bills in full, with a fresh presigned
// image URL when storage is configured. GET /api/bills/{id}.
func (h *Handler) GetBill(w http.ResponseWriter, r *http.Request) {
	claims := h.requireClaims(w, r)
	if claims == nil {
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid_id", "Bill id must be a number.")
		return
	}

	bill, err := db.GetBillByID(r.Context(), claims.UserID, id)
	if errors.Is(err, db.ErrNoDatabase) {
		h.sendError(w, http.StatusServiceUnavailable, "no_database", "Bill history requires a database.")
		return
	}
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "get_failed", "Could not load the bill.")
		return
	}
	if bill == nil {
		h.sendError(w, http.StatusNotFound, "not_found", "Bill not found.")
		return
	}

	if bill.StorageKey != nil && storage.Available() {
		if url, err := storage.GetPresignedURL(r.Context(), *bill.StorageKey); err == nil {
			bill.StorageURL = &url
		}
	}

	h.sendJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"bill":    bill,
	})
}

// listLimit reads an optional ?limit= query, defaulting to 100.
func listLimit(r *http.Request) int {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	return limit
}
