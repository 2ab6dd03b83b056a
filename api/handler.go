// Package api wires the HTTP surface: bill upload and listing, manual
// entries, voice transcript processing, the business profile, insights,
// and health.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/ledgerly/bill-extraction-service/internal/auth"
	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/ocr"
	"github.com/ledgerly/bill-extraction-service/internal/pipeline"
	"github.com/ledgerly/bill-extraction-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"
)

// Handler handles HTTP requests for the bill extraction service.
type Handler struct {
	config        *models.Config
	billPipeline  *pipeline.BillPipeline
	voicePipeline *pipeline.VoicePipeline
	engine        *ocr.TesseractEngine
}

// NewHandler creates the API handler.
func NewHandler(config *models.Config, billPipeline *pipeline.BillPipeline, voicePipeline *pipeline.VoicePipeline) *Handler {
	return &Handler{
		config:        config,
		billPipeline:  billPipeline,
		voicePipeline: voicePipeline,
		engine:        ocr.NewTesseractEngine(config.OCR.Command, config.OCR.Language),
	}
}

// SetupRoutes configures the HTTP routes.
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Accounts
	router.HandleFunc("/api/register", auth.RegisterHandler).Methods("POST")
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")
	router.HandleFunc("/api/me", auth.MeHandler).Methods("GET")

	// Bills
	router.HandleFunc("/api/bills/upload", h.UploadBill).Methods("POST")
	router.HandleFunc("/api/bills", h.ListBills).Methods("GET")
	router.HandleFunc("/api/bills/{id}", h.GetBill).Methods("GET")

	// Ledger entries
	router.HandleFunc("/api/entries", h.CreateEntry).Methods("POST")
	router.HandleFunc("/api/entries", h.ListEntries).Methods("GET")

	// Voice transcripts
	router.HandleFunc("/api/voice/process", h.ProcessVoice).Methods("POST")

	// Business profile
	router.HandleFunc("/api/profile", h.GetProfile).Methods("GET")
	router.HandleFunc("/api/profile", h.UpdateProfile).Methods("POST")

	// Insights
	router.HandleFunc("/api/insights/summary", h.GetSummary).Methods("GET")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Uptime    string            `json:"uptime"`
	Memory    MemoryStats       `json:"memory"`
	Tesseract ServiceStatus     `json:"tesseract"`
	Poppler   ServiceStatus     `json:"poppler"`
	Database  ServiceStatus     `json:"database"`
	Storage   ServiceStatus     `json:"storage"`
	AI        map[string]string `json:"ai"`
}

// MemoryStats represents memory usage statistics.
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency.
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health reports service and dependency status. The service stays healthy
// without a database or object storage; only a missing OCR engine degrades
// it, since uploads cannot be processed at all then.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	tesseractStatus := h.checkCommand(h.config.OCR.Command, "--version", "tesseract not found or not executable")
	popplerStatus := h.checkCommand("pdftoppm", "-v", "pdftoppm not found or not executable")
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	aiProvider := h.config.AI.DefaultProvider
	if !h.config.HasAICredentials() {
		aiProvider = "none (pattern extraction only)"
	}

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		Tesseract: tesseractStatus,
		Poppler:   popplerStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
		AI: map[string]string{
			"provider": aiProvider,
		},
	}

	if !tesseractStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *Handler) checkCommand(command, versionFlag, missingMsg string) ServiceStatus {
	output, err := exec.Command(command, versionFlag).CombinedOutput()
	if err != nil {
		return ServiceStatus{Available: false, Error: missingMsg}
	}

	version := "unknown"
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		version = strings.TrimSpace(lines[0])
	}
	return ServiceStatus{Available: true, Version: version}
}

func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{Available: false, Error: "database not configured"}
	}
	return ServiceStatus{Available: true, Version: "PostgreSQL"}
}

func (h *Handler) checkStorage() ServiceStatus {
	if !storage.Available() {
		return ServiceStatus{Available: false, Error: "object storage not configured"}
	}
	return ServiceStatus{Available: true, Version: "MinIO S3"}
}

// sendError writes a machine-readable error code plus a human message.
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// requireClaims pulls the authenticated user or writes a 401.
func (h *Handler) requireClaims(w http.ResponseWriter, r *http.Request) *auth.Claims {
	claims, err := auth.GetClaimsFromContext(r.Context())
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid token.")
		return nil
	}
	return claims
}
