package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerly/bill-extraction-service/internal/auth"
	"github.com/ledgerly/bill-extraction-service/internal/models"
	"github.com/ledgerly/bill-extraction-service/internal/pipeline"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	auth.Init()

	config := &models.Config{
		UploadsDir: t.TempDir(),
		OCR:        models.OCRConfig{Command: "tesseract", Language: "eng"},
	}
	handler := NewHandler(config, pipeline.NewBillPipeline(nil), pipeline.NewVoicePipeline(nil))
	return auth.JWTMiddleware(handler.SetupRoutes())
}

func authHeader(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken(1, "user@example.com")
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.Contains(t, []string{"healthy", "degraded"}, health.Status)
	assert.Equal(t, Version, health.Version)
	assert.False(t, health.Database.Available)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)

	paths := []string{
		"/api/bills",
		"/api/entries",
		"/api/insights/summary",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestUploadBill_NoFile(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/bills/upload", strings.NewReader(""))
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "no_file", body["error"])
}

func TestCreateBillEntry_RequiresPositiveTotal(t *testing.T) {
	config := &models.Config{UploadsDir: t.TempDir()}
	h := NewHandler(config, pipeline.NewBillPipeline(nil), pipeline.NewVoicePipeline(nil))
	req := httptest.NewRequest(http.MethodPost, "/api/bills/upload", nil)

	// No validated total means no ledger entry, even when the quick OCR
	// scan detected a number somewhere on the bill.
	assert.Nil(t, h.createBillEntry(req, 1, &models.BillExtraction{}))

	zero := 0.0
	assert.Nil(t, h.createBillEntry(req, 1, &models.BillExtraction{TotalAmount: &zero}))
}

func TestProcessVoice(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "missing transcript",
			body:       `{"transcript": "   "}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "transcript_required",
		},
		{
			name:       "invalid body",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_body",
		},
		{
			name:       "no amount in transcript",
			body:       `{"transcript": "hello world"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  "amount_not_found",
		},
		{
			name:       "hinglish sale",
			body:       `{"transcript": "500 rupaye ka chawal becha"}`,
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "income", body["entry_type"])
				assert.InDelta(t, 500.0, body["amount"].(float64), 0.001)
				// No database in tests, so nothing is persisted.
				assert.Equal(t, false, body["saved_to_db"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/api/voice/process", strings.NewReader(tt.body))
			req.Header.Set("Authorization", authHeader(t))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			if tt.check != nil {
				tt.check(t, body)
			}
		})
	}
}

func TestCreateEntry_Validation(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{"bad entry type", `{"entry_type": "transfer", "amount": 100}`, "entry_type_invalid"},
		{"zero amount", `{"entry_type": "expense", "amount": 0}`, "amount_invalid"},
		{"negative amount", `{"entry_type": "income", "amount": -5}`, "amount_invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(tt.body))
			req.Header.Set("Authorization", authHeader(t))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestListEntries_NoDatabase(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
	req.Header.Set("Authorization", authHeader(t))
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "no_database", body["error"])
}
