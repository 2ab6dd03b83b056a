package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerly/bill-extraction-service/internal/db"
)

func TestUpdateProfile_Validation(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "gstin too short",
			body:       `{"gstin": "27AAAAA"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "gstin_invalid",
		},
		{
			name:       "gstin with punctuation",
			body:       `{"gstin": "27AAAAA0000A1Z-"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "gstin_invalid",
		},
		{
			name:       "unknown business type",
			body:       `{"business_type": "franchise"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "business_type_invalid",
		},
		{
			name:       "invalid body",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_body",
		},
		{
			// Lowercase GSTINs are uppercased before validation, so this
			// passes the shape check and fails only on the missing database.
			name:       "lowercase gstin accepted",
			body:       `{"gstin": "27aaaaa0000a1z5"}`,
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "no_database",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			req := httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(tt.body))
			req.Header.Set("Authorization", authHeader(t))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			server.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
		})
	}
}

func TestProfileRoutesRequireToken(t *testing.T) {
	server := newTestServer(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		req := httptest.NewRequest(method, "/api/profile", strings.NewReader("{}"))
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, method)
	}
}

func TestProfileCompletion(t *testing.T) {
	name := "Sharma Kirana Store"
	gstin := "27AAAAA0000A1Z5"
	kind := "retail"

	tests := []struct {
		name    string
		profile db.BusinessProfile
		want    int
	}{
		{"empty", db.BusinessProfile{}, 0},
		{"name only", db.BusinessProfile{BusinessName: &name}, 33},
		{"gstin only", db.BusinessProfile{GSTIN: &gstin}, 34},
		{"name and type", db.BusinessProfile{BusinessName: &name, BusinessType: &kind}, 66},
		{"all core fields", db.BusinessProfile{BusinessName: &name, GSTIN: &gstin, BusinessType: &kind}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, profileCompletion(&tt.profile))
		})
	}
}
