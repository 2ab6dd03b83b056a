package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerly/bill-extraction-service/internal/db"
	"github.com/ledgerly/bill-extraction-service/internal/logger"
)

const minPasswordLength = 8

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type tokenResponse struct {
	Token string   `json:"token"`
	User  *db.User `json:"user"`
}

func sendError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code, "message": message})
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// RegisterHandler creates an account. POST /api/register.
func RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if db.Pool == nil {
		sendError(w, http.StatusServiceUnavailable, "no_database", "Accounts are unavailable without a database.")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if req.Username == "" {
		sendError(w, http.StatusBadRequest, "username_required", "Username is required.")
		return
	}
	if !strings.Contains(req.Email, "@") {
		sendError(w, http.StatusBadRequest, "email_invalid", "A valid email is required.")
		return
	}
	if len(req.Password) < minPasswordLength {
		sendError(w, http.StatusBadRequest, "password_too_short", "Password must be at least 8 characters.")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "hash_failed", "Could not process password.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := db.CreateUser(ctx, req.Username, req.Email, string(hash))
	if errors.Is(err, db.ErrUserExists) {
		sendError(w, http.StatusConflict, "user_exists", "An account with this email already exists.")
		return
	}
	if err != nil {
		logger.GetLogger().Errorw("user creation failed", "error", err)
		sendError(w, http.StatusInternalServerError, "registration_failed", "Could not create account.")
		return
	}

	token, err := GenerateToken(id, req.Email)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "token_failed", "Could not generate token.")
		return
	}

	sendJSON(w, http.StatusCreated, tokenResponse{
		Token: token,
		User:  &db.User{ID: id, Username: req.Username, Email: req.Email},
	})
}

// LoginHandler authenticates by email or username. POST /api/login.
func LoginHandler(w http.ResponseWriter, r *http.Request) {
	if db.Pool == nil {
		sendError(w, http.StatusServiceUnavailable, "no_database", "Accounts are unavailable without a database.")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		sendError(w, http.StatusBadRequest, "identifier_required", "Email or username is required.")
		return
	}
	if req.Password == "" {
		sendError(w, http.StatusBadRequest, "password_required", "Password is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := db.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		sendError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		sendError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials.")
		return
	}

	token, err := GenerateToken(user.ID, user.Email)
	if err != nil {
		sendError(w, http.StatusInternalServerError, "token_failed", "Could not generate token.")
		return
	}

	sendJSON(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// MeHandler returns the authenticated account. GET /api/me.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, err := GetClaimsFromContext(r.Context())
	if err != nil {
		sendError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid token.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := db.GetUserByID(ctx, claims.UserID)
	if err != nil || user == nil {
		sendError(w, http.StatusNotFound, "not_found", "Account not found.")
		return
	}

	sendJSON(w, http.StatusOK, user)
}
