package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/store"
	"github.com/sportlog/backend/pkg/utils"
)

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required fields.")
		return
	}

	username := utils.NormalizeUsername(req.Username)
	if err := utils.ValidateUsername(username); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Password) < 6 {
		respondError(w, http.StatusBadRequest, "Password must be at least 6 characters long.")
		return
	}

	displayName := utils.NormalizeUsername(req.DisplayName)
	if displayName == "" {
		displayName = username
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unexpected server error.")
		return
	}

	user, err := h.Users.Create(r.Context(), username, displayName, passwordHash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			respondError(w, http.StatusConflict, "Username already exists.")
			return
		}
		respondStoreError(w, err, "")
		return
	}

	respondData(w, http.StatusCreated, map[string]interface{}{
		"user":    user.Sanitized(),
		"message": "Registration successful. Please log in.",
	})
}

// Login verifies credentials and issues a session token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required fields.")
		return
	}

	user, err := h.Users.GetByUsername(r.Context(), utils.NormalizeUsername(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid username or password.")
			return
		}
		respondStoreError(w, err, "")
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		respondError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	token, err := h.Sessions.Create(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Unexpected server error.")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user.Sanitized(),
	})
}

// Logout invalidates the caller's session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		h.Sessions.Invalidate(r.Context(), token)
	}
	respondData(w, http.StatusOK, map[string]interface{}{"message": "Logged out."})
}

// Me returns the authenticated caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "User not found.")
		return
	}
	respondData(w, http.StatusOK, map[string]interface{}{"user": user.Sanitized()})
}
