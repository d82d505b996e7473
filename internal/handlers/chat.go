package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/services"
)

type CoachChatRequest struct {
	Message string `json:"message"`
}

// CoachChat forwards the caller's message to the AI coaching assistant.
func (h *Handler) CoachChat(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req CoachChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "message is a required field.")
		return
	}

	if h.Coach == nil {
		respondError(w, http.StatusServiceUnavailable, "Coach is not available right now.")
		return
	}

	reply, err := h.Coach.Ask(r.Context(), userID, req.Message)
	if err != nil {
		if errors.Is(err, services.ErrCoachUnavailable) {
			respondError(w, http.StatusServiceUnavailable, "Coach is not available right now.")
			return
		}
		respondError(w, http.StatusBadGateway, "Coach did not answer. Please try again.")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{"reply": reply})
}

// CoachHistory returns the caller's recent coach conversation, newest first.
func (h *Handler) CoachHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	if h.Coach == nil {
		respondData(w, http.StatusOK, []services.CoachMessage{})
		return
	}

	limit := int64(50)
	if lStr := r.URL.Query().Get("limit"); lStr != "" {
		if parsed, err := strconv.ParseInt(lStr, 10, 64); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	messages, err := h.Coach.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to load chat history.")
		return
	}
	respondData(w, http.StatusOK, messages)
}
