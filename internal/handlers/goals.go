package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sportlog/backend/internal/middleware"
)

type SetGoalsRequest struct {
	WeeklyGoal  *int `json:"weeklyGoal"`
	MonthlyGoal *int `json:"monthlyGoal"`
}

// GetGoals returns the caller's goal configuration, defaults included.
func (h *Handler) GetGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	goal, err := h.Goals.Get(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, goal)
}

// SetGoals upserts the caller's weekly/monthly targets.
func (h *Handler) SetGoals(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	var req SetGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.WeeklyGoal == nil || req.MonthlyGoal == nil {
		respondError(w, http.StatusBadRequest, "weeklyGoal and monthlyGoal are required fields.")
		return
	}

	goal, err := h.Goals.Set(r.Context(), userID, *req.WeeklyGoal, *req.MonthlyGoal)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}

	respondData(w, http.StatusOK, map[string]interface{}{
		"weeklyGoal":  goal.WeeklyGoal,
		"monthlyGoal": goal.MonthlyGoal,
	})
}

// GetProgress returns the caller's workout counts for the current week and
// month windows.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserID(r.Context())

	counts, err := h.Progress.Snapshot(r.Context(), userID)
	if err != nil {
		respondStoreError(w, err, "")
		return
	}
	respondData(w, http.StatusOK, counts)
}
