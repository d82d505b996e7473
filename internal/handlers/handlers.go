// Package handlers implements the HTTP layer. Every handler receives its
// collaborators through the Handler struct; nothing reaches for process-wide
// state, which keeps the whole layer testable against the memory stores.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/sportlog/backend/internal/feed"
	"github.com/sportlog/backend/internal/progress"
	"github.com/sportlog/backend/internal/services"
	"github.com/sportlog/backend/internal/store"
)

type Handler struct {
	Users      store.UserStore
	Activities store.ActivityStore
	Goals      store.GoalStore
	Friends    store.FriendStore
	Feed       *feed.Service
	Progress   *progress.Calculator
	Sessions   *services.SessionService

	// Optional collaborators; handlers degrade gracefully when nil.
	Photos  *services.PhotoService
	Weather *services.WeatherService
	Coach   *services.CoachService
	Live    *services.FeedLive
}

// respondData writes the success envelope {data: ...}.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

// respondError writes the failure envelope {error: ...}.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{"error": message})
}

// respondStoreError maps the store error taxonomy to HTTP statuses.
// Internal failures are logged server-side and surface as a generic 500.
func respondStoreError(w http.ResponseWriter, err error, notFoundMessage string) {
	var validationErr *store.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, notFoundMessage)
	case errors.Is(err, store.ErrDuplicate):
		respondError(w, http.StatusConflict, "Already exists.")
	default:
		log.Printf("storage error: %v", err)
		respondError(w, http.StatusInternalServerError, "Unexpected server error.")
	}
}
