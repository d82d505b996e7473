package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sportlog/backend/internal/handlers"
	"github.com/sportlog/backend/internal/middleware"
)

// SetupRoutes registers the full API surface. Everything under the
// authenticated group goes through the session gateway first.
func SetupRoutes(r *chi.Mux, h *handlers.Handler) {
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	})

	// Public auth routes
	r.Post("/api/register", h.Register)
	r.Post("/api/login", h.Login)

	// Authenticated API
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(h.Sessions))

		r.Post("/api/logout", h.Logout)
		r.Get("/api/me", h.Me)

		// Activities
		r.Get("/api/activities", h.ListActivities)
		r.Get("/api/activities/public", h.PublicFeed)
		r.Post("/api/activities", h.CreateActivity)
		r.Put("/api/activities/{activityId}", h.UpdateActivity)
		r.Delete("/api/activities/{activityId}", h.DeleteActivity)

		// Goals and progress
		r.Get("/api/goals", h.GetGoals)
		r.Post("/api/goals", h.SetGoals)
		r.Get("/api/goals/progress", h.GetProgress)

		// Friends and blacklist
		r.Post("/api/friends/request", h.SendFriendRequest)
		r.Get("/api/friends/requests", h.ListFriendRequests)
		r.Post("/api/friends/requests/{requestId}/accept", h.AcceptFriendRequest)
		r.Post("/api/friends/requests/{requestId}/reject", h.RejectFriendRequest)
		r.Get("/api/friends", h.ListFriends)
		r.Delete("/api/friends/{friendId}", h.DeleteFriend)
		r.Get("/api/blacklist", h.ListBlocked)
		r.Post("/api/blacklist", h.BlockUser)
		r.Delete("/api/blacklist/{userId}", h.UnblockUser)

		// AI coach
		r.Post("/api/chat", h.CoachChat)
		r.Get("/api/chat/history", h.CoachHistory)

		// Weather widget
		r.Get("/api/weather", h.GetWeather)
	})

	// WebSocket endpoint authenticates inside the handler so browser
	// clients can pass the token as a query parameter.
	r.Get("/ws/feed", h.FeedSocket)
}
