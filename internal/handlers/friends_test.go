package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/models"
)

func (env *testEnv) friendsRouter(userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Post("/api/friends/request", env.handler.SendFriendRequest)
	r.Get("/api/friends/requests", env.handler.ListFriendRequests)
	r.Post("/api/friends/requests/{requestId}/accept", env.handler.AcceptFriendRequest)
	r.Post("/api/friends/requests/{requestId}/reject", env.handler.RejectFriendRequest)
	r.Get("/api/friends", env.handler.ListFriends)
	r.Delete("/api/friends/{friendId}", env.handler.DeleteFriend)
	r.Get("/api/blacklist", env.handler.ListBlocked)
	r.Post("/api/blacklist", env.handler.BlockUser)
	r.Delete("/api/blacklist/{userId}", env.handler.UnblockUser)
	return r
}

func TestFriendRequestFlow(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	aliceRouter := env.friendsRouter(alice)
	bobRouter := env.friendsRouter(bob)

	rec, e := doJSON(t, aliceRouter, http.MethodPost, "/api/friends/request", `{"username":"bob"}`)
	require.Equal(t, http.StatusCreated, rec.Code, e.Error)

	var request models.FriendRequest
	require.NoError(t, json.Unmarshal(e.Data, &request))
	assert.Equal(t, "alice", request.FromUsername)
	assert.Equal(t, "bob", request.ToUsername)

	t.Run("duplicate request", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPost, "/api/friends/request", `{"username":"bob"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown username", func(t *testing.T) {
		rec, e := doJSON(t, aliceRouter, http.MethodPost, "/api/friends/request", `{"username":"nobody"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found.", e.Error)
	})

	t.Run("self request", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPost, "/api/friends/request", `{"username":"alice"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("recipient sees it incoming", func(t *testing.T) {
		rec, e := doJSON(t, bobRouter, http.MethodGet, "/api/friends/requests", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var data struct {
			Incoming []models.FriendRequest `json:"incoming"`
			Outgoing []models.FriendRequest `json:"outgoing"`
		}
		require.NoError(t, json.Unmarshal(e.Data, &data))
		require.Len(t, data.Incoming, 1)
		assert.Empty(t, data.Outgoing)
	})

	t.Run("sender cannot accept", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPost, "/api/friends/requests/"+request.ID.String()+"/accept", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("recipient accepts", func(t *testing.T) {
		rec, _ := doJSON(t, bobRouter, http.MethodPost, "/api/friends/requests/"+request.ID.String()+"/accept", "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec, e := doJSON(t, aliceRouter, http.MethodGet, "/api/friends", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var friends []models.Friend
		require.NoError(t, json.Unmarshal(e.Data, &friends))
		require.Len(t, friends, 1)
		assert.Equal(t, bob, friends[0].UserID)
	})

	t.Run("either side can remove the friendship", func(t *testing.T) {
		rec, _ := doJSON(t, bobRouter, http.MethodDelete, "/api/friends/"+alice.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec, e := doJSON(t, aliceRouter, http.MethodGet, "/api/friends", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var friends []models.Friend
		require.NoError(t, json.Unmarshal(e.Data, &friends))
		assert.Empty(t, friends)
	})
}

func TestBlacklistEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	aliceRouter := env.friendsRouter(alice)
	bobRouter := env.friendsRouter(bob)

	rec, _ := doJSON(t, aliceRouter, http.MethodPost, "/api/blacklist", `{"userId":"`+bob.String()+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("blocked user cannot send a request", func(t *testing.T) {
		rec, _ := doJSON(t, bobRouter, http.MethodPost, "/api/friends/request", `{"username":"alice"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("listed in the blacklist", func(t *testing.T) {
		rec, e := doJSON(t, aliceRouter, http.MethodGet, "/api/blacklist", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var blocked []models.BlockedUser
		require.NoError(t, json.Unmarshal(e.Data, &blocked))
		require.Len(t, blocked, 1)
		assert.Equal(t, bob, blocked[0].UserID)
		assert.Equal(t, "bob", blocked[0].Username)
	})

	t.Run("blocking unknown user", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPost, "/api/blacklist", `{"userId":"`+uuid.NewString()+`"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unblock restores requests", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodDelete, "/api/blacklist/"+bob.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = doJSON(t, bobRouter, http.MethodPost, "/api/friends/request", `{"username":"alice"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})
}
