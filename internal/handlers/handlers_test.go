package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportlog/backend/internal/feed"
	"github.com/sportlog/backend/internal/middleware"
	"github.com/sportlog/backend/internal/models"
	"github.com/sportlog/backend/internal/progress"
	"github.com/sportlog/backend/internal/store"
)

// testEnv wires a Handler over the memory stores with "now" pinned to
// Wednesday 2024-03-13.
type testEnv struct {
	handler    *Handler
	users      *store.MemoryUsers
	activities *store.MemoryActivities
	goals      *store.MemoryGoals
	friends    *store.MemoryFriends
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)
	goals := store.NewMemoryGoals()
	friends := store.NewMemoryFriends(users)
	calc := &progress.Calculator{
		Activities: activities,
		Now: func() time.Time {
			return time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
		},
	}

	return &testEnv{
		handler: &Handler{
			Users:      users,
			Activities: activities,
			Goals:      goals,
			Friends:    friends,
			Feed:       feed.NewService(activities, goals, friends, calc),
			Progress:   calc,
		},
		users:      users,
		activities: activities,
		goals:      goals,
		friends:    friends,
	}
}

// router mounts the authenticated routes with the given caller identity
// injected, so URL params resolve through chi the same way they do in
// production.
func (env *testEnv) router(userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
		})
	})
	r.Get("/api/activities", env.handler.ListActivities)
	r.Post("/api/activities", env.handler.CreateActivity)
	r.Get("/api/activities/public", env.handler.PublicFeed)
	r.Put("/api/activities/{activityId}", env.handler.UpdateActivity)
	r.Delete("/api/activities/{activityId}", env.handler.DeleteActivity)
	r.Get("/api/goals", env.handler.GetGoals)
	r.Put("/api/goals", env.handler.SetGoals)
	r.Get("/api/goals/progress", env.handler.GetProgress)
	return r
}

func (env *testEnv) addUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u, err := env.users.Create(context.Background(), username, username, "hash")
	require.NoError(t, err)
	return u.ID
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func doJSON(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)

	register := func(body string) (*httptest.ResponseRecorder, envelope) {
		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		env.handler.Register(rec, req)

		var e envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
		return rec, e
	}

	t.Run("success", func(t *testing.T) {
		rec, e := register(`{"username":"alice","password":"secret123"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, e.Error)

		var data struct {
			User map[string]interface{} `json:"user"`
		}
		require.NoError(t, json.Unmarshal(e.Data, &data))
		assert.Equal(t, "alice", data.User["username"])
		assert.NotContains(t, data.User, "passwordHash")
	})

	t.Run("duplicate username", func(t *testing.T) {
		rec, e := register(`{"username":"alice","password":"secret123"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username already exists.", e.Error)
	})

	t.Run("short password", func(t *testing.T) {
		rec, _ := register(`{"username":"bob","password":"abc"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid username", func(t *testing.T) {
		rec, _ := register(`{"username":"_nope","password":"secret123"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec, _ := register(`{"username":"carol"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	userID := env.addUser(t, "alice")

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	env.handler.Me(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var e envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
	var data struct {
		User map[string]interface{} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, userID.String(), data.User["id"])
}

func TestCreateActivity(t *testing.T) {
	env := newTestEnv(t)
	userID := env.addUser(t, "alice")
	router := env.router(userID)

	t.Run("defaults applied", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"2024-03-12","sport":"Running","durationMinutes":30}`)
		require.Equal(t, http.StatusCreated, rec.Code, e.Error)

		var a models.Activity
		require.NoError(t, json.Unmarshal(e.Data, &a))
		assert.Equal(t, "2024-03-12", a.Date)
		assert.Equal(t, models.IntensityModerate, a.Intensity)
		assert.False(t, a.IsPublic)
		assert.Equal(t, userID, a.OwnerID)
	})

	t.Run("string duration and visibility token", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"2024-03-12","sport":"Cycling","durationMinutes":"45","isPublic":"1"}`)
		require.Equal(t, http.StatusCreated, rec.Code, e.Error)

		var a models.Activity
		require.NoError(t, json.Unmarshal(e.Data, &a))
		assert.Equal(t, 45, a.DurationMinutes)
		assert.True(t, a.IsPublic)
	})

	t.Run("unknown visibility token falls back to private", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"2024-03-12","sport":"Cycling","durationMinutes":45,"isPublic":"maybe"}`)
		require.Equal(t, http.StatusCreated, rec.Code, e.Error)

		var a models.Activity
		require.NoError(t, json.Unmarshal(e.Data, &a))
		assert.False(t, a.IsPublic)
	})

	t.Run("missing required fields", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"sport":"Running"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "date, sport, and durationMinutes are required fields.", e.Error)
	})

	t.Run("invalid duration", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"2024-03-12","sport":"Running","durationMinutes":-5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid date", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"12/03/2024","sport":"Running","durationMinutes":30}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPost, "/api/activities", `{not json`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListActivitiesScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")

	aliceRouter := env.router(alice)
	bobRouter := env.router(bob)

	_, e := doJSON(t, aliceRouter, http.MethodPost, "/api/activities",
		`{"date":"2024-03-11","sport":"Running","durationMinutes":30}`)
	require.Empty(t, e.Error)
	_, e = doJSON(t, bobRouter, http.MethodPost, "/api/activities",
		`{"date":"2024-03-12","sport":"Cycling","durationMinutes":60}`)
	require.Empty(t, e.Error)

	rec, e := doJSON(t, aliceRouter, http.MethodGet, "/api/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.Activity
	require.NoError(t, json.Unmarshal(e.Data, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Running", list[0].Sport)
}

func TestUpdateActivity(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	aliceRouter := env.router(alice)

	_, e := doJSON(t, aliceRouter, http.MethodPost, "/api/activities",
		`{"date":"2024-03-11","sport":"Running","durationMinutes":30,"notes":"easy jog"}`)
	require.Empty(t, e.Error)
	var created models.Activity
	require.NoError(t, json.Unmarshal(e.Data, &created))

	t.Run("partial update keeps other fields", func(t *testing.T) {
		rec, e := doJSON(t, aliceRouter, http.MethodPut, "/api/activities/"+created.ID.String(),
			`{"durationMinutes":55}`)
		require.Equal(t, http.StatusOK, rec.Code, e.Error)

		var a models.Activity
		require.NoError(t, json.Unmarshal(e.Data, &a))
		assert.Equal(t, 55, a.DurationMinutes)
		assert.Equal(t, "Running", a.Sport)
		assert.Equal(t, "easy jog", a.Notes)
		assert.Equal(t, "2024-03-11", a.Date)
	})

	t.Run("someone else's activity looks absent", func(t *testing.T) {
		rec, e := doJSON(t, env.router(bob), http.MethodPut, "/api/activities/"+created.ID.String(),
			`{"durationMinutes":10}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Activity not found.", e.Error)
	})

	t.Run("malformed id", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPut, "/api/activities/not-a-uuid",
			`{"durationMinutes":10}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid field rejected", func(t *testing.T) {
		rec, _ := doJSON(t, aliceRouter, http.MethodPut, "/api/activities/"+created.ID.String(),
			`{"durationMinutes":0}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteActivity(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	aliceRouter := env.router(alice)

	_, e := doJSON(t, aliceRouter, http.MethodPost, "/api/activities",
		`{"date":"2024-03-11","sport":"Running","durationMinutes":30}`)
	require.Empty(t, e.Error)
	var created models.Activity
	require.NoError(t, json.Unmarshal(e.Data, &created))

	rec, _ := doJSON(t, env.router(bob), http.MethodDelete, "/api/activities/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, e = doJSON(t, aliceRouter, http.MethodDelete, "/api/activities/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data map[string]string
	require.NoError(t, json.Unmarshal(e.Data, &data))
	assert.Equal(t, created.ID.String(), data["id"])

	// Deleting again reports absence.
	rec, _ = doJSON(t, aliceRouter, http.MethodDelete, "/api/activities/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicFeedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	bob := env.addUser(t, "bob")
	aliceRouter := env.router(alice)

	for _, date := range []string{"2024-03-11", "2024-03-12", "2024-03-13"} {
		_, e := doJSON(t, aliceRouter, http.MethodPost, "/api/activities",
			`{"date":"`+date+`","sport":"Running","durationMinutes":30,"isPublic":true}`)
		require.Empty(t, e.Error)
	}

	rec, e := doJSON(t, env.router(bob), http.MethodGet, "/api/activities/public", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.EnrichedActivity
	require.NoError(t, json.Unmarshal(e.Data, &entries))
	require.Len(t, entries, 3)

	for _, entry := range entries {
		assert.False(t, entry.IsOwner)
		assert.Equal(t, "alice", entry.OwnerName)
		require.NotNil(t, entry.OwnerGoals)
		assert.Equal(t, 3, entry.OwnerGoals.WeeklyCount)
		assert.True(t, entry.OwnerGoals.HasWeeklyGoal)
	}
}

func TestGoalsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	router := env.router(alice)

	t.Run("defaults before any set", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodGet, "/api/goals", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var g models.Goal
		require.NoError(t, json.Unmarshal(e.Data, &g))
		assert.Equal(t, models.DefaultWeeklyGoal, g.WeeklyGoal)
		assert.Equal(t, models.DefaultMonthlyGoal, g.MonthlyGoal)
		assert.False(t, g.IsSet)
	})

	t.Run("set and read back", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPut, "/api/goals", `{"weeklyGoal":5,"monthlyGoal":20}`)
		require.Equal(t, http.StatusOK, rec.Code, e.Error)

		rec, e = doJSON(t, router, http.MethodGet, "/api/goals", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var g models.Goal
		require.NoError(t, json.Unmarshal(e.Data, &g))
		assert.Equal(t, 5, g.WeeklyGoal)
		assert.Equal(t, 20, g.MonthlyGoal)
		assert.True(t, g.IsSet)
	})

	t.Run("missing field", func(t *testing.T) {
		rec, e := doJSON(t, router, http.MethodPut, "/api/goals", `{"weeklyGoal":5}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "weeklyGoal and monthlyGoal are required fields.", e.Error)
	})

	t.Run("out of range", func(t *testing.T) {
		rec, _ := doJSON(t, router, http.MethodPut, "/api/goals", `{"weeklyGoal":2,"monthlyGoal":20}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec, _ = doJSON(t, router, http.MethodPut, "/api/goals", `{"weeklyGoal":51,"monthlyGoal":20}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestProgressEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice := env.addUser(t, "alice")
	router := env.router(alice)

	// Week window starts Monday 2024-03-11; month window on 2024-03-01.
	for _, date := range []string{"2024-03-11", "2024-03-05", "2024-02-20"} {
		_, e := doJSON(t, router, http.MethodPost, "/api/activities",
			`{"date":"`+date+`","sport":"Running","durationMinutes":30}`)
		require.Empty(t, e.Error)
	}

	rec, e := doJSON(t, router, http.MethodGet, "/api/goals/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var counts store.Counts
	require.NoError(t, json.Unmarshal(e.Data, &counts))
	assert.Equal(t, 1, counts.WeeklyCount)
	assert.Equal(t, 2, counts.MonthlyCount)
}
