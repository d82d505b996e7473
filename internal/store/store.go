// Package store defines the storage contracts for sportlog. Both the
// Postgres implementation and the in-memory implementation satisfy the same
// interfaces, so handlers and services never know which backend they run on.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/models"
)

var (
	// ErrNotFound is returned when an entity does not exist or does not
	// belong to the caller. Ownership failures are deliberately
	// indistinguishable from true absence.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when a uniqueness constraint would be
	// violated (username taken, friend request already pending, ...).
	ErrDuplicate = errors.New("already exists")
)

// ValidationError reports malformed or out-of-range input. Handlers map it
// to a 400 response.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf builds a ValidationError for a field.
func Validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ActivityInput carries the fields of a new activity. Optional fields carry
// their defaults already applied (intensity "moderate", empty notes, ...).
type ActivityInput struct {
	Date            string
	Sport           string
	DurationMinutes int
	Intensity       string
	Notes           string
	PhotoURL        string
	IsPublic        bool
}

// ActivityUpdate is a partial update: nil pointers keep the stored value.
// A non-nil PhotoURL replaces the old photo reference.
type ActivityUpdate struct {
	Date            *string
	Sport           *string
	DurationMinutes *int
	Intensity       *string
	Notes           *string
	PhotoURL        *string
	IsPublic        *bool
}

// Counts is a progress snapshot: how many of a user's activities fall in the
// current week and month windows. Derived on demand, never stored.
type Counts struct {
	WeeklyCount  int `json:"weeklyCount"`
	MonthlyCount int `json:"monthlyCount"`
}

// UserStore owns account records.
type UserStore interface {
	// Create inserts a new user. Returns ErrDuplicate when the username
	// is already taken (case-insensitive).
	Create(ctx context.Context, username, displayName, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ActivityStore owns workout records, scoped to an owner.
type ActivityStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, in ActivityInput) (*models.Activity, error)

	// ListByOwner returns the owner's activities, newest-created first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Activity, error)

	// ListPublic returns all public activities across owners, newest
	// first, each annotated with the owner's display name.
	ListPublic(ctx context.Context) ([]models.Activity, error)

	// Update applies a partial update to an activity owned by ownerID.
	// Returns the updated activity and the photo URL that was replaced
	// (empty if the photo did not change). ErrNotFound when the id does
	// not exist or belongs to someone else.
	Update(ctx context.Context, ownerID, id uuid.UUID, upd ActivityUpdate) (*models.Activity, string, error)

	// Delete removes an activity and returns its photo URL so the caller
	// can release the stored photo. Same ownership rule as Update.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (string, error)

	// CountSince returns, per owner, how many activities are dated on or
	// after weekStart and monthStart. Owners with no activities in the
	// windows are absent from the result.
	CountSince(ctx context.Context, ownerIDs []uuid.UUID, weekStart, monthStart time.Time) (map[uuid.UUID]Counts, error)
}

// GoalStore owns the single-row-per-user target configuration.
type GoalStore interface {
	// Get never fails on absence: it returns the defaults with
	// IsSet=false instead.
	Get(ctx context.Context, userID uuid.UUID) (models.Goal, error)

	// Set upserts the user's goal. Exactly one row per user afterwards.
	Set(ctx context.Context, userID uuid.UUID, weeklyGoal, monthlyGoal int) (models.Goal, error)
}

// FriendStore owns the friend-request workflow and the blacklist.
type FriendStore interface {
	CreateRequest(ctx context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error)
	ListRequests(ctx context.Context, userID uuid.UUID) (incoming, outgoing []models.FriendRequest, err error)

	// AcceptRequest and RejectRequest are recipient-only; ErrNotFound
	// otherwise.
	AcceptRequest(ctx context.Context, requestID, recipientID uuid.UUID) error
	RejectRequest(ctx context.Context, requestID, recipientID uuid.UUID) error

	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.Friend, error)
	DeleteFriend(ctx context.Context, userID, friendID uuid.UUID) error

	// Block removes any friendship and pending requests between the two
	// users before recording the block.
	Block(ctx context.Context, userID, blockedUserID uuid.UUID) error
	Unblock(ctx context.Context, userID, blockedUserID uuid.UUID) error
	ListBlocked(ctx context.Context, userID uuid.UUID) ([]models.BlockedUser, error)

	// BlockedSet returns every user id blocked by userID or blocking
	// userID, for feed filtering.
	BlockedSet(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error)
}

// ParseVisibility interprets the visibility flag tokens shared by JSON and
// multipart form submissions. Unknown tokens fall back to the caller default.
func ParseVisibility(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true
	case "false", "0", "off", "no":
		return false
	default:
		return fallback
	}
}

// ValidateActivityInput checks a complete activity payload before any
// mutation happens.
func ValidateActivityInput(in *ActivityInput) error {
	if strings.TrimSpace(in.Date) == "" || strings.TrimSpace(in.Sport) == "" || in.DurationMinutes == 0 {
		return Validationf("", "date, sport, and durationMinutes are required fields.")
	}
	if in.DurationMinutes <= 0 {
		return Validationf("durationMinutes", "durationMinutes must be a positive number.")
	}
	if _, err := time.Parse(models.DateLayout, in.Date); err != nil {
		return Validationf("date", "date must be a valid YYYY-MM-DD calendar date.")
	}
	if in.Intensity == "" {
		in.Intensity = models.IntensityModerate
	}
	switch in.Intensity {
	case models.IntensityEasy, models.IntensityModerate, models.IntensityHard:
	default:
		return Validationf("intensity", "intensity must be one of easy, moderate, hard.")
	}
	return nil
}

// ValidateActivityUpdate checks the fields present in a partial update.
func ValidateActivityUpdate(upd *ActivityUpdate) error {
	if upd.DurationMinutes != nil && *upd.DurationMinutes <= 0 {
		return Validationf("durationMinutes", "durationMinutes must be a positive number.")
	}
	if upd.Date != nil {
		if _, err := time.Parse(models.DateLayout, *upd.Date); err != nil {
			return Validationf("date", "date must be a valid YYYY-MM-DD calendar date.")
		}
	}
	if upd.Sport != nil && strings.TrimSpace(*upd.Sport) == "" {
		return Validationf("sport", "sport cannot be empty.")
	}
	if upd.Intensity != nil {
		switch *upd.Intensity {
		case models.IntensityEasy, models.IntensityModerate, models.IntensityHard:
		default:
			return Validationf("intensity", "intensity must be one of easy, moderate, hard.")
		}
	}
	return nil
}

// ValidateGoalBounds checks the weekly/monthly goal ranges.
func ValidateGoalBounds(weeklyGoal, monthlyGoal int) error {
	if weeklyGoal < models.MinWeeklyGoal || weeklyGoal > models.MaxWeeklyGoal {
		return Validationf("weeklyGoal", "weeklyGoal must be between %d and %d.", models.MinWeeklyGoal, models.MaxWeeklyGoal)
	}
	if monthlyGoal < models.MinMonthlyGoal || monthlyGoal > models.MaxMonthlyGoal {
		return Validationf("monthlyGoal", "monthlyGoal must be between %d and %d.", models.MinMonthlyGoal, models.MaxMonthlyGoal)
	}
	return nil
}
