package models

import (
	"time"

	"github.com/google/uuid"
)

// Intensity levels accepted on an activity.
const (
	IntensityEasy     = "easy"
	IntensityModerate = "moderate"
	IntensityHard     = "hard"
)

// DateLayout is the wire and storage format for workout dates. Activities are
// calendar-day records: the date is always serialized as a plain YYYY-MM-DD
// string so it cannot drift by a day across timezones.
const DateLayout = "2006-01-02"

// Activity is one logged workout.
type Activity struct {
	ID              uuid.UUID `json:"id"`
	OwnerID         uuid.UUID `json:"ownerId"`
	Date            string    `json:"date"`
	Sport           string    `json:"sport"`
	DurationMinutes int       `json:"durationMinutes"`
	Intensity       string    `json:"intensity"`
	Notes           string    `json:"notes"`
	PhotoURL        string    `json:"photoUrl"`
	IsPublic        bool      `json:"isPublic"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`

	// OwnerName is populated on listings that join the owning user.
	OwnerName string `json:"ownerName,omitempty"`
}

// OwnerGoals is the per-owner achievement descriptor attached to public feed
// entries. Counts cover all of the owner's activities in the window, public
// and private alike; the feed merely surfaces them on public posts.
type OwnerGoals struct {
	WeeklyGoal     int  `json:"weeklyGoal"`
	MonthlyGoal    int  `json:"monthlyGoal"`
	WeeklyCount    int  `json:"weeklyCount"`
	MonthlyCount   int  `json:"monthlyCount"`
	HasWeeklyGoal  bool `json:"hasWeeklyGoal"`
	HasMonthlyGoal bool `json:"hasMonthlyGoal"`
}

// EnrichedActivity is a public feed entry: the activity plus the caller-aware
// ownership flag and the owner's achievement snapshot.
type EnrichedActivity struct {
	Activity
	IsOwner    bool        `json:"isOwner"`
	OwnerGoals *OwnerGoals `json:"ownerGoals"`
}
