// Package progress derives weekly and monthly workout counts. The window
// math is pure: for a fixed reference time and activity set the result never
// changes, which is what makes it testable.
package progress

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/store"
)

// WeekStart returns the most recent Monday at 00:00 relative to now. Weeks
// are Monday-anchored: on a Sunday this goes back six days, not forward one.
func WeekStart(now time.Time) time.Time {
	daysSinceMonday := (int(now.Weekday()) + 6) % 7
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return day.AddDate(0, 0, -daysSinceMonday)
}

// MonthStart returns the first day of now's calendar month at 00:00.
func MonthStart(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Calculator computes progress snapshots against an activity store. Now is
// injectable so tests can pin the reference time.
type Calculator struct {
	Activities store.ActivityStore
	Now        func() time.Time
}

func NewCalculator(activities store.ActivityStore) *Calculator {
	return &Calculator{Activities: activities, Now: time.Now}
}

// Snapshot returns the user's counts for the current week and month windows.
// Counts cover all of the user's activities, private ones included.
func (c *Calculator) Snapshot(ctx context.Context, userID uuid.UUID) (store.Counts, error) {
	all, err := c.SnapshotAll(ctx, []uuid.UUID{userID})
	if err != nil {
		return store.Counts{}, err
	}
	return all[userID], nil
}

// SnapshotAll computes counts for several owners in one store round trip.
// Owners with no activities in the windows get zero counts.
func (c *Calculator) SnapshotAll(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]store.Counts, error) {
	now := c.Now()
	counts, err := c.Activities.CountSince(ctx, ownerIDs, WeekStart(now), MonthStart(now))
	if err != nil {
		return nil, err
	}
	for _, id := range ownerIDs {
		if _, ok := counts[id]; !ok {
			counts[id] = store.Counts{}
		}
	}
	return counts, nil
}
