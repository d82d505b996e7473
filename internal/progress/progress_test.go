package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sportlog/backend/internal/store"
)

func TestWeekStartMondayAnchored(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "wednesday goes back two days",
			now:  time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday is its own week start",
			now:  time.Date(2024, 3, 11, 0, 0, 1, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday goes back six days, not forward",
			now:  time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC),
			want: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "week start can cross a month boundary",
			now:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			want: time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStart(tt.now))
		})
	}
}

func TestMonthStart(t *testing.T) {
	now := time.Date(2024, 3, 13, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(now))

	first := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, first, MonthStart(first))
}

func createActivity(t *testing.T, activities store.ActivityStore, ownerID uuid.UUID, date string) {
	t.Helper()
	_, err := activities.Create(context.Background(), ownerID, store.ActivityInput{
		Date:            date,
		Sport:           "Running",
		DurationMinutes: 30,
		Intensity:       "moderate",
	})
	require.NoError(t, err)
}

func TestSnapshotWindowBoundaries(t *testing.T) {
	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)
	ownerID := uuid.New()

	// "Now" is Wednesday 2024-03-13. Week starts Monday 2024-03-11.
	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	calc := &Calculator{Activities: activities, Now: func() time.Time { return now }}

	createActivity(t, activities, ownerID, "2024-03-11") // preceding Monday: in week
	createActivity(t, activities, ownerID, "2024-03-10") // preceding Sunday: out of week, in month
	createActivity(t, activities, ownerID, "2024-03-13") // today: in both
	createActivity(t, activities, ownerID, "2024-02-29") // last month: in neither

	counts, err := calc.Snapshot(context.Background(), ownerID)
	require.NoError(t, err)

	assert.Equal(t, 2, counts.WeeklyCount)
	assert.Equal(t, 3, counts.MonthlyCount)
}

func TestSnapshotMonthCountSupersetOfWeek(t *testing.T) {
	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)
	ownerID := uuid.New()

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	calc := &Calculator{Activities: activities, Now: func() time.Time { return now }}

	createActivity(t, activities, ownerID, "2024-03-12")
	createActivity(t, activities, ownerID, "2024-03-05")

	counts, err := calc.Snapshot(context.Background(), ownerID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, counts.MonthlyCount, counts.WeeklyCount)
}

func TestSnapshotNoActivitiesIsZero(t *testing.T) {
	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)

	calc := NewCalculator(activities)
	counts, err := calc.Snapshot(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, store.Counts{}, counts)
}

func TestSnapshotAllFillsMissingOwners(t *testing.T) {
	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)

	active := uuid.New()
	idle := uuid.New()

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	calc := &Calculator{Activities: activities, Now: func() time.Time { return now }}

	createActivity(t, activities, active, "2024-03-12")

	counts, err := calc.SnapshotAll(context.Background(), []uuid.UUID{active, idle})
	require.NoError(t, err)

	assert.Equal(t, store.Counts{WeeklyCount: 1, MonthlyCount: 1}, counts[active])
	assert.Equal(t, store.Counts{}, counts[idle])
}

func TestSnapshotDeterministic(t *testing.T) {
	users := store.NewMemoryUsers()
	activities := store.NewMemoryActivities(users)
	ownerID := uuid.New()

	now := time.Date(2024, 3, 13, 10, 0, 0, 0, time.UTC)
	calc := &Calculator{Activities: activities, Now: func() time.Time { return now }}

	createActivity(t, activities, ownerID, "2024-03-12")

	first, err := calc.Snapshot(context.Background(), ownerID)
	require.NoError(t, err)
	second, err := calc.Snapshot(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
