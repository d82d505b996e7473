// Package feed assembles the public community feed: public activities
// enriched with ownership flags and per-owner achievement snapshots.
package feed

import (
	"context"

	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/models"
	"github.com/sportlog/backend/internal/progress"
	"github.com/sportlog/backend/internal/store"
)

type Service struct {
	activities store.ActivityStore
	goals      store.GoalStore
	friends    store.FriendStore
	progress   *progress.Calculator
}

// NewService wires the feed. friends may be nil, in which case no blacklist
// filtering is applied.
func NewService(activities store.ActivityStore, goals store.GoalStore, friends store.FriendStore, calc *progress.Calculator) *Service {
	return &Service{
		activities: activities,
		goals:      goals,
		friends:    friends,
		progress:   calc,
	}
}

// PublicFeed returns every public activity, newest first, annotated with the
// owner's display name, whether the caller owns it, and the owner's goal
// snapshot. The snapshot is computed once per distinct owner, not once per
// activity.
func (s *Service) PublicFeed(ctx context.Context, caller uuid.UUID) ([]models.EnrichedActivity, error) {
	activities, err := s.activities.ListPublic(ctx)
	if err != nil {
		return nil, err
	}

	if s.friends != nil {
		blocked, err := s.friends.BlockedSet(ctx, caller)
		if err != nil {
			return nil, err
		}
		if len(blocked) > 0 {
			filtered := activities[:0]
			for _, a := range activities {
				if !blocked[a.OwnerID] {
					filtered = append(filtered, a)
				}
			}
			activities = filtered
		}
	}

	owners := distinctOwners(activities)
	counts, err := s.progress.SnapshotAll(ctx, owners)
	if err != nil {
		return nil, err
	}

	ownerGoals := make(map[uuid.UUID]*models.OwnerGoals, len(owners))
	for _, ownerID := range owners {
		goal, err := s.goals.Get(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		c := counts[ownerID]
		ownerGoals[ownerID] = &models.OwnerGoals{
			WeeklyGoal:     goal.WeeklyGoal,
			MonthlyGoal:    goal.MonthlyGoal,
			WeeklyCount:    c.WeeklyCount,
			MonthlyCount:   c.MonthlyCount,
			HasWeeklyGoal:  c.WeeklyCount >= goal.WeeklyGoal,
			HasMonthlyGoal: c.MonthlyCount >= goal.MonthlyGoal,
		}
	}

	entries := make([]models.EnrichedActivity, 0, len(activities))
	for _, a := range activities {
		entries = append(entries, models.EnrichedActivity{
			Activity:   a,
			IsOwner:    a.OwnerID == caller,
			OwnerGoals: ownerGoals[a.OwnerID],
		})
	}
	return entries, nil
}

func distinctOwners(activities []models.Activity) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(activities))
	owners := make([]uuid.UUID, 0, len(activities))
	for _, a := range activities {
		if !seen[a.OwnerID] {
			seen[a.OwnerID] = true
			owners = append(owners, a.OwnerID)
		}
	}
	return owners
}
