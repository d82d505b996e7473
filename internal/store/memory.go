package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sportlog/backend/internal/models"
)

// The memory stores back the same contracts with plain maps. They exist for
// tests and for running the server without Postgres; the application code
// cannot tell them apart from the relational stores.

// MemoryUsers is the map-backed UserStore.
type MemoryUsers struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*models.User
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{users: make(map[uuid.UUID]*models.User)}
}

func (s *MemoryUsers) Create(_ context.Context, username, displayName, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return nil, ErrDuplicate
		}
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user

	copied := *user
	return &copied, nil
}

func (s *MemoryUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryUsers) displayName(id uuid.UUID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[id]; ok {
		return u.DisplayName
	}
	return ""
}

// MemoryActivities is the map-backed ActivityStore.
type MemoryActivities struct {
	mu          sync.RWMutex
	activities  map[uuid.UUID]*models.Activity
	users       *MemoryUsers
	lastCreated time.Time
}

func NewMemoryActivities(users *MemoryUsers) *MemoryActivities {
	return &MemoryActivities{
		activities: make(map[uuid.UUID]*models.Activity),
		users:      users,
	}
}

// nextCreatedAt returns a strictly increasing timestamp so newest-first
// ordering matches creation order even when inserts land in the same tick.
func (s *MemoryActivities) nextCreatedAt() time.Time {
	now := time.Now().UTC()
	if !now.After(s.lastCreated) {
		now = s.lastCreated.Add(time.Nanosecond)
	}
	s.lastCreated = now
	return now
}

func (s *MemoryActivities) Create(_ context.Context, ownerID uuid.UUID, in ActivityInput) (*models.Activity, error) {
	if err := ValidateActivityInput(&in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nextCreatedAt()
	a := &models.Activity{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		Date:            in.Date,
		Sport:           in.Sport,
		DurationMinutes: in.DurationMinutes,
		Intensity:       in.Intensity,
		Notes:           in.Notes,
		PhotoURL:        in.PhotoURL,
		IsPublic:        in.IsPublic,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.activities[a.ID] = a

	copied := *a
	return &copied, nil
}

func (s *MemoryActivities) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]models.Activity, error) {
	s.mu.RLock()
	out := make([]models.Activity, 0)
	for _, a := range s.activities {
		if a.OwnerID == ownerID {
			copied := *a
			out = append(out, copied)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	s.annotateOwners(out)
	return out, nil
}

func (s *MemoryActivities) ListPublic(_ context.Context) ([]models.Activity, error) {
	s.mu.RLock()
	out := make([]models.Activity, 0)
	for _, a := range s.activities {
		if a.IsPublic {
			copied := *a
			out = append(out, copied)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(out)
	s.annotateOwners(out)
	return out, nil
}

func sortNewestFirst(activities []models.Activity) {
	sort.Slice(activities, func(i, j int) bool {
		if !activities[i].CreatedAt.Equal(activities[j].CreatedAt) {
			return activities[i].CreatedAt.After(activities[j].CreatedAt)
		}
		return activities[i].ID.String() > activities[j].ID.String()
	})
}

func (s *MemoryActivities) annotateOwners(activities []models.Activity) {
	if s.users == nil {
		return
	}
	for i := range activities {
		activities[i].OwnerName = s.users.displayName(activities[i].OwnerID)
	}
}

func (s *MemoryActivities) Update(_ context.Context, ownerID, id uuid.UUID, upd ActivityUpdate) (*models.Activity, string, error) {
	if err := ValidateActivityUpdate(&upd); err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[id]
	if !ok || a.OwnerID != ownerID {
		return nil, "", ErrNotFound
	}

	replacedPhoto := ""
	if upd.PhotoURL != nil && a.PhotoURL != "" && a.PhotoURL != *upd.PhotoURL {
		replacedPhoto = a.PhotoURL
	}

	merged := mergeActivityUpdate(a, upd)
	merged.UpdatedAt = time.Now().UTC()
	s.activities[id] = &merged

	copied := merged
	return &copied, replacedPhoto, nil
}

func (s *MemoryActivities) Delete(_ context.Context, ownerID, id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.activities[id]
	if !ok || a.OwnerID != ownerID {
		return "", ErrNotFound
	}
	delete(s.activities, id)
	return a.PhotoURL, nil
}

// CountSince falls back to a per-owner scan; the memory backend has no
// grouped-query primitive to batch on.
func (s *MemoryActivities) CountSince(_ context.Context, ownerIDs []uuid.UUID, weekStart, monthStart time.Time) (map[uuid.UUID]Counts, error) {
	wanted := make(map[uuid.UUID]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		wanted[id] = true
	}

	weekDate := weekStart.Format(models.DateLayout)
	monthDate := monthStart.Format(models.DateLayout)

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[uuid.UUID]Counts, len(ownerIDs))
	for _, a := range s.activities {
		if !wanted[a.OwnerID] {
			continue
		}
		c := result[a.OwnerID]
		// YYYY-MM-DD strings compare correctly as strings.
		if a.Date >= weekDate {
			c.WeeklyCount++
		}
		if a.Date >= monthDate {
			c.MonthlyCount++
		}
		result[a.OwnerID] = c
	}
	return result, nil
}

// MemoryGoals is the map-backed GoalStore.
type MemoryGoals struct {
	mu    sync.RWMutex
	goals map[uuid.UUID]models.Goal
}

func NewMemoryGoals() *MemoryGoals {
	return &MemoryGoals{goals: make(map[uuid.UUID]models.Goal)}
}

func (s *MemoryGoals) Get(_ context.Context, userID uuid.UUID) (models.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.goals[userID]
	if !ok {
		return models.DefaultGoal(), nil
	}
	return g, nil
}

func (s *MemoryGoals) Set(_ context.Context, userID uuid.UUID, weeklyGoal, monthlyGoal int) (models.Goal, error) {
	if err := ValidateGoalBounds(weeklyGoal, monthlyGoal); err != nil {
		return models.Goal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g := models.Goal{WeeklyGoal: weeklyGoal, MonthlyGoal: monthlyGoal, IsSet: true}
	s.goals[userID] = g
	return g, nil
}

// MemoryFriends is the map-backed FriendStore.
type MemoryFriends struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*models.FriendRequest
	friends  map[[2]uuid.UUID]time.Time
	blocked  map[[2]uuid.UUID]time.Time // [blocker, blocked]
	users    *MemoryUsers
}

func NewMemoryFriends(users *MemoryUsers) *MemoryFriends {
	return &MemoryFriends{
		requests: make(map[uuid.UUID]*models.FriendRequest),
		friends:  make(map[[2]uuid.UUID]time.Time),
		blocked:  make(map[[2]uuid.UUID]time.Time),
		users:    users,
	}
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() < b.String() {
		return [2]uuid.UUID{a, b}
	}
	return [2]uuid.UUID{b, a}
}

func (s *MemoryFriends) username(id uuid.UUID) (username, displayName string) {
	if s.users == nil {
		return "", ""
	}
	if u, err := s.users.GetByID(context.Background(), id); err == nil {
		return u.Username, u.DisplayName
	}
	return "", ""
}

func (s *MemoryFriends) CreateRequest(_ context.Context, fromUserID, toUserID uuid.UUID) (*models.FriendRequest, error) {
	if fromUserID == toUserID {
		return nil, Validationf("username", "You cannot send a friend request to yourself.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blocked[[2]uuid.UUID{fromUserID, toUserID}]; ok {
		return nil, ErrNotFound
	}
	if _, ok := s.blocked[[2]uuid.UUID{toUserID, fromUserID}]; ok {
		return nil, ErrNotFound
	}
	if _, ok := s.friends[pairKey(fromUserID, toUserID)]; ok {
		return nil, ErrDuplicate
	}
	for _, r := range s.requests {
		if (r.FromUserID == fromUserID && r.ToUserID == toUserID) ||
			(r.FromUserID == toUserID && r.ToUserID == fromUserID) {
			return nil, ErrDuplicate
		}
	}

	req := &models.FriendRequest{
		ID:         uuid.New(),
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		CreatedAt:  time.Now().UTC(),
	}
	req.FromUsername, _ = s.username(fromUserID)
	req.ToUsername, _ = s.username(toUserID)
	s.requests[req.ID] = req

	copied := *req
	return &copied, nil
}

func (s *MemoryFriends) ListRequests(_ context.Context, userID uuid.UUID) ([]models.FriendRequest, []models.FriendRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incoming := make([]models.FriendRequest, 0)
	outgoing := make([]models.FriendRequest, 0)
	for _, r := range s.requests {
		switch userID {
		case r.ToUserID:
			incoming = append(incoming, *r)
		case r.FromUserID:
			outgoing = append(outgoing, *r)
		}
	}
	sort.Slice(incoming, func(i, j int) bool { return incoming[i].CreatedAt.After(incoming[j].CreatedAt) })
	sort.Slice(outgoing, func(i, j int) bool { return outgoing[i].CreatedAt.After(outgoing[j].CreatedAt) })
	return incoming, outgoing, nil
}

func (s *MemoryFriends) AcceptRequest(_ context.Context, requestID, recipientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok || r.ToUserID != recipientID {
		return ErrNotFound
	}
	delete(s.requests, requestID)
	s.friends[pairKey(r.FromUserID, r.ToUserID)] = time.Now().UTC()
	return nil
}

func (s *MemoryFriends) RejectRequest(_ context.Context, requestID, recipientID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok || r.ToUserID != recipientID {
		return ErrNotFound
	}
	delete(s.requests, requestID)
	return nil
}

func (s *MemoryFriends) ListFriends(_ context.Context, userID uuid.UUID) ([]models.Friend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	friends := make([]models.Friend, 0)
	for pair, since := range s.friends {
		var other uuid.UUID
		switch userID {
		case pair[0]:
			other = pair[1]
		case pair[1]:
			other = pair[0]
		default:
			continue
		}
		f := models.Friend{UserID: other, Since: since}
		f.Username, f.DisplayName = s.username(other)
		friends = append(friends, f)
	}
	sort.Slice(friends, func(i, j int) bool { return friends[i].Since.After(friends[j].Since) })
	return friends, nil
}

func (s *MemoryFriends) DeleteFriend(_ context.Context, userID, friendID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(userID, friendID)
	if _, ok := s.friends[key]; !ok {
		return ErrNotFound
	}
	delete(s.friends, key)
	return nil
}

func (s *MemoryFriends) Block(_ context.Context, userID, blockedUserID uuid.UUID) error {
	if userID == blockedUserID {
		return Validationf("userId", "You cannot block yourself.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.friends, pairKey(userID, blockedUserID))
	for id, r := range s.requests {
		if (r.FromUserID == userID && r.ToUserID == blockedUserID) ||
			(r.FromUserID == blockedUserID && r.ToUserID == userID) {
			delete(s.requests, id)
		}
	}
	s.blocked[[2]uuid.UUID{userID, blockedUserID}] = time.Now().UTC()
	return nil
}

func (s *MemoryFriends) Unblock(_ context.Context, userID, blockedUserID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := [2]uuid.UUID{userID, blockedUserID}
	if _, ok := s.blocked[key]; !ok {
		return ErrNotFound
	}
	delete(s.blocked, key)
	return nil
}

func (s *MemoryFriends) ListBlocked(_ context.Context, userID uuid.UUID) ([]models.BlockedUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blocked := make([]models.BlockedUser, 0)
	for pair, at := range s.blocked {
		if pair[0] != userID {
			continue
		}
		b := models.BlockedUser{UserID: pair[1], BlockedAt: at}
		b.Username, b.DisplayName = s.username(pair[1])
		blocked = append(blocked, b)
	}
	sort.Slice(blocked, func(i, j int) bool { return blocked[i].BlockedAt.After(blocked[j].BlockedAt) })
	return blocked, nil
}

func (s *MemoryFriends) BlockedSet(_ context.Context, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := make(map[uuid.UUID]bool)
	for pair := range s.blocked {
		if pair[0] == userID {
			set[pair[1]] = true
		}
		if pair[1] == userID {
			set[pair[0]] = true
		}
	}
	return set, nil
}
