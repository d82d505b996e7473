package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionDuration is 7 days.
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions.
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping.
	UserSessionKeyPrefix = "user_session:"
)

// SessionService issues and resolves opaque bearer tokens backed by Redis.
type SessionService struct {
	redis *redis.Client
}

func NewSessionService(client *redis.Client) *SessionService {
	return &SessionService{redis: client}
}

// Create issues a new session token for a user. Any existing session for the
// user is invalidated first so the 7-day timer starts over at every login.
func (s *SessionService) Create(ctx context.Context, userID uuid.UUID) (string, error) {
	s.InvalidateUserSessions(ctx, userID)

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if err := s.redis.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}
	if err := s.redis.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// Validate resolves a session token to a user id. The bool result reports
// whether the token is valid; errors are reserved for infrastructure
// failures.
func (s *SessionService) Validate(ctx context.Context, sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	userIDStr, err := s.redis.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if err == redis.Nil {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}
	return userID, true, nil
}

// Invalidate removes a session.
func (s *SessionService) Invalidate(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	sessionKey := SessionKeyPrefix + sessionToken
	userIDStr, err := s.redis.Get(ctx, sessionKey).Result()
	if err == nil && userIDStr != "" {
		s.redis.Del(ctx, UserSessionKeyPrefix+userIDStr)
	}
	return s.redis.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates the user's current session, if any.
func (s *SessionService) InvalidateUserSessions(ctx context.Context, userID uuid.UUID) error {
	userSessionKey := UserSessionKeyPrefix + userID.String()

	sessionToken, err := s.redis.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		s.redis.Del(ctx, SessionKeyPrefix+sessionToken)
	}
	return s.redis.Del(ctx, userSessionKey).Err()
}
