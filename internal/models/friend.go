package models

import (
	"time"

	"github.com/google/uuid"
)

// FriendRequest is a pending invitation from one user to another.
type FriendRequest struct {
	ID           uuid.UUID `json:"id"`
	FromUserID   uuid.UUID `json:"fromUserId"`
	FromUsername string    `json:"fromUsername"`
	ToUserID     uuid.UUID `json:"toUserId"`
	ToUsername   string    `json:"toUsername"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Friend is an accepted friendship viewed from one side.
type Friend struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	Since       time.Time `json:"since"`
}

// BlockedUser is one blacklist entry.
type BlockedUser struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	BlockedAt   time.Time `json:"blockedAt"`
}
