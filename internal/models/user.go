package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"created_at"`

	// Never serialized.
	PasswordHash string `json:"-"`
}

// Sanitized returns the public projection of a user: what the frontend is
// allowed to see about any account, including its own.
func (u *User) Sanitized() map[string]interface{} {
	return map[string]interface{}{
		"id":          u.ID.String(),
		"username":    u.Username,
		"displayName": u.DisplayName,
	}
}
