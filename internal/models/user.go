package models

import (
	"time"

	"github.com/google/uuid"
)

// Role controls moderation powers. Members only act on their own content;
// moderators and admins act on anyone's.
type Role string

const (
	RoleMember    Role = "member"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

type User struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Username       string      `json:"username" db:"username"`
	Email          string      `json:"email" db:"email"`
	HashedPassword string      `json:"-" db:"password_hash"`
	Role           Role        `json:"role" db:"role"`
	IsVerified     bool        `json:"isVerified" db:"is_verified"` // breeder/shelter verification
	Karma          int         `json:"karma" db:"karma"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	LastActive     time.Time   `json:"lastActive" db:"last_active"`
	IsConnected    bool        `json:"isConnected" db:"is_connected"`
	Following      []uuid.UUID `json:"following"`
}
