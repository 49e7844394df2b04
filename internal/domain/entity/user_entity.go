package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password field.
type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	Password             string    `json:"password"`
	Name                 string    `json:"name"`
	Role                 Role      `json:"role"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Session is the "logged-in user" record kept per user while a session is active.
type Session struct {
	UserID    string
	SessionID string
	Email     string
	Name      string
	Role      Role
	CreatedAt time.Time
}
