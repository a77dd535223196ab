package models

import (
	"strings"
	"time"
)

// User represents a person known to WishSpace through their Telegram account
type User struct {
	ID         int64     `json:"id" db:"id"`
	TelegramID int64     `json:"telegram_id" db:"telegram_id"`
	Phone      *string   `json:"phone,omitempty" db:"phone"`
	Name       string    `json:"name" db:"name"`
	AvatarURL  *string   `json:"avatar_url,omitempty" db:"avatar_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// HasPhone returns true if a phone number is on record
func (u *User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}

// DisplayName returns the best display name for the user
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	if u.HasPhone() {
		return *u.Phone
	}
	return "Anonymous"
}

// PublicUser is the view of a user that is safe to show to friends and
// collaborators. Phone numbers stay private.
type PublicUser struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

// Public strips private fields from the user
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.DisplayName(), AvatarURL: u.AvatarURL}
}
