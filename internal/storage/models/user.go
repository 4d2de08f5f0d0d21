package models

import "time"

// User is a registered account and the owner of profile fields.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsGuest reports whether u represents an anonymous visitor.
func (u *User) IsGuest() bool {
	return u == nil || u.ID == 0
}
