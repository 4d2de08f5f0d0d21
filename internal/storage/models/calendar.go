// Package models contains the domain models for the application.
package models

import (
	"strings"
	"time"
)

// StorageLayout is the fixed layout calendar dates are persisted in.
const StorageLayout = "2006-01-02 15:04:05"

// CalendarEntry is a personal calendar item owned by a single user.
type CalendarEntry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Reminder    int       `json:"reminder"`
	DateStart   time.Time `json:"date_start"`
	DateEnd     time.Time `json:"date_end"`
	AllDay      bool      `json:"all_day"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsNew reports whether the entry has not been persisted yet.
func (e *CalendarEntry) IsNew() bool {
	return e.ID == 0
}

// Check validates the entry before it is stored.
func (e *CalendarEntry) Check() error {
	if strings.TrimSpace(e.Title) == "" {
		return &CheckError{Key: "apps.calendar.title_required"}
	}
	if !e.DateEnd.IsZero() && e.DateEnd.Before(e.DateStart) {
		return &CheckError{Key: "apps.calendar.end_before_start"}
	}
	return nil
}

// CheckError is returned when an entity fails its pre-store check.
// Key is a message catalog key.
type CheckError struct {
	Key string
}

func (e *CheckError) Error() string {
	return e.Key
}

// FormatStorage renders t in StorageLayout.
func FormatStorage(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(StorageLayout)
}

// ParseStorage parses a value written by FormatStorage. An empty string yields the zero time.
func ParseStorage(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(StorageLayout, s)
}
