package models

import "time"

// Privacy values stored per user and field.
const (
	PrivacyPublic = "public"
	PrivacyMember = "member"
	PrivacyOnlyMe = "only_me"
)

// ValidPrivacy reports whether v is a known privacy value.
func ValidPrivacy(v string) bool {
	switch v {
	case PrivacyPublic, PrivacyMember, PrivacyOnlyMe:
		return true
	}
	return false
}

// SearchIndexItem is the indexed content of one searchable profile field.
type SearchIndexItem struct {
	UserID    int64     `json:"user_id"`
	FieldKey  string    `json:"field_key"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at"`
}
