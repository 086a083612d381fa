package models

import "strings"

// Friend is a counterparty the user shares expenses with.
type Friend struct {
	// ID is the immutable unique identifier (UUID format for new friends).
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`

	// Email is optional, lowercase, and unique among friends.
	Email string `json:"email,omitempty"`

	// Tag is an optional free-form label (e.g., "roommate").
	Tag string `json:"tag,omitempty"`
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindFriend returns the friend with the given id.
func FindFriend(friends []Friend, id string) (Friend, bool) {
	for _, f := range friends {
		if f.ID == id {
			return f, true
		}
	}
	return Friend{}, false
}
