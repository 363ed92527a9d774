package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User holds the favorites ledger of a single user.
type User struct {
	ID     string
	Hearts []string
}

// HasHeart reports whether storeID is a member of the user's hearts.
func (u User) HasHeart(storeID string) bool {
	for _, id := range u.Hearts {
		if SameID(id, storeID) {
			return true
		}
	}
	return false
}

// WithoutHeart returns a copy of the hearts set with storeID removed.
// Removing an absent id is a no-op.
func (u User) WithoutHeart(storeID string) []string {
	result := make([]string, 0, len(u.Hearts))
	for _, id := range u.Hearts {
		if SameID(id, storeID) {
			continue
		}
		result = append(result, id)
	}
	return result
}

// WithHeart returns a copy of the hearts set with storeID added once.
func (u User) WithHeart(storeID string) []string {
	result := UniqueIDs(u.Hearts)
	for _, id := range result {
		if SameID(id, storeID) {
			return result
		}
	}
	return append(result, CanonicalID(storeID))
}

// CanonicalID normalises an identifier so equal ids compare equal as strings.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SameID compares two identifiers by value.
func SameID(a, b string) bool {
	return CanonicalID(a) == CanonicalID(b)
}

// ValidID reports whether id is a well formed object id.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(CanonicalID(id))
	return err == nil
}

// NewID returns a fresh object id as hex.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// UniqueIDs de-duplicates ids by value, keeping first occurrence order.
func UniqueIDs(ids []string) []string {
	result := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		key := CanonicalID(id)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, key)
	}
	return result
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}
