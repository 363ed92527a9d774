package domain

import (
	"strings"
	"time"
)

// DefaultPhoto is used when a store was created without an uploaded photo.
const DefaultPhoto = "store.png"

// PointType is the only GeoJSON geometry a store location may carry.
const PointType = "Point"

// Store represents a publicly visible store listing.
type Store struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Tags        []string
	Location    Location
	Photo       string
	Author      string
	CreatedAt   time.Time
}

// Location is the GeoJSON point plus the human readable address.
type Location struct {
	Type        string
	Coordinates []float64
	Address     string
}

// Point returns the location coordinates. ok is false when the location is unset.
func (l Location) Point() (Point, bool) {
	if l.Type != PointType || len(l.Coordinates) != 2 {
		return Point{}, false
	}
	return Point{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}, true
}

// NewLocation builds a Point location from longitude and latitude.
func NewLocation(lng, lat float64, address string) Location {
	return Location{
		Type:        PointType,
		Coordinates: []float64{lng, lat},
		Address:     address,
	}
}

// PhotoOrDefault returns the stored photo filename or the default sentinel.
func (s Store) PhotoOrDefault() string {
	if s.Photo == "" {
		return DefaultPhoto
	}
	return s.Photo
}

// OwnedBy reports whether userID is the author of the store.
// Authors are identity subjects and compare case-sensitively.
func (s Store) OwnedBy(userID string) bool {
	author := strings.TrimSpace(s.Author)
	return author != "" && author == strings.TrimSpace(userID)
}

// HasTag reports whether the store carries tag.
func (s Store) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// NearbyStore is the reduced projection returned by geo search.
type NearbyStore struct {
	ID          string
	Slug        string
	Name        string
	Description string
	Location    Location
	Photo       string
}

// ScoredStore pairs a store with its text relevance score.
type ScoredStore struct {
	Store Store
	Score float64
}

// RatedStore pairs a store with its review aggregate.
type RatedStore struct {
	Store         Store
	AverageRating float64
	ReviewCount   int
}

// TagCount is one entry of the distinct tag list.
type TagCount struct {
	Tag   string
	Count int
}

// Review is a rating left on a store.
type Review struct {
	ID        string
	Store     string
	Author    string
	Rating    int
	Text      string
	CreatedAt time.Time
}

// StoreDetail is a store together with its reviews.
type StoreDetail struct {
	Store   Store
	Reviews []Review
}

// NormalizeTags trims tags and drops blanks and duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = trimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}
