package public

import (
	"time"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

type locationResponse struct {
	Type        string    `json:"type,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Address     string    `json:"address,omitempty"`
}

type storeResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Slug        string           `json:"slug"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags"`
	Location    locationResponse `json:"location"`
	Photo       string           `json:"photo"`
	Author      string           `json:"author,omitempty"`
	Created     time.Time        `json:"created"`
}

type storeListResponse struct {
	Stores []storeResponse `json:"stores"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Count  int             `json:"count"`
}

type tagCountResponse struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type tagListResponse struct {
	Tag    string             `json:"tag,omitempty"`
	Tags   []tagCountResponse `json:"tags"`
	Stores []storeResponse    `json:"stores"`
}

type reviewResponse struct {
	ID      string    `json:"id"`
	Author  string    `json:"author,omitempty"`
	Rating  int       `json:"rating"`
	Text    string    `json:"text,omitempty"`
	Created time.Time `json:"created"`
}

type storeDetailResponse struct {
	Store   storeResponse    `json:"store"`
	Reviews []reviewResponse `json:"reviews"`
}

type searchResultResponse struct {
	storeResponse
	Score float64 `json:"score"`
}

type nearbyStoreResponse struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Location    locationResponse `json:"location"`
	Photo       string           `json:"photo"`
}

type ratedStoreResponse struct {
	storeResponse
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

type heartsResponse struct {
	Hearts  []string `json:"hearts"`
	Hearted bool     `json:"hearted"`
}

type editStoreResponse struct {
	Title         string         `json:"title"`
	Store         *storeResponse `json:"store,omitempty"`
	SuggestedTags []string       `json:"suggestedTags"`
}

func buildLocationResponse(l domain.Location) locationResponse {
	return locationResponse{
		Type:        l.Type,
		Coordinates: append([]float64(nil), l.Coordinates...),
		Address:     l.Address,
	}
}

func buildStoreResponse(s domain.Store) storeResponse {
	tags := append([]string{}, s.Tags...)
	return storeResponse{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Tags:        tags,
		Location:    buildLocationResponse(s.Location),
		Photo:       s.PhotoOrDefault(),
		Author:      s.Author,
		Created:     s.CreatedAt,
	}
}

func buildStoreResponses(stores []domain.Store) []storeResponse {
	out := make([]storeResponse, 0, len(stores))
	for _, s := range stores {
		out = append(out, buildStoreResponse(s))
	}
	return out
}

func buildTagCountResponses(tags []domain.TagCount) []tagCountResponse {
	out := make([]tagCountResponse, 0, len(tags))
	for _, t := range tags {
		out = append(out, tagCountResponse{Tag: t.Tag, Count: t.Count})
	}
	return out
}

func buildReviewResponses(reviews []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewResponse{
			ID:      r.ID,
			Author:  r.Author,
			Rating:  r.Rating,
			Text:    r.Text,
			Created: r.CreatedAt,
		})
	}
	return out
}

func buildNearbyResponses(stores []domain.NearbyStore) []nearbyStoreResponse {
	out := make([]nearbyStoreResponse, 0, len(stores))
	for _, s := range stores {
		photo := s.Photo
		if photo == "" {
			photo = domain.DefaultPhoto
		}
		out = append(out, nearbyStoreResponse{
			ID:          s.ID,
			Slug:        s.Slug,
			Name:        s.Name,
			Description: s.Description,
			Location:    buildLocationResponse(s.Location),
			Photo:       photo,
		})
	}
	return out
}
