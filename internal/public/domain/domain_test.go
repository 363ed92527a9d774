package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Wes's Sushi Bar", "wes-s-sushi-bar"},
		{"  Café Olé  ", "cafe-ole"},
		{"Tim Hortons #42", "tim-hortons-42"},
		{"---", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, Slugify(tc.name), tc.name)
	}
}

func TestNthSlug(t *testing.T) {
	assert.Equal(t, "sushi", NthSlug("sushi", 1))
	assert.Equal(t, "sushi-3", NthSlug("sushi", 3))
}

func TestPointDistanceMeters(t *testing.T) {
	montreal := Point{Lng: -73.5673, Lat: 45.5017}
	toronto := Point{Lng: -79.3832, Lat: 43.6532}

	d := montreal.DistanceMeters(toronto)
	assert.InDelta(t, 504000, d, 3000)
	assert.InDelta(t, 0, montreal.DistanceMeters(montreal), 1e-6)
	assert.InDelta(t, d, toronto.DistanceMeters(montreal), 1e-6)
}

func TestPointValidate(t *testing.T) {
	assert.NoError(t, Point{Lng: 180, Lat: -90}.Validate())
	err := Point{Lng: 181, Lat: 0}.Validate()
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Error(t, Point{Lng: 0, Lat: 90.5}.Validate())
}

func TestLocationPoint(t *testing.T) {
	p, ok := NewLocation(-73.5, 45.5, "Montreal").Point()
	assert.True(t, ok)
	assert.Equal(t, Point{Lng: -73.5, Lat: 45.5}, p)

	_, ok = Location{}.Point()
	assert.False(t, ok)
}

func TestUserHearts(t *testing.T) {
	id := "5f1d7f1c2b3a4c5d6e7f8a9b"
	user := User{ID: "u1", Hearts: []string{"5F1D7F1C2B3A4C5D6E7F8A9B "}}

	assert.True(t, user.HasHeart(id))
	assert.Empty(t, user.WithoutHeart(id))

	added := User{ID: "u1"}.WithHeart(id)
	assert.Equal(t, []string{id}, added)
	assert.Equal(t, []string{id}, User{Hearts: added}.WithHeart(id))
}

func TestUniqueIDs(t *testing.T) {
	got := UniqueIDs([]string{"AB", "ab", " ab", "", "cd"})
	assert.Equal(t, []string{"ab", "cd"}, got)
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Wifi", "Wifi", "", "Open Late"})
	assert.Equal(t, []string{"Wifi", "Open Late"}, got)
}

func TestStoreOwnedBy(t *testing.T) {
	s := Store{Author: "Alice"}
	assert.True(t, s.OwnedBy("Alice"))
	assert.True(t, s.OwnedBy(" Alice "))
	assert.False(t, s.OwnedBy("alice"))
	assert.False(t, s.OwnedBy("Bob"))
	assert.False(t, Store{}.OwnedBy(""))
}

func TestUnsupportedMediaTypeIsValidation(t *testing.T) {
	assert.True(t, errors.Is(ErrUnsupportedMediaType, ErrValidation))
}
