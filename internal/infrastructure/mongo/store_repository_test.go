package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/storefinder/internal/public/domain"
)

func TestTagFilter(t *testing.T) {
	assert.Equal(t, bson.M{"tags.0": bson.M{"$exists": true}}, tagFilter(""))
	assert.Equal(t, bson.M{"tags": "Wifi"}, tagFilter("Wifi"))
}

func TestTextSearchQuery(t *testing.T) {
	filter, opts := textSearchQuery("sushi bar", 5)

	assert.Equal(t, bson.M{"$text": bson.M{"$search": "sushi bar"}}, filter)
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, 5, *opts.Limit)
	assert.Equal(t, bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}, opts.Sort)
	assert.Equal(t, bson.M{"score": bson.M{"$meta": "textScore"}}, opts.Projection)
}

func TestNearFilter(t *testing.T) {
	got := nearFilter(domain.Point{Lng: -73.56, Lat: 45.5}, 10000)

	near := got["location"].(bson.M)["$near"].(bson.M)
	assert.Equal(t, 10000.0, near["$maxDistance"])
	assert.Equal(t, bson.M{"type": "Point", "coordinates": bson.A{-73.56, 45.5}}, near["$geometry"])
}

func TestTopRatedPipeline(t *testing.T) {
	pipeline := topRatedPipeline("reviews", 2, 10)
	require.Len(t, pipeline, 6)

	assert.Equal(t, "$lookup", pipeline[0][0].Key)
	assert.Equal(t, "reviews", pipeline[0][0].Value.(bson.M)["from"])
	assert.Equal(t, bson.M{"reviews.1": bson.M{"$exists": true}}, pipeline[1][0].Value)
	assert.Equal(t, "$limit", pipeline[4][0].Key)
	assert.Equal(t, 10, pipeline[4][0].Value)
	assert.Equal(t, "$project", pipeline[5][0].Key)

	assert.Len(t, topRatedPipeline("reviews", 1, 0), 5)
}

func TestDistinctTagsPipelineSortsByCountThenTag(t *testing.T) {
	pipeline := distinctTagsPipeline()
	require.Len(t, pipeline, 3)
	assert.Equal(t, bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}, pipeline[2][0].Value)
}

func TestStoreDocumentRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id := primitive.NewObjectID()
	store := &domain.Store{
		ID:          id.Hex(),
		Name:        " Joe's Café ",
		Slug:        "joes-cafe",
		Description: "Coffee",
		Tags:        []string{"Wifi", "Wifi"},
		Location:    domain.NewLocation(-73.5, 45.5, "Main St"),
		Photo:       "x.jpeg",
		Author:      "user-1",
		CreatedAt:   created,
	}

	doc, err := buildStoreDocument(store)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Joe's Café", doc.Name)
	assert.Equal(t, []string{"Wifi"}, doc.Tags)
	require.NotNil(t, doc.Location)
	assert.Equal(t, "Point", doc.Location.Type)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded StoreDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	got := mapStoreDocument(decoded)
	assert.Equal(t, id.Hex(), got.ID)
	assert.Equal(t, []float64{-73.5, 45.5}, got.Location.Coordinates)
	assert.Equal(t, "Main St", got.Location.Address)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestBuildStoreDocument_WithoutLocationOrID(t *testing.T) {
	doc, err := buildStoreDocument(&domain.Store{Name: "x"})
	require.NoError(t, err)
	assert.True(t, doc.ID.IsZero())
	assert.Nil(t, doc.Location)

	_, err = buildStoreDocument(&domain.Store{ID: "nope"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateFieldsKeepsImmutableFields(t *testing.T) {
	set := updateFields(StoreDocument{Name: "n", Slug: "s", Author: "a"})
	assert.NotContains(t, set, "slug")
	assert.NotContains(t, set, "author")
	assert.NotContains(t, set, "created")
	assert.NotContains(t, set, "photo")

	set = updateFields(StoreDocument{Photo: "p.png"})
	assert.Equal(t, "p.png", set["photo"])
}

func TestObjectIDsSkipsInvalidAndDuplicates(t *testing.T) {
	a := primitive.NewObjectID()
	got := objectIDs([]string{a.Hex(), " " + a.Hex() + " ", "bogus"})
	assert.Equal(t, []primitive.ObjectID{a}, got)
}

func TestMapUserDocument(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	user := mapUserDocument(UserDocument{ID: "u1", Hearts: []primitive.ObjectID{a, b}})
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, []string{a.Hex(), b.Hex()}, user.Hearts)
}

func TestIndexes(t *testing.T) {
	names := make([]string, 0)
	for _, m := range storeIndexes() {
		names = append(names, *m.Options.Name)
	}
	assert.ElementsMatch(t, []string{"store_text", "store_location", "store_slug", "store_created"}, names)
	assert.Len(t, reviewIndexes(), 1)
}
