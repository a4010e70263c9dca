package mongostore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"image-recon/internal/store"
)

func TestIDValue(t *testing.T) {
	oid := primitive.NewObjectID()
	assert.Equal(t, oid, idValue(oid.Hex()))
	assert.Equal(t, "jornada-7", idValue("jornada-7"))
}

func TestScanFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, scanFilter(nil))

	oid := primitive.NewObjectID()
	assert.Equal(t, bson.M{"$or": bson.A{
		bson.M{"_id": bson.M{"$gt": oid}},
		bson.M{"_id": bson.M{"$type": bson.A{"bool", "date", "timestamp", "regex", "maxKey"}}},
	}}, scanFilter(oid))
}

func TestScanFilterHexLookingStringCursor(t *testing.T) {
	s := &Store{}
	const hexID = "507f1f77bcf86cd799439011"
	s.remember("jornadas", map[string]any{hexID: hexID})

	after := s.rawID("jornadas", hexID)
	require.IsType(t, "", after)

	f := scanFilter(after)
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"_id": bson.M{"$gt": hexID}}, or[0])
	// документы с ObjectID сортируются после строк и не теряются
	later := or[1].(bson.M)["_id"].(bson.M)["$type"].(bson.A)
	assert.Contains(t, later, "objectId")
	assert.NotContains(t, later, "string")
}

func TestRawIDFallsBackToHeuristic(t *testing.T) {
	s := &Store{}
	oid := primitive.NewObjectID()
	assert.Equal(t, oid, s.rawID("jornadas", oid.Hex()))

	s.remember("jornadas", map[string]any{"42": int32(42)})
	assert.Equal(t, int32(42), s.rawID("jornadas", "42"))
	assert.Equal(t, "j-9", s.rawID("jornadas", "j-9"))
	assert.Equal(t, "42", s.rawID("imagens", "42"))
}

func TestWriteModels(t *testing.T) {
	s := &Store{}
	const hexID = "507f1f77bcf86cd799439011"
	s.remember("jornadas", map[string]any{hexID: hexID})
	models := s.writeModels("jornadas", []store.Update{
		{ID: "j1", Set: map[string]any{"status_images": "linked"}},
		{ID: hexID, Set: map[string]any{"status_images": "missing"}},
	})
	require.Len(t, models, 2)
	m, ok := models[0].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, bson.M{"_id": "j1"}, m.Filter)
	assert.Equal(t, bson.M{"$set": map[string]any{"status_images": "linked"}}, m.Update)

	m, ok = models[1].(*mongo.UpdateOneModel)
	require.True(t, ok)
	assert.Equal(t, bson.M{"_id": hexID}, m.Filter)
}

func TestToDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := toDocument(bson.M{
		"_id": oid,
		"imagens": bson.M{
			"antes":  "a.jpg",
			"depois": bson.A{"b.jpg", "c.jpg"},
		},
		"imagens_original": bson.D{{Key: "durante", Value: "d.jpg"}},
		"ref":              primitive.NewDateTimeFromTime(ts),
	})
	assert.Equal(t, oid.Hex(), doc.ID)
	assert.NotContains(t, doc.Data, "_id")

	refs, ok := doc.Data["imagens"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a.jpg", refs["antes"])
	assert.Equal(t, []any{"b.jpg", "c.jpg"}, refs["depois"])
	assert.Equal(t, map[string]any{"durante": "d.jpg"}, doc.Data["imagens_original"])
	got, ok := doc.Data["ref"].(time.Time)
	require.True(t, ok)
	assert.True(t, ts.Equal(got))
}

func TestToDocumentStringID(t *testing.T) {
	doc := toDocument(bson.M{"_id": "j-1"})
	assert.Equal(t, "j-1", doc.ID)
	assert.NotNil(t, doc.Data)
}
