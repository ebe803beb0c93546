package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

var langs = model.Languages{Primary: "pl", Secondary: "en"}

// roundTrip encodes raw the way the server would store it and decodes it into the read shape.
func roundTrip(t *testing.T, raw bson.M) *blogDocument {
	t.Helper()
	b, err := bson.Marshal(raw)
	require.NoError(t, err)
	var d blogDocument
	require.NoError(t, bson.Unmarshal(b, &d))
	return &d
}

func TestToModel_Shapes(t *testing.T) {
	repo := NewBlogMongo(nil, langs)
	oid := primitive.NewObjectID()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		raw         bson.M
		wantTitle   model.LocalizedText
		wantContent model.LocalizedText
		wantTags    []string
	}{
		{
			name: "first revision flat strings",
			raw: bson.M{
				"_id": oid, "title": "Mój post", "content": "Treść",
				"tags": bson.A{"go"}, "createdAt": created, "updatedAt": created,
			},
			wantTitle:   model.LocalizedText{"pl": "Mój post"},
			wantContent: model.LocalizedText{"pl": "Treść"},
			wantTags:    []string{"go"},
		},
		{
			name: "bilingual revision with Eng siblings",
			raw: bson.M{
				"_id": oid, "title": "Mój post", "titleEng": "My post",
				"content": "Treść", "contentEng": "Content",
				"createdAt": created, "updatedAt": created,
			},
			wantTitle:   model.LocalizedText{"pl": "Mój post", "en": "My post"},
			wantContent: model.LocalizedText{"pl": "Treść", "en": "Content"},
			wantTags:    []string{},
		},
		{
			name: "array based content",
			raw: bson.M{
				"_id": oid, "title": "Mój post",
				"content":   bson.A{bson.M{"lang": "pl", "text": "Treść"}, bson.M{"lang": "en", "text": "Content"}, bson.M{"lang": "", "text": "orphan"}},
				"createdAt": created, "updatedAt": created,
			},
			wantTitle:   model.LocalizedText{"pl": "Mój post"},
			wantContent: model.LocalizedText{"pl": "Treść", "en": "Content"},
			wantTags:    []string{},
		},
		{
			name: "canonical map shape",
			raw: bson.M{
				"_id": oid, "title": bson.M{"pl": "Mój post", "en": "My post"},
				"content": bson.M{"pl": "Treść"}, "tags": bson.A{},
				"schemaVersion": model.SchemaVersion, "createdAt": created, "updatedAt": created,
			},
			wantTitle:   model.LocalizedText{"pl": "Mój post", "en": "My post"},
			wantContent: model.LocalizedText{"pl": "Treść"},
			wantTags:    []string{},
		},
		{
			name: "map wins over stale Eng sibling",
			raw: bson.M{
				"_id": oid, "title": bson.M{"pl": "A", "en": "B"}, "titleEng": "stale",
				"content": bson.M{"pl": "C"}, "createdAt": created, "updatedAt": created,
			},
			wantTitle:   model.LocalizedText{"pl": "A", "en": "B"},
			wantContent: model.LocalizedText{"pl": "C"},
			wantTags:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.toModel(roundTrip(t, tt.raw))

			require.NoError(t, err)
			assert.Equal(t, oid.Hex(), got.ID)
			assert.Equal(t, tt.wantTitle, got.Title)
			assert.Equal(t, tt.wantContent, got.Content)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.True(t, created.Equal(got.CreatedAt))
		})
	}
}

func TestToModel_ImageAndErrors(t *testing.T) {
	repo := NewBlogMongo(nil, langs)

	t.Run("null image stays nil", func(t *testing.T) {
		got, err := repo.toModel(roundTrip(t, bson.M{"_id": primitive.NewObjectID(), "title": "t", "content": "c", "image": nil}))
		require.NoError(t, err)
		assert.Nil(t, got.Image)
	})

	t.Run("image url kept", func(t *testing.T) {
		got, err := repo.toModel(roundTrip(t, bson.M{"_id": primitive.NewObjectID(), "title": "t", "content": "c", "image": "https://x/y.jpg"}))
		require.NoError(t, err)
		require.NotNil(t, got.Image)
		assert.Equal(t, "https://x/y.jpg", *got.Image)
	})

	t.Run("unsupported title type", func(t *testing.T) {
		_, err := repo.toModel(roundTrip(t, bson.M{"_id": primitive.NewObjectID(), "title": 42, "content": "c"}))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "decode title")
	})
}

func TestTitleFilter(t *testing.T) {
	repo := NewBlogMongo(nil, langs)

	primary := repo.titleFilter("pl", "my post")
	or := primary["$or"].(bson.A)
	require.Len(t, or, 3)
	assert.Equal(t, bson.M{"title.pl": "my post"}, or[0])
	assert.Equal(t, bson.M{"title": "my post"}, or[2])

	secondary := repo.titleFilter("en", "my post")
	or = secondary["$or"].(bson.A)
	require.Len(t, or, 3)
	assert.Equal(t, bson.M{"titleEng": "my post"}, or[2])

	other := repo.titleFilter("de", "mein post")
	assert.Len(t, other["$or"].(bson.A), 2)
}

func TestUpdateDocument(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("without image leaves stored image alone", func(t *testing.T) {
		upd := updateDocument(&model.BlogPost{
			Title:   model.LocalizedText{"pl": "T"},
			Content: model.LocalizedText{"pl": "C"},
		}, at)

		set := upd["$set"].(bson.M)
		assert.NotContains(t, set, "image")
		assert.Equal(t, []string{}, set["tags"])
		assert.Equal(t, model.SchemaVersion, set["schemaVersion"])
		assert.Equal(t, at, set["updatedAt"])
		assert.Equal(t, bson.M{"titleEng": "", "contentEng": ""}, upd["$unset"])
	})

	t.Run("with image replaces it", func(t *testing.T) {
		img := "https://cdn/new.jpg"
		upd := updateDocument(&model.BlogPost{Image: &img, Tags: []string{"a"}}, at)

		set := upd["$set"].(bson.M)
		assert.Equal(t, img, set["image"])
		assert.Equal(t, []string{"a"}, set["tags"])
	})
}

func TestObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	got, err := objectID(oid.Hex())
	require.NoError(t, err)
	assert.Equal(t, oid, got)

	_, err = objectID("7d0b3c9e-0d3f-4a8e-9a53-0a6f5f0f2b11")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
