package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"blogapi/internal/model"
	"blogapi/internal/repository"
)

// Mongo stores times with millisecond precision; truncating up front keeps the
// values returned from Create equal to what a later read yields.
var now = func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

// BlogMongo is a MongoDB implementation of repository.BlogRepository.
// It reads every shape older revisions wrote and always writes the canonical one.
type BlogMongo struct {
	coll  *mongo.Collection
	langs model.Languages
}

// NewBlogMongo creates a repository over coll. langs tells the decoder which language
// legacy flat strings and *Eng fields belong to.
func NewBlogMongo(coll *mongo.Collection, langs model.Languages) *BlogMongo {
	return &BlogMongo{coll: coll, langs: langs}
}

var _ repository.BlogRepository = (*BlogMongo)(nil)

// blogWrite is the canonical document shape.
type blogWrite struct {
	Title         model.LocalizedText `bson:"title"`
	Content       model.LocalizedText `bson:"content"`
	Image         *string             `bson:"image"`
	Tags          []string            `bson:"tags"`
	SchemaVersion int                 `bson:"schemaVersion"`
	CreatedAt     time.Time           `bson:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt"`
}

// blogDocument is the read shape. Title and Content stay raw because their BSON type
// depends on the revision that wrote them.
type blogDocument struct {
	ID            primitive.ObjectID `bson:"_id"`
	Title         bson.RawValue      `bson:"title"`
	TitleEng      string             `bson:"titleEng,omitempty"`
	Content       bson.RawValue      `bson:"content"`
	ContentEng    string             `bson:"contentEng,omitempty"`
	Image         *string            `bson:"image"`
	Tags          []string           `bson:"tags"`
	SchemaVersion int                `bson:"schemaVersion"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

type localizedEntry struct {
	Lang string `bson:"lang"`
	Text string `bson:"text"`
}

// decodeLocalized accepts a flat string (credited to lang), a language map, or an
// array of {lang, text} entries.
func decodeLocalized(v bson.RawValue, lang string) (model.LocalizedText, error) {
	switch v.Type {
	case 0, bson.TypeNull:
		return model.LocalizedText{}, nil
	case bson.TypeString:
		return model.LocalizedText{lang: v.StringValue()}.Clone(), nil
	case bson.TypeEmbeddedDocument:
		var m map[string]string
		if err := v.Unmarshal(&m); err != nil {
			return nil, err
		}
		return model.LocalizedText(m).Clone(), nil
	case bson.TypeArray:
		var entries []localizedEntry
		if err := v.Unmarshal(&entries); err != nil {
			return nil, err
		}
		out := model.LocalizedText{}
		for _, e := range entries {
			if e.Lang != "" {
				out[e.Lang] = e.Text
			}
		}
		return out.Clone(), nil
	default:
		return nil, fmt.Errorf("unsupported localized field type %s", v.Type)
	}
}

func (r *BlogMongo) toModel(d *blogDocument) (*model.BlogPost, error) {
	title, err := decodeLocalized(d.Title, r.langs.Primary)
	if err != nil {
		return nil, fmt.Errorf("decode title: %w", err)
	}
	content, err := decodeLocalized(d.Content, r.langs.Primary)
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if d.TitleEng != "" && title.Get(r.langs.Secondary) == "" {
		title[r.langs.Secondary] = d.TitleEng
	}
	if d.ContentEng != "" && content.Get(r.langs.Secondary) == "" {
		content[r.langs.Secondary] = d.ContentEng
	}
	return &model.BlogPost{
		ID:        d.ID.Hex(),
		Title:     title,
		Content:   content,
		Image:     d.Image,
		Tags:      model.NormalizeTags(d.Tags),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// titleFilter matches lang's title in every stored shape.
func (r *BlogMongo) titleFilter(lang, title string) bson.M {
	or := bson.A{
		bson.M{"title." + lang: title},
		bson.M{"title": bson.M{"$elemMatch": bson.M{"lang": lang, "text": title}}},
	}
	switch lang {
	case r.langs.Primary:
		or = append(or, bson.M{"title": title})
	case r.langs.Secondary:
		or = append(or, bson.M{"titleEng": title})
	}
	return bson.M{"$or": or}
}

// updateDocument builds the $set/$unset for a full replace. The legacy *Eng fields are
// dropped because their values now live inside the maps.
func updateDocument(p *model.BlogPost, at time.Time) bson.M {
	set := bson.M{
		"title":         p.Title.Clone(),
		"content":       p.Content.Clone(),
		"tags":          model.NormalizeTags(p.Tags),
		"schemaVersion": model.SchemaVersion,
		"updatedAt":     at,
	}
	if p.Image != nil {
		set["image"] = *p.Image
	}
	return bson.M{
		"$set":   set,
		"$unset": bson.M{"titleEng": "", "contentEng": ""},
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// Create inserts the post; Mongo assigns the ObjectID.
func (r *BlogMongo) Create(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error) {
	at := now()
	doc := blogWrite{
		Title:         post.Title.Clone(),
		Content:       post.Content.Clone(),
		Image:         post.Image,
		Tags:          model.NormalizeTags(post.Tags),
		SchemaVersion: model.SchemaVersion,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, err
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return &model.BlogPost{
		ID:        oid.Hex(),
		Title:     doc.Title,
		Content:   doc.Content,
		Image:     doc.Image,
		Tags:      doc.Tags,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// FindByID fetches a single post by its hex ObjectID.
func (r *BlogMongo) FindByID(ctx context.Context, id string) (*model.BlogPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var d blogDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return r.toModel(&d)
}

// FindByTitle returns the oldest post whose title in lang matches exactly.
func (r *BlogMongo) FindByTitle(ctx context.Context, lang, title string) (*model.BlogPost, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	var d blogDocument
	if err := r.coll.FindOne(ctx, r.titleFilter(lang, title), opts).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return r.toModel(&d)
}

// List returns every post, newest first.
func (r *BlogMongo) List(ctx context.Context) ([]model.BlogPost, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	items := make([]model.BlogPost, 0)
	for cur.Next(ctx) {
		var d blogDocument
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		p, err := r.toModel(&d)
		if err != nil {
			return nil, err
		}
		items = append(items, *p)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Update replaces the editable fields and returns the document after the change.
func (r *BlogMongo) Update(ctx context.Context, post *model.BlogPost) (*model.BlogPost, error) {
	oid, err := objectID(post.ID)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d blogDocument
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(post, now()), opts).Decode(&d); err != nil {
		return nil, notFound(err)
	}
	return r.toModel(&d)
}

// Delete removes a post by ID.
func (r *BlogMongo) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
