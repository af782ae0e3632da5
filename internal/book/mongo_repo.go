package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const booksCollection = "books"

// bookDocument is the BSON shape of a Book.
type bookDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Author        string             `bson:"author"`
	Genre         string             `bson:"genre"`
	PublishedYear *int               `bson:"publishedYear,omitempty"`
	OwnerID       string             `bson:"ownerId"`
	IsAvailable   bool               `bson:"isAvailable"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d bookDocument) toBook() Book {
	return Book{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Author:        d.Author,
		Genre:         d.Genre,
		PublishedYear: d.PublishedYear,
		OwnerID:       d.OwnerID,
		IsAvailable:   d.IsAvailable,
		CreatedAt:     d.CreatedAt.UTC(),
		UpdatedAt:     d.UpdatedAt.UTC(),
	}
}

var newestFirstDoc = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type MongoRepo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger
}

func NewMongoRepo(client *mongo.Client, database string, timeout time.Duration, logger *slog.Logger) *MongoRepo {
	return &MongoRepo{
		client:  client,
		coll:    client.Database(database).Collection(booksCollection),
		timeout: timeout,
		logger:  logger,
	}
}

func (r *MongoRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// EnsureIndexes creates the indexes backing the scoped listings.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.Indexes().CreateMany(timeoutCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isAvailable", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// mongoFilter translates q into a BSON filter.
func mongoFilter(q ListQuery) bson.D {
	filter := bson.D{}

	switch q.Scope {
	case ScopeAvailable:
		filter = append(filter, bson.E{Key: "isAvailable", Value: true})
	case ScopeOwner:
		filter = append(filter, bson.E{Key: "ownerId", Value: q.OwnerID})
	}

	if q.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: pattern}},
			bson.D{{Key: "author", Value: pattern}},
			bson.D{{Key: "genre", Value: pattern}},
		}})
	}
	return filter
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func (r *MongoRepo) find(ctx context.Context, filter any, opts *options.FindOptions) ([]Book, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Book{}
	for cur.Next(ctx) {
		var doc bookDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toBook())
	}
	return out, cur.Err()
}

func (r *MongoRepo) Create(ctx context.Context, b *Book) error {
	// BSON datetimes carry millisecond precision.
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := bookDocument{
		ID:            primitive.NewObjectID(),
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		PublishedYear: b.PublishedYear,
		OwnerID:       b.OwnerID,
		IsAvailable:   b.IsAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if _, err := r.coll.InsertOne(timeoutCtx, doc); err != nil {
		return err
	}
	*b = doc.toBook()
	return nil
}

func (r *MongoRepo) GetByID(ctx context.Context, id string) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc bookDocument
	if err := r.coll.FindOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) GetByIDs(ctx context.Context, ids []string) ([]Book, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []Book{}, nil
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	filter := bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}}
	return r.find(timeoutCtx, filter, options.Find().SetSort(newestFirstDoc))
}

func (r *MongoRepo) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	filter := mongoFilter(q)
	r.logger.Debug("mongo find", "op", "list", "scope", q.Scope.String(), "skip", q.Skip(), "limit", q.Limit)

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	total, err := r.coll.CountDocuments(timeoutCtx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(q.Skip()) >= total {
		return []Book{}, int(total), nil
	}

	opts := options.Find().SetSort(newestFirstDoc)
	if q.Limit > 0 {
		opts = opts.SetSkip(int64(q.Skip())).SetLimit(int64(q.Limit))
	}
	books, err := r.find(timeoutCtx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return books, int(total), nil
}

func (r *MongoRepo) ListAll(ctx context.Context, limit int) ([]Book, error) {
	opts := options.Find().SetSort(newestFirstDoc)
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.find(timeoutCtx, bson.D{}, opts)
}

// literal keeps a value from being read as a field path inside a pipeline.
func literal(v any) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}

// mongoUpdate builds an update pipeline that writes only the fields p sets.
// updatedAt never precedes createdAt.
func mongoUpdate(p Patch, now time.Time) mongo.Pipeline {
	set := bson.D{}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: literal(*p.Title)})
	}
	if p.Author != nil {
		set = append(set, bson.E{Key: "author", Value: literal(*p.Author)})
	}
	if p.Genre != nil {
		set = append(set, bson.E{Key: "genre", Value: literal(*p.Genre)})
	}
	if !p.ClearPublishedYear && p.PublishedYear != nil {
		set = append(set, bson.E{Key: "publishedYear", Value: literal(*p.PublishedYear)})
	}
	if p.OwnerID != nil {
		set = append(set, bson.E{Key: "ownerId", Value: literal(*p.OwnerID)})
	}
	if p.IsAvailable != nil {
		set = append(set, bson.E{Key: "isAvailable", Value: literal(*p.IsAvailable)})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: bson.D{{Key: "$max", Value: bson.A{now, "$createdAt"}}}})

	pipeline := mongo.Pipeline{{{Key: "$set", Value: set}}}
	if p.ClearPublishedYear {
		pipeline = append(pipeline, bson.D{{Key: "$unset", Value: "publishedYear"}})
	}
	return pipeline
}

func (r *MongoRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return Book{}, ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc bookDocument
	err = r.coll.FindOneAndUpdate(timeoutCtx,
		bson.D{{Key: "_id", Value: oid}},
		mongoUpdate(p, time.Now().UTC().Truncate(time.Millisecond)),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return doc.toBook(), nil
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	res, err := r.coll.DeleteOne(timeoutCtx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
