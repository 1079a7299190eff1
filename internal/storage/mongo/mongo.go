// Package mongo is implementation of storage interface over a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/Decentr-net/odyssey/internal/entities"
	"github.com/Decentr-net/odyssey/internal/storage"
)

var log = logrus.WithField("layer", "storage").WithField("package", "mongo")

type mgo struct {
	c *mongo.Collection
}

type commentDTO struct {
	ID         string `bson:"id"`
	AuthorID   string `bson:"authorId"`
	AuthorName string `bson:"authorName"`
	Text       string `bson:"text"`
	Date       string `bson:"date"`
}

type entryDTO struct {
	ID         string       `bson:"_id"`
	Title      string       `bson:"title"`
	Location   string       `bson:"location"`
	Date       string       `bson:"date"`
	Content    string       `bson:"content"`
	ImageURL   string       `bson:"imageUrl,omitempty"`
	AuthorID   string       `bson:"authorId"`
	AuthorName string       `bson:"authorName"`
	IsPrivate  bool         `bson:"isPrivate"`
	Likes      []string     `bson:"likes"`
	Comments   []commentDTO `bson:"comments"`
	CreatedAt  time.Time    `bson:"createdAt"`
}

// New creates new instance of mongo storage over the collection.
func New(c *mongo.Collection) storage.Storage {
	return mgo{
		c: c,
	}
}

// EnsureIndexes creates an index used by ListByDateDesc.
func EnsureIndexes(ctx context.Context, c *mongo.Collection) error {
	if _, err := c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (s mgo) Ping(ctx context.Context) error {
	return s.c.Database().Client().Ping(ctx, readpref.Primary())
}

func (s mgo) Create(ctx context.Context, e *entities.Entry) error {
	if _, err := s.c.InsertOne(ctx, toDTO(e)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storage.ErrAlreadyExists
		}

		return fmt.Errorf("failed to insert: %w", err)
	}

	return nil
}

func (s mgo) Get(ctx context.Context, id string) (*entities.Entry, error) {
	var doc entryDTO

	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}

		return nil, fmt.Errorf("failed to find: %w", err)
	}

	return fromDTO(doc), nil
}

func (s mgo) Replace(ctx context.Context, e *entities.Entry) error {
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": e.ID}, toDTO(e))
	if err != nil {
		return fmt.Errorf("failed to replace: %w", err)
	}

	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s mgo) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete: %w", err)
	}

	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (s mgo) ListByDateDesc(ctx context.Context) ([]*entities.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find: %w", err)
	}
	defer func() {
		if err := cur.Close(ctx); err != nil {
			log.WithError(err).Warn("failed to close cursor")
		}
	}()

	var docs []entryDTO
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode: %w", err)
	}

	out := make([]*entities.Entry, len(docs))
	for i, v := range docs {
		out[i] = fromDTO(v)
	}

	return out, nil
}

func toDTO(e *entities.Entry) entryDTO {
	d := entryDTO{
		ID:         e.ID,
		Title:      e.Title,
		Location:   e.Location,
		Date:       e.Date,
		Content:    e.Content,
		ImageURL:   e.ImageURL,
		AuthorID:   e.AuthorID,
		AuthorName: e.AuthorName,
		IsPrivate:  e.IsPrivate,
		Likes:      append(make([]string, 0, len(e.Likes)), e.Likes...),
		Comments:   make([]commentDTO, len(e.Comments)),
		CreatedAt:  e.CreatedAt.UTC(),
	}

	for i, v := range e.Comments {
		d.Comments[i] = commentDTO(v)
	}

	return d
}

func fromDTO(d entryDTO) *entities.Entry {
	e := &entities.Entry{
		ID:         d.ID,
		Title:      d.Title,
		Location:   d.Location,
		Date:       d.Date,
		Content:    d.Content,
		ImageURL:   d.ImageURL,
		AuthorID:   d.AuthorID,
		AuthorName: d.AuthorName,
		IsPrivate:  d.IsPrivate,
		Likes:      append(make([]string, 0, len(d.Likes)), d.Likes...),
		Comments:   make([]entities.Comment, len(d.Comments)),
		CreatedAt:  d.CreatedAt.UTC(),
	}

	for i, v := range d.Comments {
		e.Comments[i] = entities.Comment(v)
	}

	return e
}
