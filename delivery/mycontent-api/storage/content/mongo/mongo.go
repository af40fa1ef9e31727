package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
)

var _ content.Repository = &handler{}

// Collections map one to one to mongo collections, also works against DocumentDB
type handler struct {
	db *mongo.Database
}

func New(db *mongo.Database) *handler {
	return &handler{
		db: db,
	}
}

// Connect to uri and use the given database
func Connect(ctx context.Context, uri string, database string) (*handler, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to connect mongo", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("%w: failed to ping mongo", err)
	}
	return New(client.Database(database)), client, nil
}

type document struct {
	ID        string            `bson:"_id"`
	Fields    map[string]string `bson:"fields"`
	CreatedAt time.Time         `bson:"created_at"`
}

func (d document) toContent() content.Document {
	fields := d.Fields
	if fields == nil {
		fields = make(map[string]string)
	}
	return content.Document{
		ID:        d.ID,
		CreatedAt: d.CreatedAt,
		Fields:    fields,
	}
}

// EnsureCollection creates the created_at index used by List
func (h *handler) EnsureCollection(ctx context.Context, collection string) error {
	_, err := h.db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("%w: failed to create index on %v", err, collection)
	}
	return nil
}

func (h *handler) Create(ctx context.Context, collection string, fields map[string]string) (content.Document, error) {
	if err := validateFields(fields); err != nil {
		return content.Document{}, err
	}

	d := document{
		ID:        uuid.NewString(),
		Fields:    content.CopyFields(fields),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond), // mongo stores milliseconds
	}

	_, err := h.db.Collection(collection).InsertOne(ctx, d)
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: insert failed", err)
	}

	return d.toContent(), nil
}

func (h *handler) Get(ctx context.Context, collection string, ID string) (content.Document, error) {
	var d document
	err := h.db.Collection(collection).FindOne(ctx, bson.M{"_id": ID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: find failed", err)
	}

	return d.toContent(), nil
}

func (h *handler) List(ctx context.Context, collection string) ([]content.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := h.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find failed", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: failed to decode documents", err)
	}

	result := make([]content.Document, 0, len(docs))
	for _, d := range docs {
		result = append(result, d.toContent())
	}
	return result, nil
}

func (h *handler) Update(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
	if err := validateFields(patch); err != nil {
		return content.Document{}, err
	}

	set := bson.M{}
	for k, v := range patch {
		set["fields."+k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var d document
	err := h.db.Collection(collection).FindOneAndUpdate(ctx, bson.M{"_id": ID}, bson.M{"$set": set}, opts).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: update failed", err)
	}

	return d.toContent(), nil
}

func (h *handler) Delete(ctx context.Context, collection string, ID string) (content.Document, error) {
	var d document
	err := h.db.Collection(collection).FindOneAndDelete(ctx, bson.M{"_id": ID}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return content.Document{}, fmt.Errorf("%w: deleted record does not exist %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: delete failed", err)
	}

	return d.toContent(), nil
}

func (h *handler) Count(ctx context.Context, collection string) (int, error) {
	n, err := h.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("%w: count failed", err)
	}
	return int(n), nil
}

// field names become part of a dotted update path
func validateFields(fields map[string]string) error {
	for k := range fields {
		if k == "" || strings.ContainsAny(k, ".$") {
			return fmt.Errorf("%w: invalid field name %q", content.ErrInvalidKey, k)
		}
	}
	return nil
}
