// Package datastore stores documents as Cloud Datastore (Firestore in Datastore
// mode) entities. The collection is the entity kind.
package datastore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
)

const createdAtProperty = "created_at"

var _ content.Repository = &handler{}

type handler struct {
	client *datastore.Client
}

func New(client *datastore.Client) *handler {
	return &handler{
		client: client,
	}
}

func Connect(ctx context.Context, projectID string) (*handler, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create datastore client", err)
	}
	return New(client), nil
}

// entity maps free form string fields to datastore properties
type entity struct {
	Fields    map[string]string
	CreatedAt time.Time
}

var _ datastore.PropertyLoadSaver = &entity{}

func (e *entity) Load(ps []datastore.Property) error {
	e.Fields = make(map[string]string, len(ps))
	for _, p := range ps {
		if p.Name == createdAtProperty {
			if t, ok := p.Value.(time.Time); ok {
				e.CreatedAt = t
			}
			continue
		}
		if s, ok := p.Value.(string); ok {
			e.Fields[p.Name] = s
		}
	}
	return nil
}

func (e *entity) Save() ([]datastore.Property, error) {
	ps := make([]datastore.Property, 0, len(e.Fields)+1)
	for k, v := range e.Fields {
		if k == createdAtProperty {
			return nil, fmt.Errorf("%w: reserved field name %q", content.ErrInvalidKey, k)
		}
		ps = append(ps, datastore.Property{Name: k, Value: v, NoIndex: true})
	}
	ps = append(ps, datastore.Property{Name: createdAtProperty, Value: e.CreatedAt})
	return ps, nil
}

func toDocument(key *datastore.Key, e *entity) content.Document {
	return content.Document{
		ID:        key.Name,
		CreatedAt: e.CreatedAt,
		Fields:    e.Fields,
	}
}

func (h *handler) Create(ctx context.Context, collection string, fields map[string]string) (content.Document, error) {
	key := datastore.NameKey(collection, uuid.NewString(), nil)
	e := &entity{
		Fields:    content.CopyFields(fields),
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond), // datastore stores microseconds
	}

	key, err := h.client.Put(ctx, key, e)
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: put failed", err)
	}

	return toDocument(key, e), nil
}

func (h *handler) Get(ctx context.Context, collection string, ID string) (content.Document, error) {
	key := datastore.NameKey(collection, ID, nil)

	var e entity
	err := h.client.Get(ctx, key, &e)
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: get failed", err)
	}

	return toDocument(key, &e), nil
}

func (h *handler) List(ctx context.Context, collection string) ([]content.Document, error) {
	q := datastore.NewQuery(collection).Order("-" + createdAtProperty)

	var result []content.Document
	it := h.client.Run(ctx, q)
	for {
		var e entity
		key, err := it.Next(&e)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: query failed", err)
		}
		result = append(result, toDocument(key, &e))
	}

	return result, nil
}

// Update runs in a transaction so the merge is atomic per document
func (h *handler) Update(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
	key := datastore.NameKey(collection, ID, nil)

	var e entity
	_, err := h.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		for k, v := range patch {
			e.Fields[k] = v
		}
		_, err := tx.Put(key, &e)
		return err
	})
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: update failed", err)
	}

	return toDocument(key, &e), nil
}

func (h *handler) Delete(ctx context.Context, collection string, ID string) (content.Document, error) {
	key := datastore.NameKey(collection, ID, nil)

	var e entity
	_, err := h.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		if err := tx.Get(key, &e); err != nil {
			return err
		}
		return tx.Delete(key)
	})
	if errors.Is(err, datastore.ErrNoSuchEntity) {
		return content.Document{}, fmt.Errorf("%w: deleted record does not exist %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: delete failed", err)
	}

	return toDocument(key, &e), nil
}

func (h *handler) Count(ctx context.Context, collection string) (int, error) {
	n, err := h.client.Count(ctx, datastore.NewQuery(collection).KeysOnly())
	if err != nil {
		return 0, fmt.Errorf("%w: count failed", err)
	}
	return n, nil
}

func (h *handler) Close() error {
	return h.client.Close()
}
