package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
)

var _ content.Repository = &handler{}

type handler struct {
	mtx  *sync.Mutex
	data map[string]map[string]content.Document // collection -> id -> document
	last time.Time
	now  func() time.Time
}

// New spawns new "generic" DB to store things in memory.
// Used for tests and demo, data is gone when the process exit.
func New() *handler {
	return &handler{
		mtx:  &sync.Mutex{},
		data: make(map[string]map[string]content.Document),
		now:  time.Now,
	}
}

func (h *handler) Create(ctx context.Context, collection string, fields map[string]string) (content.Document, error) {
	if collection == "" {
		return content.Document{}, fmt.Errorf("%w: empty collection", content.ErrInvalidKey)
	}

	h.mtx.Lock()
	defer h.mtx.Unlock()

	// creation time is strictly increasing so ordering is stable
	createdAt := h.now()
	if !createdAt.After(h.last) {
		createdAt = h.last.Add(time.Nanosecond)
	}
	h.last = createdAt

	doc := content.Document{
		ID:        uuid.NewString(),
		CreatedAt: createdAt,
		Fields:    content.CopyFields(fields),
	}

	if _, ok := h.data[collection]; !ok {
		h.data[collection] = make(map[string]content.Document)
	}
	h.data[collection][doc.ID] = doc

	return copyDocument(doc), nil
}

func (h *handler) Get(ctx context.Context, collection string, ID string) (content.Document, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	doc, ok := h.data[collection][ID]
	if !ok {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}

	return copyDocument(doc), nil
}

func (h *handler) List(ctx context.Context, collection string) ([]content.Document, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	result := make([]content.Document, 0, len(h.data[collection]))
	for _, doc := range h.data[collection] {
		result = append(result, copyDocument(doc))
	}

	sort.Slice(result, func(a int, b int) bool {
		return result[a].CreatedAt.After(result[b].CreatedAt)
	})

	return result, nil
}

func (h *handler) Update(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	doc, ok := h.data[collection][ID]
	if !ok {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}

	fields := content.CopyFields(doc.Fields)
	for k, v := range patch {
		fields[k] = v
	}
	doc.Fields = fields
	h.data[collection][ID] = doc

	return copyDocument(doc), nil
}

func (h *handler) Delete(ctx context.Context, collection string, ID string) (content.Document, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	doc, ok := h.data[collection][ID]
	if !ok {
		return content.Document{}, fmt.Errorf("%w: delete failed, %v/%v does not exist", content.ErrNotFound, collection, ID)
	}

	delete(h.data[collection], ID)

	return doc, nil
}

func (h *handler) Count(ctx context.Context, collection string) (int, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	return len(h.data[collection]), nil
}

// Seed inserts a document as is, keeping its ID and creation time.
// Used to load records written by older versions of the console.
func (h *handler) Seed(collection string, doc content.Document) {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	if _, ok := h.data[collection]; !ok {
		h.data[collection] = make(map[string]content.Document)
	}
	h.data[collection][doc.ID] = copyDocument(doc)
	if doc.CreatedAt.After(h.last) {
		h.last = doc.CreatedAt
	}
}

func copyDocument(doc content.Document) content.Document {
	doc.Fields = content.CopyFields(doc.Fields)
	return doc
}
