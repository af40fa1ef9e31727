package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
)

var _ content.Repository = &handler{}

// One table per collection, see getDDL
type handler struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *handler {
	return &handler{
		db: db,
	}
}

type row struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
}

// EnsureCollection creates the collection table if it does not exist yet
func (h *handler) EnsureCollection(ctx context.Context, collection string) error {
	if err := validateTableName(collection); err != nil {
		return err
	}

	for _, ddl := range getDDL(collection) {
		if _, err := h.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: failed to create table %v", err, collection)
		}
	}

	log.Info().Msgf("postgres collection ready: %v", collection)
	return nil
}

func (h *handler) Create(ctx context.Context, collection string, fields map[string]string) (content.Document, error) {
	if err := validateTableName(collection); err != nil {
		return content.Document{}, err
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: failed to marshal fields", err)
	}

	var r row
	err = h.db.GetContext(ctx, &r, insertQuery(collection), uuid.NewString(), string(payload))
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: insert query failed", err)
	}

	return toDocument(r)
}

func (h *handler) Get(ctx context.Context, collection string, ID string) (content.Document, error) {
	if err := validateTableName(collection); err != nil {
		return content.Document{}, err
	}

	var r row
	err := h.db.GetContext(ctx, &r, selectQuery(collection), ID)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: select query failed", err)
	}

	return toDocument(r)
}

func (h *handler) List(ctx context.Context, collection string) ([]content.Document, error) {
	if err := validateTableName(collection); err != nil {
		return nil, err
	}

	var rows []row
	err := h.db.SelectContext(ctx, &rows, listQuery(collection))
	if err != nil {
		return nil, fmt.Errorf("%w: list query failed", err)
	}

	result := make([]content.Document, 0, len(rows))
	for _, r := range rows {
		doc, err := toDocument(r)
		if err != nil {
			log.Err(err).Msgf("Failed to parse row %v/%v", collection, r.ID)
			continue
		}
		result = append(result, doc)
	}

	return result, nil
}

func (h *handler) Update(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
	if err := validateTableName(collection); err != nil {
		return content.Document{}, err
	}

	payload, err := json.Marshal(patch)
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: failed to marshal patch", err)
	}

	var r row
	err = h.db.GetContext(ctx, &r, updateQuery(collection), ID, string(payload))
	if errors.Is(err, sql.ErrNoRows) {
		return content.Document{}, fmt.Errorf("%w: %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: update query failed", err)
	}

	return toDocument(r)
}

func (h *handler) Delete(ctx context.Context, collection string, ID string) (content.Document, error) {
	if err := validateTableName(collection); err != nil {
		return content.Document{}, err
	}

	var r row
	err := h.db.GetContext(ctx, &r, deleteQuery(collection), ID)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Document{}, fmt.Errorf("%w: deleted record does not exist %v/%v", content.ErrNotFound, collection, ID)
	}
	if err != nil {
		return content.Document{}, fmt.Errorf("%w: delete query failed", err)
	}

	return toDocument(r)
}

func (h *handler) Count(ctx context.Context, collection string) (int, error) {
	if err := validateTableName(collection); err != nil {
		return 0, err
	}

	var count int
	err := h.db.GetContext(ctx, &count, countQuery(collection))
	if err != nil {
		return 0, fmt.Errorf("%w: count query failed", err)
	}

	return count, nil
}

func toDocument(r row) (content.Document, error) {
	fields := make(map[string]string)
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &fields); err != nil {
			return content.Document{}, err
		}
	}

	return content.Document{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Fields:    fields,
	}, nil
}
