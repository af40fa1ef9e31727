package base

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	"github.com/desain-gratis/media-console/types/entity"
)

var _ mycontent.Usecase = &Handler{}

// Handler manages the records of one kind, keeping the metadata document and its
// asset in sync. There is no transaction across the two stores; every
// operation orders its steps so a failure leaves at most an orphan blob.
type Handler struct {
	kind     entity.Kind
	repo     content.Repository
	blobRepo blob.Repository
	now      func() time.Time
}

func New(
	kind entity.Kind,
	repo content.Repository,
	blobRepo blob.Repository,
) *Handler {
	return &Handler{
		kind:     kind,
		repo:     repo,
		blobRepo: blobRepo,
		now:      time.Now,
	}
}

func (c *Handler) Kind() entity.Kind {
	return c.kind
}

func (c *Handler) Get(ctx context.Context, ID string) (*entity.Record, error) {
	if ID == "" {
		return nil, &mycontent.ValidationError{Missing: []string{"id"}}
	}

	doc, err := c.repo.Get(ctx, c.kind.Collection, ID)
	if err != nil {
		return nil, c.storageError(err, ID)
	}

	return c.toRecord(doc), nil
}

// List records newest first. Documents without an asset URL are never shown.
func (c *Handler) List(ctx context.Context) ([]*entity.Record, error) {
	docs, err := c.repo.List(ctx, c.kind.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list %v", err, c.kind.Collection)
	}

	result := make([]*entity.Record, 0, len(docs))
	for _, doc := range docs {
		if doc.Fields[entity.FieldAssetURL] == "" {
			log.Warn().Str("kind", c.kind.Name).Str("id", doc.ID).Msg("skipping record without asset url")
			continue
		}
		result = append(result, c.toRecord(doc))
	}

	return result, nil
}

func (c *Handler) Count(ctx context.Context) (int, error) {
	n, err := c.repo.Count(ctx, c.kind.Collection)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to count %v", err, c.kind.Collection)
	}
	return n, nil
}

// Download the record asset, legacy records are located through their URL
func (c *Handler) Download(ctx context.Context, ID string) (io.ReadCloser, *blob.Data, error) {
	record, err := c.Get(ctx, ID)
	if err != nil {
		return nil, nil, err
	}

	assetPath, err := resolveAssetPath(record)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", mycontent.ErrNotFound, err)
	}

	reader, data, err := c.blobRepo.Get(ctx, assetPath)
	if errors.Is(err, blob.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: asset of %v %v is missing: %w", mycontent.ErrNotFound, c.kind.Name, ID, err)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read asset %v", err, assetPath)
	}

	return reader, data, nil
}

func (c *Handler) toRecord(doc content.Document) *entity.Record {
	return entity.FromFields(c.kind, doc.ID, doc.CreatedAt, doc.Fields)
}

func (c *Handler) storageError(err error, ID string) error {
	if errors.Is(err, content.ErrNotFound) {
		return fmt.Errorf("%w: %v %v", mycontent.ErrNotFound, c.kind.Name, ID)
	}
	return fmt.Errorf("%w: failed to read %v %v", err, c.kind.Name, ID)
}

// assetPath generates {prefix}/{unix millis}-{file name}.
// Two uploads of the same name within the same millisecond collide.
func (c *Handler) assetPath(fileName string) string {
	return c.kind.PathPrefix + "/" + strconv.FormatInt(c.now().UnixMilli(), 10) + "-" + baseName(fileName)
}

// resolveAssetPath prefers the stored path, legacy records fall back to their URL
func resolveAssetPath(record *entity.Record) (string, error) {
	if !record.IsLegacy() {
		return record.AssetPath, nil
	}
	return blob.ResolvePath(record.AssetUrl)
}

func baseName(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" {
		return "asset"
	}
	return name
}

// textFields keeps the fields the kind accepts, trimmed
func (c *Handler) textFields(in map[string]string) map[string]string {
	result := make(map[string]string, len(c.kind.Fields))
	for _, f := range c.kind.Fields {
		v, ok := in[f]
		if !ok {
			continue
		}
		result[f] = strings.TrimSpace(v)
	}
	return result
}

// missingFields lists required fields that are absent or empty
func (c *Handler) missingFields(fields map[string]string) []string {
	var missing []string
	for _, f := range c.kind.Required {
		if fields[f] == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// blankFields lists supplied fields that are empty after trimming and not already in missing
func (c *Handler) blankFields(fields map[string]string, missing []string) []string {
	for _, f := range c.kind.Fields {
		v, ok := fields[f]
		if !ok || v != "" || slices.Contains(missing, f) {
			continue
		}
		missing = append(missing, f)
	}
	return missing
}
