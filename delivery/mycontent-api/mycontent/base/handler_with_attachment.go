package base

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	"github.com/desain-gratis/media-console/types/entity"
)

// Create uploads the asset, then writes the metadata document.
// A failed upload leaves no document. A failed metadata write leaves the
// uploaded blob orphaned, it is reported but not removed.
func (c *Handler) Create(ctx context.Context, req mycontent.CreateRequest) (*mycontent.Result, error) {
	fields := c.textFields(req.Fields)
	if req.Asset != nil && c.kind.TitleFromFileName && fields[entity.FieldTitle] == "" {
		fields[entity.FieldTitle] = strings.TrimSpace(req.Asset.Name)
	}

	missing := c.missingFields(fields)
	if !validAsset(req.Asset) {
		missing = append(missing, "asset")
	}
	if len(missing) > 0 {
		return nil, &mycontent.ValidationError{Missing: missing}
	}

	data, err := c.upload(ctx, req.Asset, req.OnProgress)
	if err != nil {
		return nil, err
	}

	fields[entity.FieldAssetURL] = data.PublicURL
	fields[entity.FieldAssetPath] = data.Path

	doc, err := c.repo.Create(ctx, c.kind.Collection, fields)
	if err != nil {
		log.Err(err).Str("kind", c.kind.Name).Str("path", data.Path).
			Msg("asset uploaded but record was not saved, stores may be inconsistent")
		return nil, fmt.Errorf("%w: asset %v uploaded but %v was not saved, stores may be inconsistent: %w",
			mycontent.ErrPersist, data.Path, c.kind.Name, err)
	}

	log.Info().Str("kind", c.kind.Name).Str("id", doc.ID).Str("path", data.Path).Msg("created")

	return &mycontent.Result{Record: c.toRecord(doc)}, nil
}

// Update the text fields with a single metadata write. When a replacement asset
// is supplied it is uploaded first, then the old asset is removed, then the
// metadata is written. Failing to remove the old asset is only a warning.
func (c *Handler) Update(ctx context.Context, req mycontent.UpdateRequest) (*mycontent.Result, error) {
	if req.ID == "" {
		return nil, &mycontent.ValidationError{Missing: []string{"id"}}
	}

	fields := c.textFields(req.Fields)
	missing := c.blankFields(fields, c.missingFields(fields))
	if req.Asset != nil && !validAsset(req.Asset) {
		missing = append(missing, "asset")
	}
	if len(missing) > 0 {
		return nil, &mycontent.ValidationError{Missing: missing}
	}

	if req.Asset == nil {
		if len(fields) == 0 {
			return nil, &mycontent.ValidationError{Reason: "nothing to update"}
		}
		return c.updateFields(ctx, req.ID, fields)
	}

	return c.replace(ctx, req.ID, fields, req.Asset, req.OnProgress)
}

func (c *Handler) updateFields(ctx context.Context, ID string, fields map[string]string) (*mycontent.Result, error) {
	doc, err := c.repo.Update(ctx, c.kind.Collection, ID, fields)
	if errors.Is(err, content.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v %v", mycontent.ErrNotFound, c.kind.Name, ID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to update %v %v, record unchanged: %w", mycontent.ErrPersist, c.kind.Name, ID, err)
	}

	log.Info().Str("kind", c.kind.Name).Str("id", ID).Msg("updated")

	return &mycontent.Result{Record: c.toRecord(doc)}, nil
}

func (c *Handler) replace(
	ctx context.Context,
	ID string,
	fields map[string]string,
	asset *mycontent.Asset,
	onProgress mycontent.ProgressFunc,
) (*mycontent.Result, error) {
	current, err := c.Get(ctx, ID)
	if err != nil {
		return nil, err
	}

	data, err := c.upload(ctx, asset, onProgress)
	if err != nil {
		return nil, err
	}

	var warnings []error
	if err := c.removeOldAsset(ctx, current, data.Path); err != nil {
		log.Warn().Err(err).Str("kind", c.kind.Name).Str("id", ID).Msg("old asset not removed")
		warnings = append(warnings, err)
	}

	patch := fields
	patch[entity.FieldAssetURL] = data.PublicURL
	patch[entity.FieldAssetPath] = data.Path

	doc, err := c.repo.Update(ctx, c.kind.Collection, ID, patch)
	if err != nil {
		log.Err(err).Str("kind", c.kind.Name).Str("id", ID).Str("path", data.Path).
			Msg("new asset uploaded but record was not updated, stores may be inconsistent")
		return nil, fmt.Errorf("%w: asset %v uploaded but %v %v was not updated, stores may be inconsistent: %w",
			mycontent.ErrPersist, data.Path, c.kind.Name, ID, err)
	}

	log.Info().Str("kind", c.kind.Name).Str("id", ID).Str("path", data.Path).Msg("asset replaced")

	return &mycontent.Result{Record: c.toRecord(doc), Warnings: warnings}, nil
}

func (c *Handler) removeOldAsset(ctx context.Context, current *entity.Record, newPath string) error {
	oldPath, err := resolveAssetPath(current)
	if err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}
	return c.deleteAsset(ctx, oldPath)
}

// Delete removes the asset first and keeps the record when that fails, so the
// record stays visible for another attempt. A legacy record whose asset path
// cannot be derived loses only its metadata.
func (c *Handler) Delete(ctx context.Context, req mycontent.DeleteRequest) (*mycontent.Result, error) {
	if req.ID == "" {
		return nil, &mycontent.ValidationError{Missing: []string{"id"}}
	}
	if !req.Confirmed {
		return nil, &mycontent.ValidationError{Reason: "delete must be confirmed"}
	}

	record, err := c.Get(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	var warnings []error
	assetPath, err := resolveAssetPath(record)
	if err != nil {
		log.Warn().Err(err).Str("kind", c.kind.Name).Str("id", req.ID).Msg("asset path unresolvable, skipping asset delete")
		warnings = append(warnings, err)
	} else if err := c.deleteAsset(ctx, assetPath); err != nil {
		return nil, err
	}

	doc, err := c.repo.Delete(ctx, c.kind.Collection, req.ID)
	if err != nil {
		log.Err(err).Str("kind", c.kind.Name).Str("id", req.ID).Str("path", assetPath).
			Msg("asset deleted but record was not, stores may be inconsistent")
		return nil, fmt.Errorf("%w: asset of %v %v deleted but the record was not, stores may be inconsistent: %w",
			mycontent.ErrPersist, c.kind.Name, req.ID, err)
	}

	log.Info().Str("kind", c.kind.Name).Str("id", req.ID).Str("path", assetPath).Msg("deleted")

	return &mycontent.Result{Record: c.toRecord(doc), Warnings: warnings}, nil
}

// deleteAsset treats an already missing blob as deleted
func (c *Handler) deleteAsset(ctx context.Context, assetPath string) error {
	_, err := c.blobRepo.Delete(ctx, assetPath)
	if errors.Is(err, blob.ErrNotFound) {
		log.Warn().Str("kind", c.kind.Name).Str("path", assetPath).Msg("asset already gone")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: failed to delete asset %v: %w", mycontent.ErrDelete, assetPath, err)
	}
	return nil
}

// upload the asset to a fresh path, forwarding progress until the terminal event.
// If ctx is done first the upload is abandoned, the transfer may still complete.
func (c *Handler) upload(ctx context.Context, asset *mycontent.Asset, onProgress mycontent.ProgressFunc) (*blob.Data, error) {
	assetPath := c.assetPath(asset.Name)
	log.Info().Str("kind", c.kind.Name).Str("path", assetPath).Int64("size", asset.Size).Msg("uploading asset")

	u := blob.Put(ctx, c.blobRepo, assetPath, asset.ContentType, asset.Payload, asset.Size)
	for {
		select {
		case ev, ok := <-u.Events():
			if !ok {
				return nil, fmt.Errorf("%w: upload of %v ended without result", mycontent.ErrUpload, assetPath)
			}
			if !ev.Terminal() {
				if onProgress != nil {
					onProgress(ev.Progress)
				}
				continue
			}
			if ev.Err != nil {
				log.Err(ev.Err).Str("kind", c.kind.Name).Str("path", assetPath).Msg("upload failed")
				return nil, fmt.Errorf("%w: failed to upload %v: %w", mycontent.ErrUpload, assetPath, ev.Err)
			}

			data := ev.Data
			if data.PublicURL == "" {
				data.PublicURL = c.blobRepo.PublicURL(data.Path)
			}
			return data, nil
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: upload of %v abandoned: %w", mycontent.ErrUpload, assetPath, ctx.Err())
		}
	}
}

func validAsset(asset *mycontent.Asset) bool {
	return asset != nil && asset.Payload != nil && strings.TrimSpace(asset.Name) != ""
}
