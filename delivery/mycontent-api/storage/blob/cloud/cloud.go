// Package cloud is a blob repository on top of the portable gocloud.dev bucket API.
// The bucket is chosen by URL: "mem://" for tests and demos, "file:///var/data"
// for a local disk, "gs://bucket" for Google Cloud Storage.
package cloud

import (
	"context"
	"fmt"
	"io"

	gcblob "gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	"gocloud.dev/gcerrors"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
)

var _ blob.Repository = &handler{}

type handler struct {
	bucket        *gcblob.Bucket
	basePublicUrl string
}

// Open the bucket at bucketURL
func Open(ctx context.Context, bucketURL string, basePublicUrl string) (*handler, error) {
	bucket, err := gcblob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open bucket %v", err, bucketURL)
	}
	return New(bucket, basePublicUrl), nil
}

func New(bucket *gcblob.Bucket, basePublicUrl string) *handler {
	return &handler{
		bucket:        bucket,
		basePublicUrl: basePublicUrl,
	}
}

func (h *handler) Upload(ctx context.Context, path string, contentType string, payload io.Reader, size int64) (*blob.Data, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := h.bucket.NewWriter(ctx, path, &gcblob.WriterOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open writer for %v", err, path)
	}

	length, err := io.Copy(w, payload)
	if err != nil {
		// a cancelled context discards the partial write on close
		cancel()
		_ = w.Close()
		return nil, fmt.Errorf("%w: failed to upload, wrote %d bytes to %v before error", err, length, path)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: error when closing writer", err)
	}

	return &blob.Data{
		Path:        path,
		PublicURL:   h.PublicURL(path),
		ContentType: contentType,
		ContentSize: length,
	}, nil
}

func (h *handler) Delete(ctx context.Context, path string) (*blob.Data, error) {
	err := h.bucket.Delete(ctx, path)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to delete object", err)
	}

	return &blob.Data{
		Path: path,
	}, nil
}

func (h *handler) Get(ctx context.Context, path string) (io.ReadCloser, *blob.Data, error) {
	r, err := h.bucket.NewReader(ctx, path, nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot get object at path %v", err, path)
	}

	return r, &blob.Data{
		Path:        path,
		PublicURL:   h.PublicURL(path),
		ContentType: r.ContentType(),
		ContentSize: r.Size(),
	}, nil
}

func (h *handler) PublicURL(path string) string {
	return blob.ObjectURL(h.basePublicUrl, path)
}

func (h *handler) Close() error {
	return h.bucket.Close()
}
