package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
)

var _ blob.Repository = &handler{}

type handler struct {
	client        *minio.Client
	basePublicUrl string
	bucketName    string
}

func New(
	endpoint string,
	accessKeyID string,
	secretAccessKey string,
	useSSL bool,
	bucketName string,
	basePublicUrl string,
) (*handler, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	return &handler{
		client:        client,
		bucketName:    bucketName,
		basePublicUrl: basePublicUrl,
	}, nil
}

func (h *handler) Upload(ctx context.Context, objectPath string, contentType string, payload io.Reader, size int64) (*blob.Data, error) {
	exists, err := h.client.BucketExists(ctx, h.bucketName)
	if !exists || err != nil {
		return nil, fmt.Errorf("%w: failure when accessing storage or bucket not exist %v", err, !exists)
	}

	objectSize := size
	if objectSize <= 0 {
		objectSize = -1 // unknown, minio buffers parts in memory
	}

	info, err := h.client.PutObject(ctx, h.bucketName, objectPath, payload, objectSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to put object %v", err, ctx.Err())
	}

	return &blob.Data{
		PublicURL:   h.PublicURL(objectPath),
		Path:        objectPath,
		ContentType: contentType,
		ContentSize: info.Size,
	}, nil
}

// Delete generic binary at path
// S3 delete is idempotent, so existence is checked first to report blob.ErrNotFound
func (h *handler) Delete(ctx context.Context, path string) (*blob.Data, error) {
	_, err := h.client.StatObject(ctx, h.bucketName, path, minio.StatObjectOptions{})
	if isNotFound(err) {
		return nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: (delete) failure when accessing storage", err)
	}

	err = h.client.RemoveObject(ctx, h.bucketName, path, minio.RemoveObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: server error during delete", err)
	}

	return &blob.Data{
		Path: path,
	}, nil
}

// Get the data
// Better just use the public URL,
// But if the data is small & meant to be private then can use this
func (h *handler) Get(ctx context.Context, path string) (io.ReadCloser, *blob.Data, error) {
	object, err := h.client.GetObject(ctx, h.bucketName, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: cannot get object at path %v", err, path)
	}

	// GetObject is lazy, stat surfaces missing objects
	info, err := object.Stat()
	if isNotFound(err) {
		_ = object.Close()
		return nil, nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		_ = object.Close()
		return nil, nil, fmt.Errorf("%w: cannot stat object at path %v", err, path)
	}

	return object, &blob.Data{
		Path:        path,
		PublicURL:   h.PublicURL(path),
		ContentType: info.ContentType,
		ContentSize: info.Size,
	}, nil
}

func (h *handler) PublicURL(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return h.basePublicUrl + "/" + strings.Join(segments, "/")
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
