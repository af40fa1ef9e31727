package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"cloud.google.com/go/storage"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
)

// DefaultPublicURL serves objects the same way Firebase Storage download URLs do
const DefaultPublicURL = "https://firebasestorage.googleapis.com"

var _ blob.Repository = &handler{}

type handler struct {
	gcsClient     *storage.Client
	bucketName    string
	basePublicUrl string
}

// New GCS backed blob repository.
// Public URLs have the "<basePublicUrl>/v0/b/<bucket>/o/<path>?alt=media" form,
// so they can be resolved back into a path.
func New(
	ctx context.Context,
	bucketName string,
	basePublicUrl string,
) (*handler, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create gcs client", err)
	}

	return NewWithClient(client, bucketName, basePublicUrl), nil
}

func NewWithClient(client *storage.Client, bucketName string, basePublicUrl string) *handler {
	if basePublicUrl == "" {
		basePublicUrl = DefaultPublicURL
	}
	return &handler{
		gcsClient:     client,
		bucketName:    bucketName,
		basePublicUrl: basePublicUrl,
	}
}

func (h *handler) Upload(ctx context.Context, objectPath string, contentType string, payload io.Reader, size int64) (*blob.Data, error) {
	object := h.gcsClient.Bucket(h.bucketName).Object(objectPath)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objWriter := object.NewWriter(ctx)
	objWriter.ContentType = contentType

	length, err := io.Copy(objWriter, payload)
	if err != nil {
		// cancelling before close aborts the upload
		cancel()
		_ = objWriter.Close()

		message := "error when writing to data storage. Writen '" + strconv.FormatInt(length, 10) + "' bytes of data to '" + objectPath + "' before error"
		return nil, fmt.Errorf("%w: failed to upload. "+message, err)
	}

	err = objWriter.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: error when closing obj writer", err)
	}

	return &blob.Data{
		Path:        objectPath,
		PublicURL:   h.PublicURL(objectPath),
		ContentType: contentType,
		ContentSize: length,
	}, nil
}

// Delete generic binary at path
func (h *handler) Delete(ctx context.Context, path string) (*blob.Data, error) {
	err := h.gcsClient.Bucket(h.bucketName).Object(path).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to delete object", err)
	}

	return &blob.Data{
		Path: path,
	}, nil
}

// Get the data
// Better just use the public URL,
// But if the data is small & meant to be private then can use this
func (h *handler) Get(ctx context.Context, path string) (io.ReadCloser, *blob.Data, error) {
	objReader, err := h.gcsClient.Bucket(h.bucketName).Object(path).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, nil, fmt.Errorf("%w: %v", blob.ErrNotFound, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: server error when getting storage data", err)
	}

	return objReader, &blob.Data{
		Path:        path,
		PublicURL:   h.PublicURL(path),
		ContentType: objReader.Attrs.ContentType,
		ContentSize: objReader.Attrs.Size,
	}, nil
}

func (h *handler) PublicURL(path string) string {
	return blob.ObjectURL(h.basePublicUrl+"/v0/b/"+h.bucketName, path)
}
