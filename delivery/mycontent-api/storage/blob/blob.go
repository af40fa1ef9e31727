package blob

import (
	"context"
	"errors"
	"io"
	"net/url"
)

var (
	// ErrNotFound when there is no object at the given path
	ErrNotFound = errors.New("blob not found")

	// ErrUnresolvablePath when a record's blob path cannot be derived from its URL
	ErrUnresolvablePath = errors.New("unresolvable blob path")
)

type Repository interface {
	// Upload generic binary to path
	// Path is internal address, uniqueness is the caller responsibility.
	// size is the expected payload length, or 0 if unknown.
	Upload(ctx context.Context, path string, contentType string, payload io.Reader, size int64) (*Data, error)

	// Delete generic binary at path
	// Returns ErrNotFound if there is nothing to delete
	Delete(ctx context.Context, path string) (*Data, error)

	// Get the data
	// Better just use the public URL,
	// But if the data is small & meant to be private then can use this
	Get(ctx context.Context, path string) (io.ReadCloser, *Data, error)

	// PublicURL of an object path, whether it exist or not
	PublicURL(path string) string
}

type Data struct {
	// The location of the data in the repository
	Path        string
	PublicURL   string
	ContentType string
	ContentSize int64
}

// ObjectURL formats a retrieval URL in the "<base>/o/<escaped path>?alt=media" form.
// ResolvePath is its inverse.
func ObjectURL(base string, path string) string {
	return base + objectMarker + url.PathEscape(path) + "?alt=media"
}
