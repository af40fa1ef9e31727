package mycontent

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	"github.com/desain-gratis/media-console/types/entity"
)

var (
	// ErrValidation used to communicate input error to user, nothing was touched
	ErrValidation = errors.New("validation")

	// ErrUpload the asset transfer failed, no metadata was written
	ErrUpload = errors.New("upload")

	// ErrDelete the asset could not be removed from the blob store
	ErrDelete = errors.New("delete")

	// ErrPersist a metadata write failed after the blob store was already changed
	ErrPersist = errors.New("persist")

	// ErrNotFound when the record is not found during Get, Update, Delete, and Download
	ErrNotFound = errors.New("not found")
)

// ValidationError lists the required input that is missing or empty
type ValidationError struct {
	Missing []string
	Reason  string
}

func (v *ValidationError) Error() string {
	msg := "validation failed"
	if len(v.Missing) > 0 {
		msg += ": missing " + strings.Join(v.Missing, ", ")
	}
	if v.Reason != "" {
		msg += ": " + v.Reason
	}
	return msg
}

func (v *ValidationError) Unwrap() error {
	return ErrValidation
}

// Usecase is the asset-linked record lifecycle of a single kind
type Usecase interface {
	Kind() entity.Kind

	// Create uploads the asset first, then writes the metadata document
	Create(ctx context.Context, req CreateRequest) (*Result, error)

	// Update replaces the text fields, and the asset when one is supplied
	Update(ctx context.Context, req UpdateRequest) (*Result, error)

	// Delete removes the asset, then the metadata document
	Delete(ctx context.Context, req DeleteRequest) (*Result, error)

	Get(ctx context.Context, ID string) (*entity.Record, error)

	// List records, newest first
	List(ctx context.Context) ([]*entity.Record, error)

	Count(ctx context.Context) (int, error)

	// Download the asset linked to the record
	Download(ctx context.Context, ID string) (io.ReadCloser, *blob.Data, error)
}

// Asset is an uploaded file
type Asset struct {
	Name        string // original file name
	ContentType string
	Size        int64 // -1 when unknown
	Payload     io.Reader
}

// ProgressFunc receives non-terminal upload progress, percentages never decrease
type ProgressFunc func(p blob.Progress)

type CreateRequest struct {
	Fields     map[string]string
	Asset      *Asset
	OnProgress ProgressFunc
}

type UpdateRequest struct {
	ID         string
	Fields     map[string]string
	Asset      *Asset // optional replacement
	OnProgress ProgressFunc
}

type DeleteRequest struct {
	ID string

	// Confirmed must be set by the caller after asking the user
	Confirmed bool
}

// Result of a lifecycle operation.
// Warnings are problems that did not fail the operation, eg. an old asset that
// could not be removed.
type Result struct {
	Record   *entity.Record
	Warnings []error
}
