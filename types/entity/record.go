package entity

import (
	"time"
)

// Document field names shared by every record kind
const (
	FieldAssetURL  = "asset_url"
	FieldAssetPath = "asset_path"
	FieldTitle     = "title"
	FieldLocation  = "location"
)

// Record is the metadata half of an asset-linked record.
// The asset itself lives in the blob store under AssetPath.
type Record struct {
	Id        string    `json:"id,omitempty"`
	Kind      string    `json:"kind,omitempty"`
	AssetUrl  string    `json:"asset_url,omitempty"`
	AssetPath string    `json:"asset_path,omitempty"` // empty on legacy records
	Title     string    `json:"title,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsLegacy reports whether the record predates the stored asset path
func (r *Record) IsLegacy() bool {
	return r.AssetPath == ""
}

// Fields returns the kind-specific text fields of the record
func (r *Record) Fields() map[string]string {
	result := make(map[string]string, 2)
	if r.Title != "" {
		result[FieldTitle] = r.Title
	}
	if r.Location != "" {
		result[FieldLocation] = r.Location
	}
	return result
}

// FromFields builds a record from a stored document
func FromFields(kind Kind, id string, createdAt time.Time, fields map[string]string) *Record {
	return &Record{
		Id:        id,
		Kind:      kind.Name,
		AssetUrl:  fields[FieldAssetURL],
		AssetPath: fields[FieldAssetPath],
		Title:     fields[FieldTitle],
		Location:  fields[FieldLocation],
		CreatedAt: createdAt,
	}
}
