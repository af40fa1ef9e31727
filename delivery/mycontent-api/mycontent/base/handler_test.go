package base

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"

	"github.com/desain-gratis/media-console/delivery/mycontent-api/mycontent"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/blob/cloud"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content"
	"github.com/desain-gratis/media-console/delivery/mycontent-api/storage/content/inmemory"
	"github.com/desain-gratis/media-console/types/entity"
)

const testBaseURL = "https://cdn.test"

var errBoom = errors.New("boom")

// faultyBlob fails the operations that have an error set
type faultyBlob struct {
	blob.Repository

	mtx       sync.Mutex
	uploadErr error
	deleteErr error
	uploads   int
}

func (f *faultyBlob) Upload(ctx context.Context, path string, contentType string, payload io.Reader, size int64) (*blob.Data, error) {
	f.mtx.Lock()
	f.uploads++
	err := f.uploadErr
	f.mtx.Unlock()

	if err != nil {
		// consume part of the payload like a transfer that broke midway
		_, _ = io.CopyN(io.Discard, payload, 3)
		return nil, err
	}
	return f.Repository.Upload(ctx, path, contentType, payload, size)
}

func (f *faultyBlob) Delete(ctx context.Context, path string) (*blob.Data, error) {
	f.mtx.Lock()
	err := f.deleteErr
	f.mtx.Unlock()

	if err != nil {
		return nil, err
	}
	return f.Repository.Delete(ctx, path)
}

type fixture struct {
	handler *Handler
	store   *content.Wrapper
	memory  interface {
		content.Repository
		Seed(collection string, doc content.Document)
	}
	blobs *faultyBlob
}

func newFixture(t *testing.T, kind entity.Kind) *fixture {
	t.Helper()

	bucket := memblob.OpenBucket(nil)
	t.Cleanup(func() { _ = bucket.Close() })

	memory := inmemory.New()
	store := &content.Wrapper{Repository: memory}
	blobs := &faultyBlob{Repository: cloud.New(bucket, testBaseURL)}

	h := New(kind, store, blobs)

	// every generated path gets its own millisecond
	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	var clockMtx sync.Mutex
	h.now = func() time.Time {
		clockMtx.Lock()
		defer clockMtx.Unlock()
		clock = clock.Add(time.Millisecond)
		return clock
	}

	return &fixture{handler: h, store: store, memory: memory, blobs: blobs}
}

func asset(name string, payload string) *mycontent.Asset {
	return &mycontent.Asset{
		Name:        name,
		ContentType: "image/jpeg",
		Size:        int64(len(payload)),
		Payload:     strings.NewReader(payload),
	}
}

func (f *fixture) blobExists(t *testing.T, path string) bool {
	t.Helper()
	r, _, err := f.blobs.Repository.Get(context.Background(), path)
	if errors.Is(err, blob.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	_ = r.Close()
	return true
}

func (f *fixture) create(t *testing.T, fields map[string]string, name string) *entity.Record {
	t.Helper()
	result, err := f.handler.Create(context.Background(), mycontent.CreateRequest{
		Fields: fields,
		Asset:  asset(name, "image-bytes-"+name),
	})
	require.NoError(t, err)
	return result.Record
}

func TestHandler_Create(t *testing.T) {
	f := newFixture(t, entity.Banner)
	payload := strings.Repeat("x", 100_000)

	var percents []int
	result, err := f.handler.Create(context.Background(), mycontent.CreateRequest{
		Asset: &mycontent.Asset{
			Name:        "promo.jpg",
			ContentType: "image/jpeg",
			Size:        int64(len(payload)),
			Payload:     strings.NewReader(payload),
		},
		OnProgress: func(p blob.Progress) {
			percents = append(percents, p.Percent())
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Empty(t, result.Warnings)

	record := result.Record
	assert.NotEmpty(t, record.Id)
	assert.Equal(t, "banner", record.Kind)
	assert.Equal(t, "banners/1714557600001-promo.jpg", record.AssetPath)
	assert.Equal(t, blob.ObjectURL(testBaseURL, record.AssetPath), record.AssetUrl)
	assert.False(t, record.CreatedAt.IsZero())
	assert.True(t, f.blobExists(t, record.AssetPath))

	// the stored URL leads back to the stored path
	resolved, err := blob.ResolvePath(record.AssetUrl)
	require.NoError(t, err)
	assert.Equal(t, record.AssetPath, resolved)

	require.NotEmpty(t, percents)
	for i := 1; i < len(percents); i++ {
		assert.GreaterOrEqual(t, percents[i], percents[i-1])
	}
	assert.LessOrEqual(t, percents[len(percents)-1], 100)

	list, err := f.handler.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, record.Id, list[0].Id)
}

func TestHandler_Create_Validation(t *testing.T) {
	tests := []struct {
		name        string
		kind        entity.Kind
		fields      map[string]string
		asset       *mycontent.Asset
		wantMissing []string
	}{
		{
			name:        "service without anything",
			kind:        entity.Service,
			wantMissing: []string{entity.FieldTitle, entity.FieldLocation, "asset"},
		},
		{
			name:        "service with blank location",
			kind:        entity.Service,
			fields:      map[string]string{entity.FieldTitle: "Bali trip", entity.FieldLocation: "   "},
			asset:       asset("bali.jpg", "x"),
			wantMissing: []string{entity.FieldLocation},
		},
		{
			name:        "banner without asset",
			kind:        entity.Banner,
			wantMissing: []string{"asset"},
		},
		{
			name:        "asset without file name",
			kind:        entity.GalleryItem,
			asset:       asset("", "x"),
			wantMissing: []string{"asset"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.kind)

			_, err := f.handler.Create(context.Background(), mycontent.CreateRequest{
				Fields: tt.fields,
				Asset:  tt.asset,
			})
			require.ErrorIs(t, err, mycontent.ErrValidation)

			var verr *mycontent.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMissing, verr.Missing)

			assert.Zero(t, f.blobs.uploads)
			n, err := f.handler.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestHandler_Create_Service(t *testing.T) {
	f := newFixture(t, entity.Service)

	record := f.create(t, map[string]string{
		entity.FieldTitle:    " Bali trip ",
		entity.FieldLocation: "Bali",
		"price":              "ignored",
	}, "bali.jpg")

	assert.Equal(t, "Bali trip", record.Title)
	assert.Equal(t, "Bali", record.Location)
	assert.True(t, strings.HasPrefix(record.AssetPath, "services/"))

	doc, err := f.memory.Get(context.Background(), entity.Service.Collection, record.Id)
	require.NoError(t, err)
	assert.NotContains(t, doc.Fields, "price")
}

func TestHandler_Create_GalleryTitleFromFileName(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)

	record := f.create(t, nil, "sunset.png")
	assert.Equal(t, "sunset.png", record.Title)

	record = f.create(t, map[string]string{entity.FieldTitle: "Beach"}, "beach.png")
	assert.Equal(t, "Beach", record.Title)
}

func TestHandler_Create_UploadFailure(t *testing.T) {
	f := newFixture(t, entity.Banner)
	f.blobs.uploadErr = errBoom

	_, err := f.handler.Create(context.Background(), mycontent.CreateRequest{
		Asset: asset("promo.jpg", "payload"),
	})
	require.ErrorIs(t, err, mycontent.ErrUpload)
	assert.ErrorIs(t, err, errBoom)

	list, err := f.handler.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHandler_Create_PersistFailureLeavesOrphan(t *testing.T) {
	f := newFixture(t, entity.Banner)
	f.store.OnCreate = func(ctx context.Context, collection string, fields map[string]string) (content.Document, error) {
		return content.Document{}, errBoom
	}

	_, err := f.handler.Create(context.Background(), mycontent.CreateRequest{
		Asset: asset("promo.jpg", "payload"),
	})
	require.ErrorIs(t, err, mycontent.ErrPersist)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "inconsistent")

	// no compensating delete
	assert.True(t, f.blobExists(t, "banners/1714557600001-promo.jpg"))
}

func TestHandler_Create_Abandoned(t *testing.T) {
	f := newFixture(t, entity.Banner)

	// the transfer never completes until the pipe is closed
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.CloseWithError(errBoom) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.handler.Create(ctx, mycontent.CreateRequest{
		Asset: &mycontent.Asset{Name: "promo.jpg", Size: 10, Payload: pr},
	})
	require.ErrorIs(t, err, mycontent.ErrUpload)

	n, err := f.handler.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_Update_TextOnly(t *testing.T) {
	f := newFixture(t, entity.Service)
	before := f.create(t, map[string]string{entity.FieldTitle: "Bali", entity.FieldLocation: "Indonesia"}, "bali.jpg")
	uploads := f.blobs.uploads

	result, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:     before.Id,
		Fields: map[string]string{entity.FieldTitle: "Bali 3D2N", entity.FieldLocation: "Ubud"},
	})
	require.NoError(t, err)

	after := result.Record
	assert.Equal(t, "Bali 3D2N", after.Title)
	assert.Equal(t, "Ubud", after.Location)
	assert.Equal(t, before.AssetUrl, after.AssetUrl)
	assert.Equal(t, before.AssetPath, after.AssetPath)
	assert.True(t, before.CreatedAt.Equal(after.CreatedAt))
	assert.Equal(t, uploads, f.blobs.uploads)
}

func TestHandler_Update_Validation(t *testing.T) {
	tests := []struct {
		name string
		kind entity.Kind
		req  func(id string) mycontent.UpdateRequest
	}{
		{
			name: "service blank title",
			kind: entity.Service,
			req: func(id string) mycontent.UpdateRequest {
				return mycontent.UpdateRequest{ID: id, Fields: map[string]string{entity.FieldTitle: "", entity.FieldLocation: "Bali"}}
			},
		},
		{
			name: "banner without asset",
			kind: entity.Banner,
			req: func(id string) mycontent.UpdateRequest {
				return mycontent.UpdateRequest{ID: id}
			},
		},
		{
			name: "gallery blank title",
			kind: entity.GalleryItem,
			req: func(id string) mycontent.UpdateRequest {
				return mycontent.UpdateRequest{ID: id, Fields: map[string]string{entity.FieldTitle: "   "}}
			},
		},
		{
			name: "missing id",
			kind: entity.Banner,
			req: func(id string) mycontent.UpdateRequest {
				return mycontent.UpdateRequest{Asset: asset("a.jpg", "x")}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.kind)
			before := f.create(t, map[string]string{entity.FieldTitle: "t", entity.FieldLocation: "l"}, "a.jpg")

			_, err := f.handler.Update(context.Background(), tt.req(before.Id))
			require.ErrorIs(t, err, mycontent.ErrValidation)

			after, err := f.handler.Get(context.Background(), before.Id)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestHandler_Update_BlankFieldListed(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	before := f.create(t, map[string]string{entity.FieldTitle: "sunset"}, "a.jpg")

	_, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:     before.Id,
		Fields: map[string]string{entity.FieldTitle: " \t "},
		Asset:  asset("b.jpg", "new"),
	})
	var verr *mycontent.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{entity.FieldTitle}, verr.Missing)
	assert.Equal(t, 1, f.blobs.uploads)
	assert.True(t, f.blobExists(t, before.AssetPath))
}

func TestHandler_Update_ConcurrentReplace(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	before := f.create(t, map[string]string{entity.FieldTitle: "original"}, "a.jpg")

	titles := []string{"first", "second"}
	results := make([]*mycontent.Result, len(titles))
	errs := make([]error, len(titles))

	var wg sync.WaitGroup
	for i, title := range titles {
		wg.Add(1)
		go func(i int, title string) {
			defer wg.Done()
			results[i], errs[i] = f.handler.Update(context.Background(), mycontent.UpdateRequest{
				ID:     before.Id,
				Fields: map[string]string{entity.FieldTitle: title},
				Asset:  asset(title+".jpg", "payload-"+title),
			})
		}(i, title)
	}
	wg.Wait()

	for i := range titles {
		require.NoError(t, errs[i])
	}

	// last write wins: the stored record is exactly one of the two writes
	after, err := f.handler.Get(context.Background(), before.Id)
	require.NoError(t, err)
	assert.Contains(t, []*entity.Record{results[0].Record, results[1].Record}, after)
	assert.Contains(t, titles, after.Title)
	assert.True(t, f.blobExists(t, after.AssetPath))
	assert.False(t, f.blobExists(t, before.AssetPath))

	// the losing upload may be left behind unreferenced
	var survivors int
	for _, r := range results {
		if f.blobExists(t, r.Record.AssetPath) {
			survivors++
		}
	}
	assert.GreaterOrEqual(t, survivors, 1)
	assert.LessOrEqual(t, survivors, 2)
	assert.Equal(t, 3, f.blobs.uploads)
}

func TestHandler_Update_NotFound(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)

	_, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:     "missing",
		Fields: map[string]string{entity.FieldTitle: "x"},
	})
	assert.ErrorIs(t, err, mycontent.ErrNotFound)

	_, err = f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:    "missing",
		Asset: asset("a.jpg", "x"),
	})
	assert.ErrorIs(t, err, mycontent.ErrNotFound)
	assert.Zero(t, f.blobs.uploads)
}

func TestHandler_Update_ReplaceAsset(t *testing.T) {
	f := newFixture(t, entity.Service)
	before := f.create(t, map[string]string{entity.FieldTitle: "Bali", entity.FieldLocation: "Indonesia"}, "bali.jpg")

	var progressed bool
	result, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:         before.Id,
		Fields:     map[string]string{entity.FieldTitle: "Bali", entity.FieldLocation: "Indonesia"},
		Asset:      asset("bali-new.jpg", "new-bytes"),
		OnProgress: func(blob.Progress) { progressed = true },
	})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.True(t, progressed)

	after := result.Record
	assert.NotEqual(t, before.AssetUrl, after.AssetUrl)
	assert.NotEqual(t, before.AssetPath, after.AssetPath)
	assert.False(t, f.blobExists(t, before.AssetPath))
	assert.True(t, f.blobExists(t, after.AssetPath))

	stored, err := f.handler.Get(context.Background(), before.Id)
	require.NoError(t, err)
	assert.Equal(t, after.AssetUrl, stored.AssetUrl)
}

func TestHandler_Update_OldAssetDeleteFailureIsWarning(t *testing.T) {
	f := newFixture(t, entity.Banner)
	before := f.create(t, nil, "old.jpg")
	f.blobs.deleteErr = errBoom

	result, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:    before.Id,
		Asset: asset("new.jpg", "new"),
	})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.ErrorIs(t, result.Warnings[0], mycontent.ErrDelete)

	// new asset linked, old one left behind
	assert.NotEqual(t, before.AssetPath, result.Record.AssetPath)
	assert.True(t, f.blobExists(t, before.AssetPath))
	assert.True(t, f.blobExists(t, result.Record.AssetPath))
}

func TestHandler_Update_LegacyRecord(t *testing.T) {
	tests := []struct {
		name        string
		assetURL    string
		legacyPath  string
		wantWarning error
	}{
		{
			name:       "path derived from url",
			assetURL:   blob.ObjectURL(testBaseURL, "banners/1600000000000-old banner.jpg"),
			legacyPath: "banners/1600000000000-old banner.jpg",
		},
		{
			name:        "url without marker",
			assetURL:    "https://example.com/images/old.jpg",
			wantWarning: blob.ErrUnresolvablePath,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, entity.Banner)
			if tt.legacyPath != "" {
				_, err := f.blobs.Repository.Upload(context.Background(), tt.legacyPath, "image/jpeg", strings.NewReader("old"), 3)
				require.NoError(t, err)
			}
			f.memory.Seed(entity.Banner.Collection, content.Document{
				ID:        "legacy-1",
				CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
				Fields:    map[string]string{entity.FieldAssetURL: tt.assetURL},
			})

			result, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
				ID:    "legacy-1",
				Asset: asset("new.jpg", "new"),
			})
			require.NoError(t, err)
			assert.False(t, result.Record.IsLegacy())

			if tt.wantWarning != nil {
				require.Len(t, result.Warnings, 1)
				assert.ErrorIs(t, result.Warnings[0], tt.wantWarning)
				return
			}
			assert.Empty(t, result.Warnings)
			assert.False(t, f.blobExists(t, tt.legacyPath))
		})
	}
}

func TestHandler_Update_UploadFailureKeepsOldAsset(t *testing.T) {
	f := newFixture(t, entity.Banner)
	before := f.create(t, nil, "old.jpg")
	f.blobs.uploadErr = errBoom

	_, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:    before.Id,
		Asset: asset("new.jpg", "new"),
	})
	require.ErrorIs(t, err, mycontent.ErrUpload)

	after, err := f.handler.Get(context.Background(), before.Id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.True(t, f.blobExists(t, before.AssetPath))
}

func TestHandler_Update_PersistFailure(t *testing.T) {
	f := newFixture(t, entity.Banner)
	before := f.create(t, nil, "old.jpg")
	f.store.OnUpdate = func(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
		return content.Document{}, errBoom
	}

	_, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:    before.Id,
		Asset: asset("new.jpg", "new"),
	})
	require.ErrorIs(t, err, mycontent.ErrPersist)
	assert.Contains(t, err.Error(), "inconsistent")

	after, err := f.handler.Get(context.Background(), before.Id)
	require.NoError(t, err)
	assert.Equal(t, before.AssetUrl, after.AssetUrl)
}

func TestHandler_Update_TextOnlyPersistFailure(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	before := f.create(t, nil, "sunset.jpg")
	f.store.OnUpdate = func(ctx context.Context, collection string, ID string, patch map[string]string) (content.Document, error) {
		return content.Document{}, errBoom
	}

	_, err := f.handler.Update(context.Background(), mycontent.UpdateRequest{
		ID:     before.Id,
		Fields: map[string]string{entity.FieldTitle: "Sunset"},
	})
	require.ErrorIs(t, err, mycontent.ErrPersist)

	after, err := f.handler.Get(context.Background(), before.Id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHandler_Delete(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	record := f.create(t, nil, "sunset.jpg")

	result, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: record.Id, Confirmed: true})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, record.Id, result.Record.Id)

	list, err := f.handler.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, f.blobExists(t, record.AssetPath))

	_, err = f.handler.Get(context.Background(), record.Id)
	assert.ErrorIs(t, err, mycontent.ErrNotFound)
}

func TestHandler_Delete_RequiresConfirmation(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	record := f.create(t, nil, "sunset.jpg")

	_, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: record.Id})
	require.ErrorIs(t, err, mycontent.ErrValidation)

	_, err = f.handler.Get(context.Background(), record.Id)
	assert.NoError(t, err)
	assert.True(t, f.blobExists(t, record.AssetPath))
}

func TestHandler_Delete_AssetFailureKeepsRecord(t *testing.T) {
	f := newFixture(t, entity.Banner)
	record := f.create(t, nil, "promo.jpg")
	f.blobs.deleteErr = errBoom

	_, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: record.Id, Confirmed: true})
	require.ErrorIs(t, err, mycontent.ErrDelete)
	assert.ErrorIs(t, err, errBoom)

	list, err := f.handler.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, record, list[0])
}

func TestHandler_Delete_AssetAlreadyGone(t *testing.T) {
	f := newFixture(t, entity.Banner)
	record := f.create(t, nil, "promo.jpg")
	_, err := f.blobs.Repository.Delete(context.Background(), record.AssetPath)
	require.NoError(t, err)

	_, err = f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: record.Id, Confirmed: true})
	require.NoError(t, err)

	n, err := f.handler.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_Delete_Legacy(t *testing.T) {
	f := newFixture(t, entity.Banner)

	legacyPath := "banners/1600000000000-legacy.jpg"
	_, err := f.blobs.Repository.Upload(context.Background(), legacyPath, "image/jpeg", strings.NewReader("old"), 3)
	require.NoError(t, err)

	f.memory.Seed(entity.Banner.Collection, content.Document{
		ID:        "resolvable",
		CreatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Fields:    map[string]string{entity.FieldAssetURL: blob.ObjectURL(testBaseURL, legacyPath) + "&token=abc"},
	})
	f.memory.Seed(entity.Banner.Collection, content.Document{
		ID:        "unresolvable",
		CreatedAt: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		Fields:    map[string]string{entity.FieldAssetURL: "https://example.com/legacy.jpg"},
	})

	result, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: "resolvable", Confirmed: true})
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	assert.False(t, f.blobExists(t, legacyPath))

	result, err = f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: "unresolvable", Confirmed: true})
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1)
	assert.ErrorIs(t, result.Warnings[0], blob.ErrUnresolvablePath)

	n, err := f.handler.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandler_Delete_PersistFailure(t *testing.T) {
	f := newFixture(t, entity.Banner)
	record := f.create(t, nil, "promo.jpg")
	f.store.OnDelete = func(ctx context.Context, collection string, ID string) (content.Document, error) {
		return content.Document{}, errBoom
	}

	_, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: record.Id, Confirmed: true})
	require.ErrorIs(t, err, mycontent.ErrPersist)
	assert.Contains(t, err.Error(), "inconsistent")
	assert.False(t, f.blobExists(t, record.AssetPath))
}

func TestHandler_Delete_NotFound(t *testing.T) {
	f := newFixture(t, entity.Banner)

	_, err := f.handler.Delete(context.Background(), mycontent.DeleteRequest{ID: "missing", Confirmed: true})
	assert.ErrorIs(t, err, mycontent.ErrNotFound)
}

func TestHandler_List(t *testing.T) {
	f := newFixture(t, entity.Banner)

	first := f.create(t, nil, "a.jpg")
	second := f.create(t, nil, "b.jpg")
	third := f.create(t, nil, "c.jpg")

	f.memory.Seed(entity.Banner.Collection, content.Document{
		ID:        "no-asset",
		CreatedAt: time.Now().Add(time.Hour),
		Fields:    map[string]string{},
	})

	list, err := f.handler.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{third.Id, second.Id, first.Id}, []string{list[0].Id, list[1].Id, list[2].Id})
	for i := 1; i < len(list); i++ {
		assert.True(t, list[i-1].CreatedAt.After(list[i].CreatedAt))
	}
}

func TestHandler_Download(t *testing.T) {
	f := newFixture(t, entity.GalleryItem)
	record := f.create(t, nil, "sunset.jpg")

	reader, data, err := f.handler.Download(context.Background(), record.Id)
	require.NoError(t, err)
	defer reader.Close()

	var buf bytes.Buffer
	_, err = io.Copy(&buf, reader)
	require.NoError(t, err)
	assert.Equal(t, "image-bytes-sunset.jpg", buf.String())
	assert.Equal(t, record.AssetPath, data.Path)

	_, err = f.blobs.Repository.Delete(context.Background(), record.AssetPath)
	require.NoError(t, err)

	_, _, err = f.handler.Download(context.Background(), record.Id)
	assert.ErrorIs(t, err, mycontent.ErrNotFound)
}

func Test_baseName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "a.jpg", want: "a.jpg"},
		{name: "unix dir", in: "/home/me/a.jpg", want: "a.jpg"},
		{name: "windows dir", in: `C:\Users\me\a.jpg`, want: "a.jpg"},
		{name: "spaces kept", in: "my photo.jpg", want: "my photo.jpg"},
		{name: "empty", in: "", want: "asset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := baseName(tt.in); got != tt.want {
				t.Errorf("baseName() = %v, want %v", got, tt.want)
			}
		})
	}
}
