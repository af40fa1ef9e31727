package lastlogin

import (
	"context"
	"sync"
	"time"

	types "github.com/desain-gratis/media-console/types/http"
)

var _ Repository = &inMemory{}

// Repository remembers when each user last signed in
type Repository interface {
	// Get the last sign in, zero time if never
	Get(ctx context.Context, userID string) (at time.Time, errUC *types.CommonError)
	Set(ctx context.Context, userID string, at time.Time) (errUC *types.CommonError)
}

type inMemory struct {
	mtx  *sync.Mutex
	data map[string]time.Time
}

// NewInMemory for a single instance console, forgotten on restart
func NewInMemory() *inMemory {
	return &inMemory{
		mtx:  &sync.Mutex{},
		data: make(map[string]time.Time),
	}
}

func (m *inMemory) Get(ctx context.Context, userID string) (time.Time, *types.CommonError) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.data[userID], nil
}

func (m *inMemory) Set(ctx context.Context, userID string, at time.Time) *types.CommonError {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.data[userID] = at
	return nil
}
