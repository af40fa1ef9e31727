package content

import (
	"context"
)

var _ Repository = &Wrapper{}

// Wrapper wraps a repository, overriding only the operations that have a hook.
// Handy to decorate a store or to inject failures.
type Wrapper struct {
	Repository

	OnCreate func(ctx context.Context, collection string, fields map[string]string) (Document, error)
	OnUpdate func(ctx context.Context, collection string, ID string, patch map[string]string) (Document, error)
	OnDelete func(ctx context.Context, collection string, ID string) (Document, error)
}

func (w *Wrapper) Create(ctx context.Context, collection string, fields map[string]string) (Document, error) {
	if w.OnCreate != nil {
		return w.OnCreate(ctx, collection, fields)
	}
	return w.Repository.Create(ctx, collection, fields)
}

func (w *Wrapper) Update(ctx context.Context, collection string, ID string, patch map[string]string) (Document, error) {
	if w.OnUpdate != nil {
		return w.OnUpdate(ctx, collection, ID, patch)
	}
	return w.Repository.Update(ctx, collection, ID, patch)
}

func (w *Wrapper) Delete(ctx context.Context, collection string, ID string) (Document, error) {
	if w.OnDelete != nil {
		return w.OnDelete(ctx, collection, ID)
	}
	return w.Repository.Delete(ctx, collection, ID)
}
