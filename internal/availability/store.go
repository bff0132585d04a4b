package availability

import (
	"context"

	"github.com/gloriamundo/gloriamundo/internal/model"
	"github.com/gloriamundo/gloriamundo/internal/op"
)

// Store is the persisted catalog.
type Store interface {
	ActiveIDs(ctx context.Context) ([]string, error)
	Sync(ctx context.Context, models []model.ModelDescriptor) (model.CatalogSyncResult, error)
	Describe(id string) (model.ModelDescriptor, bool)
}

// Fetcher lists the upstream catalog.
type Fetcher interface {
	FetchCatalog(ctx context.Context) ([]model.ModelDescriptor, error)
}

// DBStore is the Store backed by the op package.
type DBStore struct{}

func (DBStore) ActiveIDs(ctx context.Context) ([]string, error) {
	return op.CatalogActiveIDs(ctx)
}

func (DBStore) Sync(ctx context.Context, models []model.ModelDescriptor) (model.CatalogSyncResult, error) {
	return op.CatalogSync(ctx, models)
}

func (DBStore) Describe(id string) (model.ModelDescriptor, bool) {
	return op.CatalogGet(id)
}
