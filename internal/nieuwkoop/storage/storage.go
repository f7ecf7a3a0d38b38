package storage

import (
	"context"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
)

// ProductQuery - предикат выборки товаров на стороне хранилища.
// Все непустые условия объединяются через AND.
type ProductQuery struct {
	Category string
	// Categories - товар подходит, если его category или subcategory входит в список.
	Categories []string
	// AdvancedCategories - то же членство, но отдельным условием.
	AdvancedCategories []string
	MinBasePrice       *float64
	MaxBasePrice       *float64
	Search             string
	ActiveOnly         bool

	SortBy    models.SortBy
	SortOrder models.SortOrder
	Offset    int
	// Limit <= 0 means no limit.
	Limit int
}

type ProductStore interface {
	FindBySKU(ctx context.Context, sku string) (models.Product, error)
	FindBySlug(ctx context.Context, slug string) (models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Find(ctx context.Context, q ProductQuery) ([]models.Product, error)
	Count(ctx context.Context, q ProductQuery) (int, error)
}

type SyncStore interface {
	// GetCheckpoint returns nil when the key was never written.
	GetCheckpoint(ctx context.Context, key string) (*models.SyncCheckpoint, error)
	UpsertCheckpoint(ctx context.Context, cp models.SyncCheckpoint) error
	StartLog(ctx context.Context, entry *models.SyncLogEntry) error
	FinishLog(ctx context.Context, entry *models.SyncLogEntry) error
	// LatestInProgress returns the newest in_progress entry created after since, or nil.
	LatestInProgress(ctx context.Context, since time.Time) (*models.SyncLogEntry, error)
	RecentLogs(ctx context.Context, limit int) ([]models.SyncLogEntry, error)
}

type Store interface {
	ProductStore
	SyncStore
}
