package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/internal/nieuwkoop/pkg/clients"
	"bloommarbella_api/internal/nieuwkoop/storage"
	"bloommarbella_api/metrics"
	"bloommarbella_api/pkg/logger"

	"github.com/google/uuid"
)

const MaxErrorSamples = 50

// EpochFloor - нижняя граница sysmodified для полной синхронизации.
var EpochFloor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type ProductSource interface {
	GetProductsInBatches(ctx context.Context, query clients.ProductsQuery, batchSize int) clients.Result[clients.BatchPlan]
}

type RecordTransformer interface {
	Transform(item response.Item) (models.Product, error)
	Slug(name, itemCode string) string
}

type BatchConfig struct {
	BatchSize             int
	PauseBetweenBatches   time.Duration
	EnableProgressLogging bool
}

type Result struct {
	Fetched         int                  `json:"fetched"`
	Processed       int                  `json:"processed"`
	NewProducts     int                  `json:"newProducts"`
	UpdatedProducts int                  `json:"updatedProducts"`
	Unchanged       int                  `json:"unchanged"`
	Errors          int                  `json:"errors"`
	ErrorDetails    []models.RecordError `json:"errorDetails,omitempty"`
}

func (r *Result) addError(sku string, err error) {
	r.Errors++
	if len(r.ErrorDetails) < MaxErrorSamples {
		r.ErrorDetails = append(r.ErrorDetails, models.RecordError{SKU: sku, Error: err.Error()})
	}
}

type outcome int

const (
	outcomeNew outcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// Engine выполняет один проход инкрементальной синхронизации.
// Проходы не должны выполняться параллельно; за это отвечает Runner.
type Engine struct {
	source      ProductSource
	products    storage.ProductStore
	checkpoints storage.SyncStore
	transformer RecordTransformer
	log         logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(source ProductSource, products storage.ProductStore, checkpoints storage.SyncStore, transformer RecordTransformer, log logger.Logger) *Engine {
	return &Engine{
		source:      source,
		products:    products,
		checkpoints: checkpoints,
		transformer: transformer,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		sleep:       sleepContext,
	}
}

// SyncChanges забирает записи, изменённые начиная с since (nil - с EpochFloor),
// и построчно сохраняет их. Ошибка возвращается только при сбое загрузки,
// отмене контекста или записи контрольной точки.
func (e *Engine) SyncChanges(ctx context.Context, since *time.Time, cfg BatchConfig) (Result, error) {
	var res Result
	if cfg.BatchSize <= 0 {
		return res, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}

	watermark := EpochFloor
	if since != nil && !since.IsZero() {
		watermark = since.UTC()
	}
	started := e.now()

	plan := e.source.GetProductsInBatches(ctx, clients.ProductsQuery{SysModified: watermark}, cfg.BatchSize)
	if !plan.Success {
		return res, fmt.Errorf("failed to fetch supplier products: %s", plan.Error)
	}
	res.Fetched = plan.Data.TotalItems
	e.log.Log("Fetched %d products modified since %s in %d batches",
		plan.Data.TotalItems, watermark.Format(time.DateOnly), plan.Data.BatchCount)

	batches := plan.Data.Batches()
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("sync cancelled before batch %d/%d: %w", i+1, len(batches), err)
		}

		e.processBatch(ctx, batch, &res)

		if cfg.EnableProgressLogging {
			e.log.Log("Batch %d/%d done: %d/%d processed, %d new, %d updated, %d errors",
				i+1, len(batches), res.Processed, res.Fetched, res.NewProducts, res.UpdatedProducts, res.Errors)
		}

		if i < len(batches)-1 && cfg.PauseBetweenBatches > 0 {
			if err := e.sleep(ctx, cfg.PauseBetweenBatches); err != nil {
				return res, fmt.Errorf("sync cancelled between batches: %w", err)
			}
		}
	}

	metrics.RecordSyncRecords(res.NewProducts, res.UpdatedProducts, res.Unchanged, res.Errors)

	status := models.SyncStatusSuccess
	if res.Errors > 0 {
		status = models.SyncStatusPartial
	}
	if err := e.checkpoints.UpsertCheckpoint(ctx, models.SyncCheckpoint{
		Key:      models.CheckpointKey,
		LastSync: started,
		Status:   status,
	}); err != nil {
		return res, fmt.Errorf("failed to store sync checkpoint: %w", err)
	}

	return res, nil
}

func (e *Engine) processBatch(ctx context.Context, batch []response.Item, res *Result) {
	for _, item := range batch {
		res.Processed++
		out, err := e.upsert(ctx, item)
		if err != nil {
			e.log.Warn("Failed to sync item %s: %v", item.Itemcode, err)
			res.addError(item.Itemcode, err)
			continue
		}
		switch out {
		case outcomeNew:
			res.NewProducts++
		case outcomeUpdated:
			res.UpdatedProducts++
		case outcomeUnchanged:
			res.Unchanged++
		}
	}
}

func (e *Engine) upsert(ctx context.Context, item response.Item) (outcome, error) {
	product, err := e.transformer.Transform(item)
	if err != nil {
		return 0, err
	}

	existing, err := e.products.FindBySKU(ctx, product.SKU)
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		product.ID = uuid.New()
		product.Slug = e.transformer.Slug(product.Name, product.ItemCode)
		if err := e.products.Create(ctx, &product); err != nil {
			return 0, err
		}
		return outcomeNew, nil
	case err != nil:
		return 0, fmt.Errorf("lookup: %w", err)
	}

	product.ID = existing.ID
	product.Slug = existing.Slug
	product.CreatedAt = existing.CreatedAt
	if existing.SameContent(product) {
		return outcomeUnchanged, nil
	}
	if err := e.products.Update(ctx, &product); err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
