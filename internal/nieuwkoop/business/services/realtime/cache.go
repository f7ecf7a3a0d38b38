package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/internal/nieuwkoop/pkg/clients"
	"bloommarbella_api/metrics"
	"bloommarbella_api/pkg/logger"
)

const DefaultTTL = 5 * time.Minute

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type StockSource interface {
	GetStock(ctx context.Context, itemCode string) clients.Result[response.StockInfo]
}

// Fallback отдаёт последние сохранённые значения товара.
type Fallback interface {
	FindBySKU(ctx context.Context, sku string) (models.Product, error)
}

type Entry struct {
	Price     float64   `json:"price"`
	Stock     int       `json:"stock"`
	Timestamp time.Time `json:"timestamp"`
	// Stale is set on values served from storage after a supplier failure.
	Stale bool `json:"stale,omitempty"`
}

type Stats struct {
	Entries int           `json:"entries"`
	TTL     time.Duration `json:"ttl"`
}

// Cache - кэш цены и остатка по SKU внутри процесса.
// Цена всегда берётся из хранилища, у поставщика запрашивается только остаток.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	ttl      time.Duration
	clock    Clock
	stock    StockSource
	fallback Fallback
	log      logger.Logger
}

func NewCache(stock StockSource, fallback Fallback, ttl time.Duration, clock Clock, log logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Cache{
		entries:  make(map[string]Entry),
		ttl:      ttl,
		clock:    clock,
		stock:    stock,
		fallback: fallback,
		log:      log,
	}
}

func (c *Cache) fresh(e Entry, now time.Time) bool {
	return now.Sub(e.Timestamp) < c.ttl
}

// Get возвращает только свежую запись; устаревшая удаляется.
func (c *Cache) Get(sku string) (Entry, bool) {
	now := c.clock.Now()
	c.mu.RLock()
	e, ok := c.entries[sku]
	c.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	if c.fresh(e, now) {
		return e, true
	}

	c.mu.Lock()
	if cur, ok := c.entries[sku]; ok && !c.fresh(cur, now) {
		delete(c.entries, sku)
	}
	c.mu.Unlock()
	return Entry{}, false
}

func (c *Cache) Set(sku string, e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = c.clock.Now()
	}
	c.mu.Lock()
	c.entries[sku] = e
	size := len(c.entries)
	c.mu.Unlock()
	metrics.SetCacheEntries(size)
}

// Sweep удаляет устаревшие записи и возвращает их количество.
func (c *Cache) Sweep() int {
	now := c.clock.Now()
	c.mu.Lock()
	removed := 0
	for sku, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, sku)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()
	metrics.SetCacheEntries(size)
	return removed
}

func (c *Cache) CleanExpiredCache() int {
	return c.Sweep()
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Entries: len(c.entries), TTL: c.ttl}
}

// GetRealtimePriceStock отдаёт цену и остаток для SKU. При сбое поставщика
// возвращаются сохранённые значения, которые не кэшируются. Ошибка только
// если SKU нет в хранилище и поставщик недоступен.
func (c *Cache) GetRealtimePriceStock(ctx context.Context, sku string) (Entry, error) {
	if e, ok := c.Get(sku); ok {
		metrics.RecordCacheHit()
		return e, nil
	}
	metrics.RecordCacheMiss()

	stored, storeErr := c.fallback.FindBySKU(ctx, sku)
	if storeErr != nil && !errors.Is(storeErr, models.ErrProductNotFound) {
		return Entry{}, fmt.Errorf("failed to load stored product %s: %w", sku, storeErr)
	}
	known := storeErr == nil

	itemCode := sku
	if known && stored.ItemCode != "" {
		itemCode = stored.ItemCode
	}

	res := c.stock.GetStock(ctx, itemCode)
	if res.Success {
		e := Entry{
			Price:     stored.BasePrice,
			Stock:     max(res.Data.StockAvailable, 0),
			Timestamp: c.clock.Now(),
		}
		c.Set(sku, e)
		return e, nil
	}

	if !known {
		return Entry{}, fmt.Errorf("%w: %s (supplier: %s)", models.ErrProductNotFound, sku, res.Error)
	}
	metrics.RecordCacheFallback()
	c.log.Warn("Stock lookup for %s failed, serving stored values: %s", sku, res.Error)
	return Entry{
		Price:     stored.BasePrice,
		Stock:     stored.Stock,
		Timestamp: stored.UpdatedAt,
		Stale:     true,
	}, nil
}

// RunJanitor периодически чистит кэш до отмены ctx.
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = c.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := c.Sweep(); removed > 0 {
				c.log.Log("Removed %d expired price/stock entries", removed)
			}
		}
	}
}
