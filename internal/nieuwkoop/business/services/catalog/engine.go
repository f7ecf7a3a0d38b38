package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"bloommarbella_api/config/values"
	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/services/pricing"
	"bloommarbella_api/internal/nieuwkoop/business/services/realtime"
	"bloommarbella_api/internal/nieuwkoop/storage"
	"bloommarbella_api/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const overlayWorkers = 8

type PriceStockSource interface {
	GetRealtimePriceStock(ctx context.Context, sku string) (realtime.Entry, error)
}

// Engine отвечает на запросы каталога: кандидаты из хранилища,
// наложение остатков из кэша и фильтрация в памяти.
type Engine struct {
	store  storage.ProductStore
	prices PriceStockSource
	calc   *pricing.Calculator
	values values.CatalogValues
	log    logger.Logger
}

func NewEngine(store storage.ProductStore, prices PriceStockSource, calc *pricing.Calculator, v values.CatalogValues, log logger.Logger) *Engine {
	d := values.DefaultCatalogValues()
	if v.DefaultPageSize <= 0 {
		v.DefaultPageSize = d.DefaultPageSize
	}
	if v.MaxPageSize <= 0 {
		v.MaxPageSize = d.MaxPageSize
	}
	if v.CandidateMultiplier <= 0 {
		v.CandidateMultiplier = d.CandidateMultiplier
	}
	if v.LowStockThreshold <= 0 {
		v.LowStockThreshold = d.LowStockThreshold
	}
	return &Engine{store: store, prices: prices, calc: calc, values: v, log: log}
}

// Normalize выставляет страницу и размер страницы с учётом лимитов.
func (e *Engine) Normalize(f models.CatalogFilter) models.CatalogFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = e.values.DefaultPageSize
	}
	if f.Limit > e.values.MaxPageSize {
		f.Limit = e.values.MaxPageSize
	}
	if f.SortOrder != models.SortDesc {
		f.SortOrder = models.SortAsc
	}
	return f
}

func (e *Engine) storageQuery(f models.CatalogFilter) storage.ProductQuery {
	q := storage.ProductQuery{
		Category:           strings.TrimSpace(f.Category),
		Categories:         f.Categories,
		AdvancedCategories: f.AdvancedCategories,
		Search:             f.Search,
		ActiveOnly:         true,
		SortBy:             f.SortBy,
		SortOrder:          f.SortOrder,
	}
	if f.Price.Min != nil {
		v := e.calc.ToBasePrice(*f.Price.Min)
		q.MinBasePrice = &v
	}
	if f.Price.Max != nil {
		v := e.calc.ToBasePrice(*f.Price.Max)
		q.MaxBasePrice = &v
	}
	return q
}

func (e *Engine) GetProductsWithRealtimeData(ctx context.Context, filter models.CatalogFilter) (models.ProductPage, error) {
	f := e.Normalize(filter)
	if err := validate(f); err != nil {
		return models.ProductPage{}, err
	}

	// 1–2: предикат хранилища; при фильтрах в памяти берём кандидатов с запасом
	q := e.storageQuery(f)
	inMemory := f.NeedsInMemory()
	if inMemory {
		q.Limit = f.Limit * e.values.CandidateMultiplier
	} else {
		q.Offset = (f.Page - 1) * f.Limit
		q.Limit = f.Limit
	}

	candidates, err := e.store.Find(ctx, q)
	if err != nil {
		return models.ProductPage{}, fmt.Errorf("failed to load catalog candidates: %w", err)
	}

	// 3
	products, err := e.overlay(ctx, candidates, pricing.ParseRole(f.Role))
	if err != nil {
		return models.ProductPage{}, err
	}

	// 4
	products = applyPredicates(products, inMemoryPredicates(f))

	// 5
	if f.SortBy == models.SortByOffer {
		sortOffers(products)
	}

	// 6: при фильтрах в памяти total ограничен числом кандидатов
	var total int
	if inMemory {
		total = len(products)
	} else {
		count := q
		count.Offset, count.Limit = 0, 0
		if total, err = e.store.Count(ctx, count); err != nil {
			return models.ProductPage{}, fmt.Errorf("failed to count catalog products: %w", err)
		}
	}

	// 7
	if inMemory {
		products = pageSlice(products, f.Page, f.Limit)
	}

	return models.ProductPage{
		Products:   products,
		Pagination: paginate(f.Page, f.Limit, total),
	}, nil
}

// GetFilterCounts считает товары по категориям и брендам для текущего
// фильтра; собственный фильтр фасета при подсчёте не применяется.
func (e *Engine) GetFilterCounts(ctx context.Context, filter models.CatalogFilter) (models.FilterCounts, error) {
	f := e.Normalize(filter)
	if err := validate(f); err != nil {
		return models.FilterCounts{}, err
	}
	counts := models.FilterCounts{
		Categories: make(map[string]int),
		Brands:     make(map[string]int),
	}

	withoutCategories := f
	withoutCategories.Category = ""
	withoutCategories.Categories = nil
	withoutCategories.AdvancedCategories = nil
	products, err := e.facetCandidates(ctx, withoutCategories)
	if err != nil {
		return models.FilterCounts{}, err
	}
	for _, p := range products {
		if p.Category != "" {
			counts.Categories[p.Category]++
		}
	}

	withoutBrands := f
	withoutBrands.Brands = nil
	products, err = e.facetCandidates(ctx, withoutBrands)
	if err != nil {
		return models.FilterCounts{}, err
	}
	for _, p := range products {
		if brand := p.Specifications.Brand(); brand != "" {
			counts.Brands[brand]++
		}
	}

	return counts, nil
}

func (e *Engine) facetCandidates(ctx context.Context, f models.CatalogFilter) ([]models.CatalogProduct, error) {
	q := e.storageQuery(f)
	q.Limit = f.Limit * e.values.CandidateMultiplier
	candidates, err := e.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load facet candidates: %w", err)
	}

	var products []models.CatalogProduct
	if f.HasAdvanced() {
		if products, err = e.overlay(ctx, candidates, pricing.ParseRole(f.Role)); err != nil {
			return nil, err
		}
	} else {
		products = e.withStoredValues(candidates, pricing.ParseRole(f.Role))
	}
	return applyPredicates(products, inMemoryPredicates(f)), nil
}

func (e *Engine) GetProductBySlug(ctx context.Context, slug, role string) (models.CatalogProduct, error) {
	p, err := e.store.FindBySlug(ctx, slug)
	if err != nil {
		return models.CatalogProduct{}, err
	}
	if !p.Active {
		return models.CatalogProduct{}, models.ErrProductNotFound
	}
	products, err := e.overlay(ctx, []models.Product{p}, pricing.ParseRole(role))
	if err != nil {
		return models.CatalogProduct{}, err
	}
	return products[0], nil
}

// overlay подмешивает актуальные остатки; порядок кандидатов сохраняется.
func (e *Engine) overlay(ctx context.Context, candidates []models.Product, role pricing.Role) ([]models.CatalogProduct, error) {
	out := make([]models.CatalogProduct, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overlayWorkers)
	for i := range candidates {
		i := i
		g.Go(func() error {
			p := candidates[i]
			entry, err := e.prices.GetRealtimePriceStock(gctx, p.SKU)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				e.log.Warn("Realtime lookup for %s failed, using stored values: %v", p.SKU, err)
				entry = realtime.Entry{Price: p.BasePrice, Stock: p.Stock, Timestamp: p.UpdatedAt, Stale: true}
			}
			out[i] = e.annotate(p, entry, role)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("realtime overlay: %w", err)
	}
	return out, nil
}

func (e *Engine) withStoredValues(candidates []models.Product, role pricing.Role) []models.CatalogProduct {
	out := make([]models.CatalogProduct, len(candidates))
	for i, p := range candidates {
		out[i] = e.annotate(p, realtime.Entry{Price: p.BasePrice, Stock: p.Stock, Timestamp: p.UpdatedAt}, role)
	}
	return out
}

func (e *Engine) annotate(p models.Product, entry realtime.Entry, role pricing.Role) models.CatalogProduct {
	display := e.calc.DisplayPrice(entry.Price, role)
	return models.CatalogProduct{
		Product:         p,
		CurrentStock:    entry.Stock,
		CurrentPrice:    entry.Price,
		DisplayPrice:    display,
		DisplayPriceVAT: e.calc.WithVAT(display),
		StockStatus:     e.stockStatus(entry.Stock),
		LastUpdated:     entry.Timestamp,
	}
}

func (e *Engine) stockStatus(stock int) models.StockStatus {
	switch {
	case stock <= 0:
		return models.StockOut
	case stock < e.values.LowStockThreshold:
		return models.StockLow
	}
	return models.StockIn
}

func validate(f models.CatalogFilter) error {
	// page*limit должен помещаться в int, иначе смещение переполнится
	if f.Limit > 0 && f.Page > math.MaxInt/f.Limit {
		return fmt.Errorf("%w: page %d is out of range", models.ErrInvalidFilter, f.Page)
	}
	for name, r := range map[string]models.Range{"price": f.Price, "height": f.Height, "width": f.Width} {
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("%w: %s min is greater than max", models.ErrInvalidFilter, name)
		}
	}
	switch f.SortBy {
	case "", models.SortByName, models.SortByPrice, models.SortByCreatedAt, models.SortByOffer:
	default:
		return fmt.Errorf("%w: unknown sort %q", models.ErrInvalidFilter, f.SortBy)
	}
	for _, s := range f.PlantingSystems {
		if _, ok := plantingKeywords[s]; !ok {
			return fmt.Errorf("%w: unknown planting system %q", models.ErrInvalidFilter, s)
		}
	}
	return nil
}

func pageSlice(products []models.CatalogProduct, page, limit int) []models.CatalogProduct {
	start := (page - 1) * limit
	if start < 0 || start >= len(products) {
		return []models.CatalogProduct{}
	}
	end := start + limit
	if end > len(products) {
		end = len(products)
	}
	return products[start:end]
}

func paginate(page, limit, total int) models.Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return models.Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}

// IsNotFound сообщает, что товара нет или он скрыт с витрины.
func IsNotFound(err error) bool {
	return errors.Is(err, models.ErrProductNotFound)
}
