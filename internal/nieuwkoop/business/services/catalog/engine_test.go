package catalog

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"bloommarbella_api/config/values"
	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/internal/nieuwkoop/business/services/pricing"
	"bloommarbella_api/internal/nieuwkoop/business/services/realtime"
	"bloommarbella_api/internal/nieuwkoop/pkg/clients"
	"bloommarbella_api/internal/nieuwkoop/storage/memory"
	"bloommarbella_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stockTable отвечает остатками по коду; неизвестный код - сбой поставщика.
type stockTable map[string]int

func (s stockTable) GetStock(_ context.Context, itemCode string) clients.Result[response.StockInfo] {
	n, ok := s[itemCode]
	if !ok {
		return clients.Result[response.StockInfo]{Success: false, Error: "non-OK status: 503"}
	}
	return clients.Result[response.StockInfo]{Success: true, Data: response.StockInfo{Itemcode: itemCode, StockAvailable: n}}
}

type fixture struct {
	engine *Engine
	store  *memory.Store
	stock  stockTable
}

func newFixture(t *testing.T, products ...models.Product) *fixture {
	t.Helper()
	store := memory.NewStore()
	for i := range products {
		p := products[i]
		if p.ItemCode == "" {
			p.ItemCode = p.SKU
		}
		if p.Slug == "" {
			p.Slug = "slug-" + p.SKU
		}
		require.NoError(t, store.Create(context.Background(), &p))
	}
	stock := stockTable{}
	cache := realtime.NewCache(stock, store, time.Minute, nil, logger.Discard())
	engine := NewEngine(store, cache, pricing.NewCalculator(values.DefaultPricingValues()), values.DefaultCatalogValues(), logger.Discard())
	return &fixture{engine: engine, store: store, stock: stock}
}

func skus(products []models.CatalogProduct) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU)
	}
	return out
}

func fp(v float64) *float64 { return &v }

func withTags(p models.Product, tags ...models.Tag) models.Product {
	p.Specifications.Tags = tags
	return p
}

func TestEndToEndBrandScenario(t *testing.T) {
	f := newFixture(t,
		models.Product{SKU: "SKU-A", Name: "A", BasePrice: 10, Active: true},
		models.Product{SKU: "SKU-B", Name: "B", BasePrice: 20, Active: false},
		withTags(models.Product{SKU: "SKU-C", Name: "C", BasePrice: 30, Active: true}, models.Tag{Code: "Brand", Value: "Acme"}),
	)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{
		Brands:    []string{"Acme"},
		SortBy:    models.SortByPrice,
		SortOrder: models.SortAsc,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU-C"}, skus(page.Products))
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Equal(t, 1, page.Pagination.TotalPages)
	assert.False(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)
}

func TestInStockExactness(t *testing.T) {
	f := newFixture(t,
		models.Product{SKU: "ZERO", Name: "Zero", BasePrice: 10, Active: true, Stock: 50},
		models.Product{SKU: "LOW", Name: "Low", BasePrice: 10, Active: true},
		models.Product{SKU: "PLENTY", Name: "Plenty", BasePrice: 10, Active: true},
	)
	f.stock["ZERO"] = 0
	f.stock["LOW"] = 3
	f.stock["PLENTY"] = 12

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{InStock: true})
	require.NoError(t, err)

	require.Equal(t, []string{"LOW", "PLENTY"}, skus(page.Products))
	assert.Equal(t, models.StockLow, page.Products[0].StockStatus)
	assert.Equal(t, 3, page.Products[0].CurrentStock)
	assert.Equal(t, models.StockIn, page.Products[1].StockStatus)
	assert.Equal(t, 2, page.Pagination.Total)
}

func TestSupplierFailureFallsBackToStoredStock(t *testing.T) {
	f := newFixture(t, models.Product{SKU: "S1", Name: "Stored", BasePrice: 4, Stock: 6, Active: true})

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{InStock: true})
	require.NoError(t, err)

	require.Len(t, page.Products, 1)
	assert.Equal(t, 6, page.Products[0].CurrentStock)
	assert.Equal(t, 4.0, page.Products[0].CurrentPrice)
	assert.Equal(t, 10.0, page.Products[0].DisplayPrice)
	assert.Equal(t, 12.1, page.Products[0].DisplayPriceVAT)
}

func TestOfferSort(t *testing.T) {
	offer := func(p models.Product) models.Product {
		p.Specifications.IsOffer = true
		return p
	}
	f := newFixture(t,
		models.Product{SKU: "B", Name: "B", Active: true},
		offer(models.Product{SKU: "A", Name: "A", Active: true}),
		offer(models.Product{SKU: "C", Name: "C", Active: true}),
	)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{SortBy: models.SortByOffer})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C", "B"}, skus(page.Products))
}

func TestPageSizeCap(t *testing.T) {
	products := make([]models.Product, 0, 150)
	for i := 0; i < 150; i++ {
		products = append(products, models.Product{SKU: fmt.Sprintf("P%03d", i), Name: fmt.Sprintf("Pot %03d", i), Active: true})
	}
	f := newFixture(t, products...)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{Limit: 1000})
	require.NoError(t, err)

	assert.Len(t, page.Products, 100)
	assert.Equal(t, 100, page.Pagination.Limit)
	assert.Equal(t, 150, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.True(t, page.Pagination.HasNextPage)

	page, err = f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{Limit: 1000, Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Products, 50)
	assert.Equal(t, "P100", page.Products[0].SKU)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestDefaultPageSize(t *testing.T) {
	products := make([]models.Product, 0, 25)
	for i := 0; i < 25; i++ {
		products = append(products, models.Product{SKU: fmt.Sprintf("P%02d", i), Name: fmt.Sprintf("P%02d", i), Active: true})
	}
	f := newFixture(t, products...)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 20)
	assert.Equal(t, 25, page.Pagination.Total)
}

func TestInMemoryPaginationAndCandidateCap(t *testing.T) {
	products := make([]models.Product, 0, 30)
	for i := 0; i < 30; i++ {
		products = append(products, withTags(
			models.Product{SKU: fmt.Sprintf("P%02d", i), Name: fmt.Sprintf("P%02d", i), Active: true},
			models.Tag{Code: "Brand", Value: "Acme"},
		))
	}
	f := newFixture(t, products...)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{
		Brands: []string{"acme"}, Limit: 2, Page: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"P02", "P03"}, skus(page.Products))
	// only limit×10 candidates are considered
	assert.Equal(t, 20, page.Pagination.Total)
	assert.Equal(t, 10, page.Pagination.TotalPages)
}

func TestPriceFilterUsesDisplayPrice(t *testing.T) {
	f := newFixture(t,
		models.Product{SKU: "CHEAP", Name: "Cheap", BasePrice: 10, Active: true},
		models.Product{SKU: "MID", Name: "Mid", BasePrice: 20, Active: true},
		models.Product{SKU: "DEAR", Name: "Dear", BasePrice: 40, Active: true},
	)

	page, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{
		Price: models.Range{Min: fp(40), Max: fp(60)},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"MID"}, skus(page.Products))
}

func TestAdvancedPredicates(t *testing.T) {
	h := func(v float64) models.Dimensions { return models.Dimensions{Height: fp(v), Width: fp(v / 2)} }
	f := newFixture(t,
		models.Product{SKU: "HYDRO", Name: "Hydro plant", Description: "Ficus in hydro culture", Active: true,
			Specifications: models.Specifications{Location: "Indoor", Dimensions: h(80)}},
		models.Product{SKU: "SOIL", Name: "Soil plant", Description: "Olive tree in vulkastrat", Active: true,
			Specifications: models.Specifications{Location: "Outdoor", Dimensions: h(150)}},
		models.Product{SKU: "FAKE", Name: "Fake plant", Description: "Glued artificial moss", Active: true,
			Specifications: models.Specifications{Location: "Indoor / Outdoor", Tags: []models.Tag{{Code: "Colour", Value: "Green"}}}},
		models.Product{SKU: "RED", Name: "Red pot", Description: "Red glazed pot", Active: true,
			Specifications: models.Specifications{Location: "Indoor", Dimensions: h(30)}},
	)
	find := func(filter models.CatalogFilter) []string {
		page, err := f.engine.GetProductsWithRealtimeData(context.Background(), filter)
		require.NoError(t, err)
		return skus(page.Products)
	}

	assert.Equal(t, []string{"HYDRO"}, find(models.CatalogFilter{PlantingSystems: []models.PlantingSystem{models.PlantingHydro}}))
	assert.Equal(t, []string{"SOIL"}, find(models.CatalogFilter{PlantingSystems: []models.PlantingSystem{models.PlantingSoil}}))
	assert.Equal(t, []string{"FAKE"}, find(models.CatalogFilter{PlantingSystems: []models.PlantingSystem{models.PlantingArtificial}}))
	assert.Equal(t, []string{"FAKE", "SOIL"}, find(models.CatalogFilter{Locations: []string{"outdoor"}}))
	assert.Equal(t, []string{"FAKE", "RED"}, find(models.CatalogFilter{Colors: []string{"green", "Red"}}))
	assert.Equal(t, []string{"HYDRO", "RED"}, find(models.CatalogFilter{Height: models.Range{Max: fp(100)}}))
	assert.Equal(t, []string{"SOIL"}, find(models.CatalogFilter{Width: models.Range{Min: fp(50)}}))
	assert.Equal(t, []string{"RED"}, find(models.CatalogFilter{Locations: []string{"indoor"}, Height: models.Range{Max: fp(50)}}))
}

func TestInvalidFilter(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{Price: models.Range{Min: fp(10), Max: fp(5)}})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	_, err = f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{SortBy: "popularity"})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	_, err = f.engine.GetProductsWithRealtimeData(context.Background(), models.CatalogFilter{PlantingSystems: []models.PlantingSystem{"air"}})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)
}

func TestGetFilterCounts(t *testing.T) {
	f := newFixture(t,
		withTags(models.Product{SKU: "1", Name: "1", Category: "Macetas", Active: true}, models.Tag{Code: "Brand", Value: "Acme"}),
		withTags(models.Product{SKU: "2", Name: "2", Category: "Macetas", Active: true}, models.Tag{Code: "Brand", Value: "Elho"}),
		withTags(models.Product{SKU: "3", Name: "3", Category: "Jarrones", Active: true}, models.Tag{Code: "Brand", Value: "Acme"}),
		withTags(models.Product{SKU: "4", Name: "4", Category: "Jarrones", Active: false}, models.Tag{Code: "Brand", Value: "Acme"}),
		models.Product{SKU: "5", Name: "5", Category: "Plantas", Active: true},
	)

	counts, err := f.engine.GetFilterCounts(context.Background(), models.CatalogFilter{
		Categories: []string{"Macetas"},
		Brands:     []string{"Acme"},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"Macetas": 1, "Jarrones": 1}, counts.Categories)
	assert.Equal(t, map[string]int{"Acme": 1, "Elho": 1}, counts.Brands)
}

func TestGetProductBySlug(t *testing.T) {
	f := newFixture(t,
		models.Product{SKU: "S1", Slug: "pot-s1", Name: "Pot", BasePrice: 8, Active: true},
		models.Product{SKU: "S2", Slug: "hidden-s2", Name: "Hidden", Active: false},
	)
	f.stock["S1"] = 2

	p, err := f.engine.GetProductBySlug(context.Background(), "pot-s1", "associate")
	require.NoError(t, err)
	assert.Equal(t, 2, p.CurrentStock)
	assert.Equal(t, models.StockLow, p.StockStatus)
	assert.Equal(t, 16.0, p.DisplayPrice)

	_, err = f.engine.GetProductBySlug(context.Background(), "hidden-s2", "")
	assert.True(t, IsNotFound(err))
	_, err = f.engine.GetProductBySlug(context.Background(), "missing", "")
	assert.True(t, IsNotFound(err))
}

func TestOfferSortAcrossStoragePages(t *testing.T) {
	f := newFixture(t,
		models.Product{SKU: "B", Name: "B", Active: true},
		models.Product{SKU: "D", Name: "D", Active: true},
		models.Product{SKU: "E", Name: "E", Active: true},
		models.Product{SKU: "Z", Name: "Z", Active: true, Specifications: models.Specifications{IsOffer: true}},
	)
	ctx := context.Background()

	first, err := f.engine.GetProductsWithRealtimeData(ctx, models.CatalogFilter{SortBy: models.SortByOffer, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Z", "B"}, skus(first.Products))
	assert.Equal(t, 4, first.Pagination.Total)

	second, err := f.engine.GetProductsWithRealtimeData(ctx, models.CatalogFilter{SortBy: models.SortByOffer, Limit: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"D", "E"}, skus(second.Products))
}

func TestPageBeyondIntRangeRejected(t *testing.T) {
	f := newFixture(t, models.Product{SKU: "A", Name: "A", Active: true})
	f.stock["A"] = 5
	ctx := context.Background()
	huge := 500000000000000001

	_, err := f.engine.GetProductsWithRealtimeData(ctx, models.CatalogFilter{Page: huge, InStock: true})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	_, err = f.engine.GetProductsWithRealtimeData(ctx, models.CatalogFilter{Page: huge})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	_, err = f.engine.GetFilterCounts(ctx, models.CatalogFilter{Page: huge})
	assert.ErrorIs(t, err, models.ErrInvalidFilter)

	// самая дальняя допустимая страница пуста, а не первая
	last := math.MaxInt / 20
	page, err := f.engine.GetProductsWithRealtimeData(ctx, models.CatalogFilter{Page: last, InStock: true})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, last, page.Pagination.Page)
}

func TestPageSliceNegativeStart(t *testing.T) {
	products := []models.CatalogProduct{{Product: models.Product{SKU: "A"}}}
	assert.Empty(t, pageSlice(products, 0, 20))
	assert.Empty(t, pageSlice(products, math.MaxInt, 20))
}
