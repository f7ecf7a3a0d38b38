package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/internal/nieuwkoop/pkg/clients"
	"bloommarbella_api/internal/nieuwkoop/storage/memory"
	"bloommarbella_api/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stockMock struct {
	mock.Mock
}

func (m *stockMock) GetStock(ctx context.Context, itemCode string) clients.Result[response.StockInfo] {
	args := m.Called(ctx, itemCode)
	return args.Get(0).(clients.Result[response.StockInfo])
}

func stockOK(n int) clients.Result[response.StockInfo] {
	return clients.Result[response.StockInfo]{Success: true, Data: response.StockInfo{StockAvailable: n}}
}

func stockFail() clients.Result[response.StockInfo] {
	return clients.Result[response.StockInfo]{Success: false, Error: "request timed out"}
}

func newFixture(t *testing.T) (*Cache, *stockMock, *fakeClock) {
	t.Helper()
	store := memory.NewStore()
	p := models.Product{SKU: "SKU-1", ItemCode: "SKU-1", Slug: "pot-sku-1", Name: "Pot", BasePrice: 19.99, Stock: 8}
	require.NoError(t, store.Create(context.Background(), &p))

	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	stock := &stockMock{}
	return NewCache(stock, store, 5*time.Minute, clock, logger.Discard()), stock, clock
}

func TestGetRealtimePriceStock_MissUsesStoredPriceAndFreshStock(t *testing.T) {
	cache, stock, clock := newFixture(t)
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockOK(3)).Once()

	e, err := cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)

	assert.Equal(t, 19.99, e.Price)
	assert.Equal(t, 3, e.Stock)
	assert.Equal(t, clock.Now(), e.Timestamp)
	assert.False(t, e.Stale)
	assert.Equal(t, 1, cache.Stats().Entries)
	stock.AssertExpectations(t)
}

func TestGetRealtimePriceStock_FreshnessBoundary(t *testing.T) {
	cache, stock, clock := newFixture(t)
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockOK(3)).Once()
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockOK(9)).Once()

	_, err := cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)

	clock.Advance(4*time.Minute + 59*time.Second)
	e, err := cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 3, e.Stock, "entry younger than ttl is served from cache")
	stock.AssertNumberOfCalls(t, "GetStock", 1)

	clock.Advance(2 * time.Second)
	e, err = cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 9, e.Stock)
	stock.AssertNumberOfCalls(t, "GetStock", 2)
}

func TestGetRealtimePriceStock_FallbackIsNotCached(t *testing.T) {
	cache, stock, _ := newFixture(t)
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockFail()).Once()
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockOK(1)).Once()

	e, err := cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 19.99, e.Price)
	assert.Equal(t, 8, e.Stock)
	assert.True(t, e.Stale)
	assert.Equal(t, 0, cache.Stats().Entries)

	e, err = cache.GetRealtimePriceStock(context.Background(), "SKU-1")
	require.NoError(t, err)
	assert.Equal(t, 1, e.Stock)
	stock.AssertExpectations(t)
}

func TestGetRealtimePriceStock_UnknownSKUAndSupplierDown(t *testing.T) {
	cache, stock, _ := newFixture(t)
	stock.On("GetStock", mock.Anything, "NOPE").Return(stockFail())

	_, err := cache.GetRealtimePriceStock(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestSweep(t *testing.T) {
	cache, _, clock := newFixture(t)
	cache.Set("old", Entry{Price: 1, Stock: 1})
	clock.Advance(3 * time.Minute)
	cache.Set("new", Entry{Price: 2, Stock: 2})
	clock.Advance(2*time.Minute + time.Second)

	assert.Equal(t, 1, cache.CleanExpiredCache())
	_, ok := cache.Get("old")
	assert.False(t, ok)
	e, ok := cache.Get("new")
	assert.True(t, ok)
	assert.Equal(t, 2, e.Stock)
}

func TestGetEvictsExpired(t *testing.T) {
	cache, _, clock := newFixture(t)
	cache.Set("a", Entry{Stock: 1})
	clock.Advance(5 * time.Minute)

	_, ok := cache.Get("a")
	assert.False(t, ok, "an entry exactly ttl old is expired")
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestConcurrentAccess(t *testing.T) {
	cache, stock, _ := newFixture(t)
	stock.On("GetStock", mock.Anything, "SKU-1").Return(stockOK(4))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := cache.GetRealtimePriceStock(context.Background(), "SKU-1")
			assert.NoError(t, err)
			assert.Equal(t, 4, e.Stock)
			cache.Sweep()
		}()
	}
	wg.Wait()
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	cache, _, _ := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, cache.RunJanitor(ctx, time.Millisecond))
}
