package clients

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/pkg/logger"
	"bloommarbella_api/pkg/middleware"
)

const sysModifiedLayout = "2006-01-02"

// Result - единый ответ клиента поставщика: либо Data, либо Error.
type Result[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Success: false, Error: err.Error()}
}

type ProductsQuery struct {
	SysModified time.Time
	ItemCode    string
}

type BatchPlan struct {
	Items      []response.Item `json:"items"`
	TotalItems int             `json:"totalItems"`
	BatchSize  int             `json:"batchSize"`
	BatchCount int             `json:"batchCount"`
}

// Batches режет Items на последовательные пачки по BatchSize.
func (p BatchPlan) Batches() [][]response.Item {
	if p.BatchSize <= 0 || len(p.Items) == 0 {
		return nil
	}
	batches := make([][]response.Item, 0, p.BatchCount)
	for i := 0; i < len(p.Items); i += p.BatchSize {
		end := i + p.BatchSize
		if end > len(p.Items) {
			end = len(p.Items)
		}
		batches = append(batches, p.Items[i:end])
	}
	return batches
}

type NieuwkoopClient struct {
	*BaseClient
	Policy VisibilityPolicy
	log    logger.Logger
}

func NewNieuwkoopClient(apiURL string, timeout time.Duration, auth AuthEngine, log logger.Logger, mws ...middleware.Middleware) *NieuwkoopClient {
	return &NieuwkoopClient{
		BaseClient: NewBaseClient(apiURL, timeout, auth, log, mws...),
		Policy:     DefaultVisibilityPolicy,
		log:        log,
	}
}

// GetProducts возвращает записи, изменённые начиная с query.SysModified,
// отфильтрованные через Policy.
func (c *NieuwkoopClient) GetProducts(ctx context.Context, query ProductsQuery) Result[[]response.Item] {
	if query.SysModified.IsZero() {
		return fail[[]response.Item](fmt.Errorf("sysmodified is required"))
	}

	params := url.Values{}
	params.Set("sysmodified", query.SysModified.UTC().Format(sysModifiedLayout))
	if query.ItemCode != "" {
		params.Set("itemCode", query.ItemCode)
	}

	var items []response.Item
	if err := c.get(ctx, "/items", params, &items); err != nil {
		return fail[[]response.Item](err)
	}

	policy := c.Policy
	if policy == nil {
		policy = DefaultVisibilityPolicy
	}
	kept := make([]response.Item, 0, len(items))
	for _, item := range items {
		if policy.Keep(item) {
			kept = append(kept, item)
		}
	}
	c.log.Log("fetched %d items since %s, %d kept after visibility filter",
		len(items), params.Get("sysmodified"), len(kept))

	return ok(kept)
}

// GetProductsInBatches делает один запрос и описывает, как разбить результат на пачки.
func (c *NieuwkoopClient) GetProductsInBatches(ctx context.Context, query ProductsQuery, batchSize int) Result[BatchPlan] {
	if batchSize <= 0 {
		return fail[BatchPlan](fmt.Errorf("batch size must be positive, got %d", batchSize))
	}
	res := c.GetProducts(ctx, query)
	if !res.Success {
		return fail[BatchPlan](fmt.Errorf("%s", res.Error))
	}
	return ok(BatchPlan{
		Items:      res.Data,
		TotalItems: len(res.Data),
		BatchSize:  batchSize,
		BatchCount: (len(res.Data) + batchSize - 1) / batchSize,
	})
}

func (c *NieuwkoopClient) GetStock(ctx context.Context, itemCode string) Result[response.StockInfo] {
	var stock []response.StockInfo
	if err := c.lookup(ctx, "/stock", itemCode, &stock); err != nil {
		return fail[response.StockInfo](err)
	}
	for _, s := range stock {
		if strings.EqualFold(s.Itemcode, itemCode) {
			return ok(s)
		}
	}
	return fail[response.StockInfo](fmt.Errorf("no stock record for item %s", itemCode))
}

func (c *NieuwkoopClient) GetPrice(ctx context.Context, itemCode string) Result[response.PriceInfo] {
	var prices []response.PriceInfo
	if err := c.lookup(ctx, "/prices", itemCode, &prices); err != nil {
		return fail[response.PriceInfo](err)
	}
	for _, p := range prices {
		if strings.EqualFold(p.Itemcode, itemCode) {
			return ok(p)
		}
	}
	return fail[response.PriceInfo](fmt.Errorf("no price record for item %s", itemCode))
}

// Ping проверяет доступность API поставщика и корректность учетных данных.
func (c *NieuwkoopClient) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("sysmodified", time.Now().UTC().Format(sysModifiedLayout))
	var items []response.Item
	return c.get(ctx, "/items", params, &items)
}

func (c *NieuwkoopClient) lookup(ctx context.Context, endpoint, itemCode string, out interface{}) error {
	if itemCode == "" {
		return fmt.Errorf("item code is required")
	}
	params := url.Values{}
	params.Set("itemCode", itemCode)
	return c.get(ctx, endpoint, params, out)
}
