package clients

import (
	"fmt"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
)

const (
	PolicyStockItems = "stock_items"
	PolicyWebshop    = "webshop"
)

// VisibilityPolicy решает, попадает ли запись поставщика в выдачу GetProducts.
type VisibilityPolicy interface {
	Keep(item response.Item) bool
}

type VisibilityPolicyFunc func(item response.Item) bool

func (f VisibilityPolicyFunc) Keep(item response.Item) bool { return f(item) }

// DefaultVisibilityPolicy drops items that are not flagged as stock items even when
// they are visible and active. Product owners are aware; replace the policy on the
// client to include them.
var DefaultVisibilityPolicy VisibilityPolicy = VisibilityPolicyFunc(func(item response.Item) bool {
	return item.ShowOnWebsite && item.ItemStatus == "A" && item.IsStockItem
})

// WebshopVisibilityPolicy keeps every visible active item regardless of IsStockItem.
var WebshopVisibilityPolicy VisibilityPolicy = VisibilityPolicyFunc(func(item response.Item) bool {
	return item.ShowOnWebsite && item.ItemStatus == "A"
})

// VisibilityPolicyByName выбирает политику по ключу конфигурации nieuwkoop.visibility_policy.
// Пустое имя означает политику по умолчанию.
func VisibilityPolicyByName(name string) (VisibilityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyStockItems:
		return DefaultVisibilityPolicy, nil
	case PolicyWebshop:
		return WebshopVisibilityPolicy, nil
	}
	return nil, fmt.Errorf("unknown visibility policy %q (want %s or %s)", name, PolicyStockItems, PolicyWebshop)
}
