package storage

import (
	"fmt"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models"

	"github.com/lib/pq"
)

const productColumns = `id, item_code, sku, slug, name, description, category, subcategory,
	base_price, stock, images, specifications, active, sysmodified, created_at, updated_at`

// buildWhere собирает WHERE и аргументы; плейсхолдеры нумеруются с $1.
func buildWhere(q ProductQuery) (string, []interface{}) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ActiveOnly {
		conds = append(conds, "active = TRUE")
	}
	if q.Category != "" {
		conds = append(conds, "category = "+arg(q.Category))
	}
	if len(q.Categories) > 0 {
		p := arg(pq.Array(q.Categories))
		conds = append(conds, fmt.Sprintf("(category = ANY(%s) OR subcategory = ANY(%s))", p, p))
	}
	if len(q.AdvancedCategories) > 0 {
		p := arg(pq.Array(q.AdvancedCategories))
		conds = append(conds, fmt.Sprintf("(category = ANY(%s) OR subcategory = ANY(%s))", p, p))
	}
	if q.MinBasePrice != nil {
		conds = append(conds, "base_price >= "+arg(*q.MinBasePrice))
	}
	if q.MaxBasePrice != nil {
		conds = append(conds, "base_price <= "+arg(*q.MaxBasePrice))
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		p := arg("%" + escapeLike(term) + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %s OR description ILIKE %s OR sku ILIKE %s)", p, p, p))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func orderBy(q ProductQuery) string {
	dir := "ASC"
	if q.SortOrder == models.SortDesc {
		dir = "DESC"
	}
	switch q.SortBy {
	case models.SortByPrice:
		return fmt.Sprintf(" ORDER BY base_price %s, sku ASC", dir)
	case models.SortByCreatedAt:
		return fmt.Sprintf(" ORDER BY created_at %s, sku ASC", dir)
	case models.SortByOffer:
		return " ORDER BY COALESCE((specifications->>'isOffer')::boolean, FALSE) DESC, name ASC, sku ASC"
	default:
		return fmt.Sprintf(" ORDER BY name %s, sku ASC", dir)
	}
}

func buildFindQuery(q ProductQuery) (string, []interface{}) {
	where, args := buildWhere(q)
	query := "SELECT " + productColumns + " FROM nieuwkoop.products" + where + orderBy(q)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

func buildCountQuery(q ProductQuery) (string, []interface{}) {
	where, args := buildWhere(q)
	return "SELECT COUNT(*) FROM nieuwkoop.products" + where, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
