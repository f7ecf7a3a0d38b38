package handlers

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models"
)

// parseFilter читает фильтр каталога из query-параметров.
// Списки принимаются как повторяющиеся параметры или через запятую.
func parseFilter(q url.Values) (models.CatalogFilter, error) {
	f := models.CatalogFilter{
		Category:           strings.TrimSpace(q.Get("category")),
		Categories:         list(q, "categories"),
		AdvancedCategories: list(q, "advancedCategories"),
		Brands:             list(q, "brands"),
		Search:             strings.TrimSpace(q.Get("search")),
		Locations:          list(q, "locations"),
		Colors:             list(q, "colors"),
		SortBy:             models.SortBy(q.Get("sortBy")),
		SortOrder:          models.SortOrder(strings.ToLower(q.Get("sortOrder"))),
	}
	for _, s := range list(q, "plantingSystems") {
		f.PlantingSystems = append(f.PlantingSystems, models.PlantingSystem(strings.ToLower(s)))
	}

	var err error
	if f.Price, err = rangeParam(q, "minPrice", "maxPrice"); err != nil {
		return f, err
	}
	if f.Height, err = rangeParam(q, "minHeight", "maxHeight"); err != nil {
		return f, err
	}
	if f.Width, err = rangeParam(q, "minWidth", "maxWidth"); err != nil {
		return f, err
	}
	if v := q.Get("inStock"); v != "" {
		if f.InStock, err = strconv.ParseBool(v); err != nil {
			return f, fmt.Errorf("%w: inStock must be a boolean", models.ErrInvalidFilter)
		}
	}
	if f.Page, err = intParam(q, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = intParam(q, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func list(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func rangeParam(q url.Values, minKey, maxKey string) (models.Range, error) {
	var r models.Range
	for _, p := range []struct {
		key string
		dst **float64
	}{{minKey, &r.Min}, {maxKey, &r.Max}} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return r, fmt.Errorf("%w: %s must be a non-negative number", models.ErrInvalidFilter, p.key)
		}
		*p.dst = &v
	}
	return r, nil
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", models.ErrInvalidFilter, key)
	}
	return v, nil
}
