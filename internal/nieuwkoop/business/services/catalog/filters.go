package catalog

import (
	"sort"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models"
)

type predicate func(p models.CatalogProduct) bool

var plantingKeywords = map[models.PlantingSystem][]string{
	models.PlantingSoil:       {"vulkastrat", "soil"},
	models.PlantingHydro:      {"hydro"},
	models.PlantingArtificial: {"artificial", "glued"},
}

// inMemoryPredicates собирает фильтры в фиксированном порядке:
// бренд, наличие, размещение, цвет, система посадки, высота, ширина.
func inMemoryPredicates(f models.CatalogFilter) []predicate {
	var preds []predicate
	if len(f.Brands) > 0 {
		preds = append(preds, brandPredicate(f.Brands))
	}
	if f.InStock {
		preds = append(preds, func(p models.CatalogProduct) bool {
			return p.CurrentStock > 0 && p.StockStatus != models.StockOut
		})
	}
	if len(f.Locations) > 0 {
		preds = append(preds, locationPredicate(f.Locations))
	}
	if len(f.Colors) > 0 {
		preds = append(preds, colourPredicate(f.Colors))
	}
	if len(f.PlantingSystems) > 0 {
		preds = append(preds, plantingPredicate(f.PlantingSystems))
	}
	if f.Height.Set() {
		r := f.Height
		preds = append(preds, func(p models.CatalogProduct) bool {
			h := p.Specifications.Dimensions.Height
			return h != nil && r.Contains(*h)
		})
	}
	if f.Width.Set() {
		r := f.Width
		preds = append(preds, func(p models.CatalogProduct) bool {
			w := p.Specifications.Dimensions.Width
			return w != nil && r.Contains(*w)
		})
	}
	return preds
}

func applyPredicates(products []models.CatalogProduct, preds []predicate) []models.CatalogProduct {
	for _, pred := range preds {
		kept := products[:0:0]
		for _, p := range products {
			if pred(p) {
				kept = append(kept, p)
			}
		}
		products = kept
	}
	return products
}

func brandPredicate(brands []string) predicate {
	return func(p models.CatalogProduct) bool {
		return containsFold(brands, p.Specifications.Brand())
	}
}

func locationPredicate(locations []string) predicate {
	return func(p models.CatalogProduct) bool {
		loc := strings.ToLower(p.Specifications.Location)
		if loc == "" {
			return false
		}
		for _, l := range locations {
			if l = strings.ToLower(strings.TrimSpace(l)); l != "" && strings.Contains(loc, l) {
				return true
			}
		}
		return false
	}
}

func colourPredicate(colours []string) predicate {
	return func(p models.CatalogProduct) bool {
		tagged := p.Specifications.Colours()
		desc := strings.ToLower(p.Description)
		for _, c := range colours {
			c = strings.TrimSpace(c)
			if c == "" {
				continue
			}
			if containsFold(tagged, c) || strings.Contains(desc, strings.ToLower(c)) {
				return true
			}
		}
		return false
	}
}

func plantingPredicate(systems []models.PlantingSystem) predicate {
	return func(p models.CatalogProduct) bool {
		desc := strings.ToLower(p.Description)
		for _, s := range systems {
			for _, kw := range plantingKeywords[s] {
				if strings.Contains(desc, kw) {
					return true
				}
			}
		}
		return false
	}
}

// sortOffers ставит акционные товары первыми, внутри групп - по имени.
func sortOffers(products []models.CatalogProduct) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if a.Specifications.IsOffer != b.Specifications.IsOffer {
			return a.Specifications.IsOffer
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}

func containsFold(set []string, v string) bool {
	if v == "" {
		return false
	}
	for _, s := range set {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}
