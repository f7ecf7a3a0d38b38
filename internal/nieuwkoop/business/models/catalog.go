package models

import (
	"errors"
	"time"
)

var ErrInvalidFilter = errors.New("invalid catalog filter")

type SortBy string

const (
	SortByName      SortBy = "name"
	SortByPrice     SortBy = "price"
	SortByCreatedAt SortBy = "createdAt"
	SortByOffer     SortBy = "offer"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type PlantingSystem string

const (
	PlantingSoil       PlantingSystem = "soil"
	PlantingHydro      PlantingSystem = "hydro"
	PlantingArtificial PlantingSystem = "artificial"
)

type StockStatus string

const (
	StockOut StockStatus = "out_of_stock"
	StockLow StockStatus = "low_stock"
	StockIn  StockStatus = "in_stock"
)

type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) Set() bool { return r.Min != nil || r.Max != nil }

func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// CatalogFilter - состояние фильтра одного запроса каталога.
type CatalogFilter struct {
	Category           string           `json:"category,omitempty"`
	Categories         []string         `json:"categories,omitempty"`
	AdvancedCategories []string         `json:"advancedCategories,omitempty"`
	Brands             []string         `json:"brands,omitempty"`
	Search             string           `json:"search,omitempty"`
	Price              Range            `json:"price"` // display price
	Height             Range            `json:"height"`
	Width              Range            `json:"width"`
	Locations          []string         `json:"locations,omitempty"`
	Colors             []string         `json:"colors,omitempty"`
	PlantingSystems    []PlantingSystem `json:"plantingSystems,omitempty"`
	InStock            bool             `json:"inStock,omitempty"`
	SortBy             SortBy           `json:"sortBy,omitempty"`
	SortOrder          SortOrder        `json:"sortOrder,omitempty"`
	Page               int              `json:"page,omitempty"`
	Limit              int              `json:"limit,omitempty"`
	Role               string           `json:"-"`
}

// HasAdvanced reports filters that can only be evaluated after the realtime overlay.
func (f CatalogFilter) HasAdvanced() bool {
	return f.InStock || len(f.Locations) > 0 || len(f.Colors) > 0 ||
		len(f.PlantingSystems) > 0 || f.Height.Set() || f.Width.Set()
}

func (f CatalogFilter) NeedsInMemory() bool {
	return len(f.Brands) > 0 || f.HasAdvanced()
}

type CatalogProduct struct {
	Product
	CurrentStock    int         `json:"currentStock"`
	CurrentPrice    float64     `json:"currentPrice"`
	DisplayPrice    float64     `json:"displayPrice"`
	DisplayPriceVAT float64     `json:"displayPriceVat"`
	StockStatus     StockStatus `json:"stockStatus"`
	LastUpdated     time.Time   `json:"lastUpdated"`
}

type Pagination struct {
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	Total       int  `json:"total"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

type ProductPage struct {
	Products   []CatalogProduct `json:"products"`
	Pagination Pagination       `json:"pagination"`
}

type FilterCounts struct {
	Categories map[string]int `json:"categories"`
	Brands     map[string]int `json:"brands"`
}
