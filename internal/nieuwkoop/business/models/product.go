package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrProductNotFound = errors.New("product not found")

const (
	TagBrand  = "Brand"
	TagColour = "Colour"
)

type Product struct {
	ID             uuid.UUID      `json:"id"`
	ItemCode       string         `json:"itemCode"`
	SKU            string         `json:"sku"`
	Slug           string         `json:"slug"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Subcategory    string         `json:"subcategory"`
	BasePrice      float64        `json:"basePrice"`
	Stock          int            `json:"stock"`
	Images         []string       `json:"images"`
	Specifications Specifications `json:"specifications"`
	Active         bool           `json:"active"`
	SysModified    time.Time      `json:"sysmodified"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type Tag struct {
	Code  string `json:"code"`
	Value string `json:"value"`
}

type Dimensions struct {
	Height   *float64 `json:"height,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Depth    *float64 `json:"depth,omitempty"`
	Diameter *float64 `json:"diameter,omitempty"`
	Opening  *float64 `json:"opening,omitempty"`
}

// Specifications хранится в JSONB. Поля *Original держат английское
// значение поставщика рядом с переведённым.
type Specifications struct {
	Material                string     `json:"material,omitempty"`
	MaterialOriginal        string     `json:"materialOriginal,omitempty"`
	CategoryOriginal        string     `json:"categoryOriginal,omitempty"`
	SubcategoryOriginal     string     `json:"subcategoryOriginal,omitempty"`
	Dimensions              Dimensions `json:"dimensions"`
	Weight                  *float64   `json:"weight,omitempty"`
	DeliveryTime            string     `json:"deliveryTime,omitempty"`
	CountryOfOrigin         string     `json:"countryOfOrigin,omitempty"`
	CountryOfOriginOriginal string     `json:"countryOfOriginOriginal,omitempty"`
	PotSize                 string     `json:"potSize,omitempty"`
	Location                string     `json:"location,omitempty"`
	Certifications          []string   `json:"certifications,omitempty"`
	Tags                    []Tag      `json:"tags,omitempty"`
	IsOffer                 bool       `json:"isOffer"`
}

func (s Specifications) TagValues(code string) []string {
	var out []string
	for _, t := range s.Tags {
		if t.Code == code {
			out = append(out, t.Value)
		}
	}
	return out
}

func (s Specifications) Brand() string {
	if v := s.TagValues(TagBrand); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (s Specifications) Colours() []string {
	return s.TagValues(TagColour)
}

// SameContent reports whether two records carry identical synced fields.
// Identity (ID, slug) and bookkeeping timestamps are ignored.
func (p Product) SameContent(other Product) bool {
	a, errA := json.Marshal(p.content())
	b, errB := json.Marshal(other.content())
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

type productContent struct {
	ItemCode       string
	SKU            string
	Name           string
	Description    string
	Category       string
	Subcategory    string
	BasePrice      float64
	Stock          int
	Images         []string
	Specifications Specifications
	Active         bool
	SysModified    string
}

func (p Product) content() productContent {
	images := p.Images
	if len(images) == 0 {
		images = nil
	}
	sysModified := ""
	if !p.SysModified.IsZero() {
		sysModified = p.SysModified.UTC().Format(time.RFC3339)
	}
	return productContent{
		ItemCode:       p.ItemCode,
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		Category:       p.Category,
		Subcategory:    p.Subcategory,
		BasePrice:      p.BasePrice,
		Stock:          p.Stock,
		Images:         images,
		Specifications: p.Specifications,
		Active:         p.Active,
		SysModified:    sysModified,
	}
}

// MatchesSearch - регистронезависимый поиск по имени, описанию и SKU.
func (p Product) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.SKU), term)
}
