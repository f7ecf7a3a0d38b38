package transform

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"bloommarbella_api/internal/nieuwkoop/business/models"
	"bloommarbella_api/internal/nieuwkoop/business/models/dto/response"
	"bloommarbella_api/internal/nieuwkoop/business/services/translation"
	"bloommarbella_api/pkg/business/service"
)

var ErrMissingItemCode = errors.New("supplier item has no item code")

var offerTagCodes = map[string]struct{}{
	"offer":      {},
	"aanbieding": {},
	"oferta":     {},
}

// ImageResolver строит ссылки на изображения по коду товара.
type ImageResolver interface {
	ImageURLs(itemCode string) []string
}

type ImageURLBuilder struct {
	BaseURL string
	Views   int
}

func (b ImageURLBuilder) ImageURLs(itemCode string) []string {
	base := strings.TrimRight(b.BaseURL, "/")
	code := strings.TrimSpace(itemCode)
	if base == "" || code == "" {
		return nil
	}
	views := b.Views
	if views <= 0 {
		views = 1
	}
	urls := make([]string, 0, views)
	for i := 1; i <= views; i++ {
		urls = append(urls, fmt.Sprintf("%s/%s/%d.jpg", base, code, i))
	}
	return urls
}

// Transformer переводит запись поставщика в локальный товар.
// ID, slug и служебные даты выставляет вызывающий код.
type Transformer struct {
	lookup translation.Lookup
	images ImageResolver
	text   service.ITextService
}

func NewTransformer(lookup translation.Lookup, images ImageResolver) *Transformer {
	if lookup == nil {
		lookup = translation.Default()
	}
	if images == nil {
		images = ImageURLBuilder{}
	}
	return &Transformer{
		lookup: lookup,
		images: images,
		text:   service.NewTextService(),
	}
}

func (t *Transformer) Transform(item response.Item) (models.Product, error) {
	code := strings.TrimSpace(item.Itemcode)
	if code == "" {
		return models.Product{}, ErrMissingItemCode
	}
	if math.IsNaN(item.Salesprice) || math.IsInf(item.Salesprice, 0) || item.Salesprice < 0 {
		return models.Product{}, fmt.Errorf("item %s: invalid sales price %v", code, item.Salesprice)
	}

	category := strings.TrimSpace(item.MainGroupDescriptionEN)
	subcategory := strings.TrimSpace(item.ProductGroupDescriptionEN)
	material := strings.TrimSpace(item.MaterialDescriptionEN)
	country := strings.TrimSpace(item.CountryOfOrigin)

	tags := extractTags(item.Tags)

	specs := models.Specifications{
		Material:                t.lookup.Lookup(translation.KindMaterial, material),
		MaterialOriginal:        material,
		CategoryOriginal:        category,
		SubcategoryOriginal:     subcategory,
		Dimensions:              dimensions(item),
		Weight:                  positive(item.Weight),
		DeliveryTime:            deliveryTime(item.DeliveryTimeInDays),
		CountryOfOrigin:         t.lookup.Lookup(translation.KindCountry, country),
		CountryOfOriginOriginal: country,
		PotSize:                 strings.TrimSpace(item.PotSize),
		Location:                strings.TrimSpace(item.Location),
		Certifications:          nonEmpty(item.Certifications),
		Tags:                    tags,
		IsOffer:                 item.IsOffer || hasOfferTag(tags),
	}

	return models.Product{
		ItemCode:       code,
		SKU:            code,
		Name:           t.name(item),
		Description:    t.text.CollapseSpaces(t.text.RemoveTags(item.ItemVariety)),
		Category:       t.lookup.Lookup(translation.KindCategory, category),
		Subcategory:    t.lookup.Lookup(translation.KindSubcategory, subcategory),
		BasePrice:      roundPrice(item.Salesprice),
		Stock:          max(item.StockAvailable, 0),
		Images:         t.images.ImageURLs(code),
		Specifications: specs,
		Active:         item.ShowOnWebsite && item.ItemStatus == "A",
		SysModified:    item.Sysmodified.Time,
	}, nil
}

// Slug вызывается только при создании товара.
func (t *Transformer) Slug(name, itemCode string) string {
	return t.text.Slugify(name, itemCode)
}

func (t *Transformer) name(item response.Item) string {
	for _, candidate := range []string{item.ItemDescriptionEN, item.ItemDescriptionNL, item.ItemDescriptionES} {
		if name := t.text.CollapseSpaces(t.text.RemoveTags(candidate)); name != "" {
			return name
		}
	}
	return strings.TrimSpace(item.Itemcode)
}

func dimensions(item response.Item) models.Dimensions {
	return models.Dimensions{
		Height:   positive(item.Height),
		Width:    positive(item.Width),
		Depth:    positive(item.Depth),
		Diameter: positive(item.Diameter),
		Opening:  positive(item.Opening),
	}
}

func positive(v float64) *float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func deliveryTime(days int) string {
	switch {
	case days <= 0:
		return ""
	case days == 1:
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func hasOfferTag(tags []models.Tag) bool {
	for _, tag := range tags {
		if _, ok := offerTagCodes[strings.ToLower(tag.Code)]; !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(tag.Value)) {
		case "true", "yes", "1", "ja", "si", "sí":
			return true
		}
	}
	return false
}

func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}
