package values

// PricingValues must match the storefront pricing: the catalog price filter
// divides display prices by MarkupFactor to query stored base prices.
type PricingValues struct {
	MarkupFactor      float64 `yaml:"markup_factor" split_words:"true"`
	VATRate           float64 `yaml:"vat_rate" split_words:"true"`
	AssociateDiscount float64 `yaml:"associate_discount" split_words:"true"`
}

type CatalogValues struct {
	DefaultPageSize     int `yaml:"default_page_size" split_words:"true"`
	MaxPageSize         int `yaml:"max_page_size" split_words:"true"`
	CandidateMultiplier int `yaml:"candidate_multiplier" split_words:"true"`
	LowStockThreshold   int `yaml:"low_stock_threshold" split_words:"true"`
}

func DefaultPricingValues() PricingValues {
	return PricingValues{
		MarkupFactor:      2.5,
		VATRate:           0.21,
		AssociateDiscount: 0.20,
	}
}

func DefaultCatalogValues() CatalogValues {
	return CatalogValues{
		DefaultPageSize:     20,
		MaxPageSize:         100,
		CandidateMultiplier: 10,
		LowStockThreshold:   5,
	}
}
