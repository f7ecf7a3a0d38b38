package response

import (
	"encoding/json"
	"time"
)

// Item - запись каталога поставщика в формате его API.
type Item struct {
	Itemcode                   string          `json:"Itemcode"`
	ItemDescriptionEN          string          `json:"ItemDescription_EN"`
	ItemDescriptionNL          string          `json:"ItemDescription_NL"`
	ItemDescriptionES          string          `json:"ItemDescription_ES"`
	ItemVariety                string          `json:"ItemVariety_EN"`
	MainGroupDescriptionEN     string          `json:"MainGroupDescription_EN"`
	ProductGroupDescriptionEN  string          `json:"ProductGroupDescription_EN"`
	MaterialDescriptionEN      string          `json:"MaterialDescription_EN"`
	CountryOfOrigin            string          `json:"CountryOfOrigin"`
	Salesprice                 float64         `json:"Salesprice"`
	ShowOnWebsite              bool            `json:"ShowOnWebsite"`
	ItemStatus                 string          `json:"ItemStatus"`
	IsStockItem                bool            `json:"IsStockItem"`
	IsOffer                    bool            `json:"IsOffer"`
	Height                     float64         `json:"Height"`
	Width                      float64         `json:"Width"`
	Depth                      float64         `json:"Depth"`
	Diameter                   float64         `json:"Diameter"`
	Opening                    float64         `json:"Opening"`
	Weight                     float64         `json:"Weight"`
	DeliveryTimeInDays         int             `json:"DeliveryTimeInDays"`
	PotSize                    string          `json:"PotSize"`
	Location                   string          `json:"Location_EN"`
	Certifications             []string        `json:"Certifications"`
	Tags                       json.RawMessage `json:"Tags"`
	Sysmodified                SupplierTime    `json:"Sysmodified"`
	StockAvailable             int             `json:"StockAvailable"`
}

type StockInfo struct {
	Itemcode       string       `json:"Itemcode"`
	StockAvailable int          `json:"StockAvailable"`
	FirstAvailable SupplierTime `json:"FirstAvailable"`
}

type PriceInfo struct {
	Itemcode   string  `json:"Itemcode"`
	Salesprice float64 `json:"Salesprice"`
	Currency   string  `json:"Currency"`
}

// SupplierTime принимает форматы дат, которые отдаёт поставщик.
type SupplierTime struct {
	time.Time
}

var supplierTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *SupplierTime) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil || raw == "" {
		// null или не строка - оставляем нулевое время
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range supplierTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	t.Time = time.Time{}
	return nil
}

func (t SupplierTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
