package pricing

import (
	"math"
	"strings"

	"bloommarbella_api/config/values"
)

type Role string

const (
	RoleGuest     Role = "guest"
	RoleAssociate Role = "associate"
	RoleAdmin     Role = "admin"
)

func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAssociate:
		return RoleAssociate
	case RoleAdmin:
		return RoleAdmin
	}
	return RoleGuest
}

type Calculator struct {
	values values.PricingValues
}

func NewCalculator(v values.PricingValues) *Calculator {
	if v.MarkupFactor <= 0 {
		v.MarkupFactor = values.DefaultPricingValues().MarkupFactor
	}
	return &Calculator{values: v}
}

// DisplayPrice - цена витрины без НДС для роли покупателя.
func (c *Calculator) DisplayPrice(base float64, role Role) float64 {
	price := base * c.values.MarkupFactor
	if role == RoleAssociate {
		price *= 1 - c.values.AssociateDiscount
	}
	return round2(price)
}

func (c *Calculator) WithVAT(price float64) float64 {
	return round2(price * (1 + c.values.VATRate))
}

// ToBasePrice переводит границу фильтра по цене витрины в базовую цену.
func (c *Calculator) ToBasePrice(display float64) float64 {
	return display / c.values.MarkupFactor
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
