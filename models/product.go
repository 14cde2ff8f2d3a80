package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	SortOrder int    `json:"sort_order"`
}

type Product struct {
	ID               int64           `json:"id"`
	CategoryID       int64           `json:"category_id"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	ShortDescription string          `json:"short_description"`
	Price            decimal.Decimal `json:"price"`
	Discount         decimal.Decimal `json:"discount"`
	Quantity         int             `json:"quantity"`
	IsBestseller     bool            `json:"is_bestseller"`
	CreatedAt        time.Time       `json:"created_at"`
}

// SellPrice is the unit price after the percentage discount, rounded to 2dp.
func (p Product) SellPrice() decimal.Decimal {
	if p.Discount.IsZero() {
		return p.Price
	}
	return p.Price.Sub(p.Price.Mul(p.Discount).Div(hundred)).Round(2)
}

// DiscountPrice is the amount taken off the unit price; zero without a discount.
func (p Product) DiscountPrice() decimal.Decimal {
	if p.Discount.IsZero() {
		return decimal.Zero
	}
	return p.Price.Mul(p.Discount).Div(hundred).Round(2)
}

// ProductView is the catalog representation with derived prices.
type ProductView struct {
	Product
	SellPrice     decimal.Decimal `json:"sell_price"`
	DiscountPrice decimal.Decimal `json:"discount_price"`
}

// MarshalJSON writes every amount with exactly two decimals.
func (v ProductView) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price         string `json:"price"`
		Discount      string `json:"discount"`
		SellPrice     string `json:"sell_price"`
		DiscountPrice string `json:"discount_price"`
	}{
		product:       product(v.Product),
		Price:         v.Price.StringFixed(2),
		Discount:      v.Discount.StringFixed(2),
		SellPrice:     v.SellPrice.StringFixed(2),
		DiscountPrice: v.DiscountPrice.StringFixed(2),
	})
}

func NewProductView(p Product) ProductView {
	return ProductView{
		Product:       p,
		SellPrice:     p.SellPrice(),
		DiscountPrice: p.DiscountPrice(),
	}
}

type CatalogFilter struct {
	CategorySlug string
	Query        string
	OnSale       bool
	OrderBy      string
	Page         int
	PageSize     int
}

type CatalogPage struct {
	Products   []ProductView `json:"products"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	Total      int64         `json:"total"`
	HasMore    bool          `json:"has_more"`
}
