package handlers

import (
	"time"

	"storefront-svc/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// money renders an amount the way prices are shown: always two decimals.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type cartLineView struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type cartView struct {
	Lines         []cartLineView `json:"lines"`
	TotalQuantity int            `json:"total_quantity"`
	TotalSum      string         `json:"total_sum"`
}

func newCartView(summary models.CartSummary) cartView {
	lines := make([]cartLineView, 0, len(summary.Lines))
	for _, l := range summary.Lines {
		lines = append(lines, cartLineView{
			ID:        l.ID,
			ProductID: l.ProductID,
			Name:      l.Product.Name,
			Slug:      l.Product.Slug,
			Price:     money(l.Product.SellPrice()),
			Quantity:  l.Quantity,
			LineTotal: money(l.LineTotal()),
		})
	}
	return cartView{
		Lines:         lines,
		TotalQuantity: summary.TotalQuantity,
		TotalSum:      money(summary.TotalSum),
	}
}

type orderItemView struct {
	Name      string `json:"name"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type orderView struct {
	ID        uuid.UUID       `json:"id"`
	Contact   models.Contact  `json:"contact"`
	Delivery  models.Delivery `json:"delivery"`
	CreatedAt time.Time       `json:"created_at"`
	Items     []orderItemView `json:"items"`
	Total     string          `json:"total"`
}

func newOrderView(o models.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			Name:      it.Name,
			Price:     money(it.Price),
			Quantity:  it.Quantity,
			LineTotal: money(it.LineTotal()),
		})
	}
	return orderView{
		ID:        o.ID,
		Contact:   o.Contact,
		Delivery:  o.Delivery,
		CreatedAt: o.CreatedAt,
		Items:     items,
		Total:     money(o.Total()),
	}
}
