package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Owner scopes cart lines and access grants. Exactly one of UserID and
// SessionKey identifies the owner; an authenticated user always wins.
type Owner struct {
	UserID     *int64
	SessionKey string
}

func UserOwner(id int64) Owner {
	return Owner{UserID: &id}
}

func SessionOwner(key string) Owner {
	return Owner{SessionKey: key}
}

func (o Owner) Authenticated() bool {
	return o.UserID != nil
}

// Key is the storage representation used in cart_items.owner_key.
func (o Owner) Key() string {
	if o.UserID != nil {
		return "user:" + strconv.FormatInt(*o.UserID, 10)
	}
	return "session:" + o.SessionKey
}

// CartLine is one (owner, product) row joined with the product it references.
type CartLine struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	Product   Product   `json:"product"`
}

// LineTotal is sell price times quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.SellPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CartSummary struct {
	Lines         []CartLine      `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	TotalSum      decimal.Decimal `json:"total_sum"`
}

func NewCartSummary(lines []CartLine) CartSummary {
	summary := CartSummary{Lines: lines, TotalSum: decimal.Zero}
	for _, l := range lines {
		summary.TotalQuantity += l.Quantity
		summary.TotalSum = summary.TotalSum.Add(l.LineTotal())
	}
	summary.TotalSum = summary.TotalSum.Round(2)
	if summary.Lines == nil {
		summary.Lines = []CartLine{}
	}
	return summary
}

type CartAction string

const (
	CartIncrement CartAction = "increment"
	CartDecrement CartAction = "decrement"
)

// CartChange is either an action or an absolute quantity.
type CartChange struct {
	Action   CartAction
	Quantity *int
}
