package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DeliveryMethod string

const (
	DeliveryPickup     DeliveryMethod = "pickup"
	DeliveryNovaPoshta DeliveryMethod = "nova_poshta"
	DeliveryCourier    DeliveryMethod = "courier"
)

type Contact struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email,omitempty"`
}

type Delivery struct {
	Method           DeliveryMethod `json:"method"`
	RequiresDelivery bool           `json:"requires_delivery"`
	Address          string         `json:"address"`
	PaymentOnGet     bool           `json:"payment_on_get"`
}

// Order is immutable once created. ID is the opaque public identifier used
// in success URLs.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	UserID    *int64      `json:"user_id,omitempty"`
	Contact   Contact     `json:"contact"`
	Delivery  Delivery    `json:"delivery"`
	CreatedAt time.Time   `json:"created_at"`
	Items     []OrderItem `json:"items"`
}

func (o Order) Guest() bool {
	return o.UserID == nil
}

func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total.Round(2)
}

// OrderItem snapshots the product name and sell price at purchase time.
// ProductID is kept for traceability and becomes nil if the product is deleted.
type OrderItem struct {
	ID        int64           `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID *int64          `json:"product_id,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// CheckoutForm is the checkout submission.
type CheckoutForm struct {
	FirstName      string `form:"first_name" binding:"required,max=150"`
	LastName       string `form:"last_name" binding:"required,max=150"`
	PhoneNumber    string `form:"phone_number" binding:"required,max=20"`
	Email          string `form:"email" binding:"omitempty,email"`
	DeliveryMethod string `form:"delivery_method" binding:"required,oneof=pickup nova_poshta courier"`
	Address        string `form:"delivery_address" binding:"max=500"`
	CityName       string `form:"city_name" binding:"max=200"`
	SettlementRef  string `form:"settlement_ref" binding:"max=64"`
	Warehouse      string `form:"warehouse" binding:"max=300"`
	PaymentOnGet   bool   `form:"payment_on_get"`
}

func (f CheckoutForm) Contact() Contact {
	return Contact{
		FirstName:   f.FirstName,
		LastName:    f.LastName,
		PhoneNumber: f.PhoneNumber,
		Email:       f.Email,
	}
}

// Delivery composes the stored address from the carrier specific fields.
// It reports false when the chosen method lacks the fields it needs.
func (f CheckoutForm) Delivery() (Delivery, bool) {
	d := Delivery{
		Method:       DeliveryMethod(f.DeliveryMethod),
		PaymentOnGet: f.PaymentOnGet,
	}
	switch d.Method {
	case DeliveryPickup:
		return d, true
	case DeliveryNovaPoshta:
		if f.CityName == "" || f.Warehouse == "" {
			return d, false
		}
		d.RequiresDelivery = true
		d.Address = f.CityName + ", " + f.Warehouse
		return d, true
	case DeliveryCourier:
		if f.Address == "" {
			return d, false
		}
		d.RequiresDelivery = true
		d.Address = f.Address
		return d, true
	}
	return d, false
}

// OrderEvent is published after an order commits.
type OrderEvent struct {
	EventType string           `json:"event_type"`
	OrderID   string           `json:"order_id"`
	UserID    *int64           `json:"user_id,omitempty"`
	Total     decimal.Decimal  `json:"total"`
	Items     []OrderEventItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
}

type OrderEventItem struct {
	ProductID *int64 `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
}
