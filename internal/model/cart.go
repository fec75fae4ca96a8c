package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartOwner identifies a cart: a signed-in user or an anonymous session.
// UserID wins when both are set.
type CartOwner struct {
	UserID    string
	SessionID string
}

func (o CartOwner) IsZero() bool {
	return o.UserID == "" && o.SessionID == ""
}

func (o CartOwner) IsUser() bool {
	return o.UserID != ""
}

type CartItem struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"user_id,omitempty"`
	SessionID *string   `db:"session_id" json:"session_id,omitempty"`
	ProductID string    `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	AddedAt   time.Time `db:"added_at" json:"added_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Product *Product `db:"-" json:"product,omitempty"`
}

func (c *CartItem) LineTotal() decimal.Decimal {
	if c.Product == nil {
		return decimal.Zero
	}
	return c.Product.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}
