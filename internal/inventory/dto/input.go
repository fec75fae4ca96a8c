package dto

import "github.com/fekuna/omnipos-storefront/internal/model"

type AdjustInventoryInput struct {
	ProductID      string
	Counter        model.Counter
	MovementType   model.MovementType // RESTOCK, ADJUST or REFUND
	QuantityChange int
	Reason         string
	ReferenceID    string
	ReferenceType  string
	UserID         string
}

// ConsumeLine is one order line that draws down stock or seats.
type ConsumeLine struct {
	ProductID   string
	ProductName string
	Counter     model.Counter
	Quantity    int
}
