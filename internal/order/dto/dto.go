package dto

import (
	"time"

	"github.com/fekuna/omnipos-storefront/internal/model"
)

type ListFilters struct {
	Page     int
	PageSize int
}

type ExportFilters struct {
	Status    model.OrderStatus
	StartDate *time.Time
	EndDate   *time.Time
}

type UpdateStatusInput struct {
	OrderID        string
	Status         model.OrderStatus
	TrackingNumber string
	Carrier        model.Carrier
}
