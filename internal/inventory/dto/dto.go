package dto

import "time"

type MovementFilters struct {
	ProductID    string
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}

type LowStockFilters struct {
	Threshold int
	Page      int
	PageSize  int
}
