package usecase

import (
	"context"
	"fmt"
	"io"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
)

var exportHeaders = []string{
	"Order ID", "Created", "Status", "Fulfillment", "Email",
	"Name", "City", "Province", "Postal Code",
	"Items", "Subtotal", "Shipping", "Tax", "Total",
	"Carrier", "Tracking Number",
}

// Export writes the matching orders as a single-sheet workbook.
func (uc *orderUseCase) Export(ctx context.Context, filters *dto.ExportFilters, w io.Writer) error {
	orders, err := uc.repo.ListForExport(ctx, filters)
	if err != nil {
		return err
	}
	if err := uc.attachItems(ctx, orders); err != nil {
		return err
	}

	file, err := BuildWorkbook(orders)
	if err != nil {
		return err
	}
	return file.Write(w)
}

func BuildWorkbook(orders []model.Order) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Orders")
	if err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range exportHeaders {
		header.AddCell().SetString(h)
	}

	for _, o := range orders {
		units := 0
		for _, it := range o.Items {
			units += it.Quantity
		}

		row := sheet.AddRow()
		row.AddCell().SetString(o.ID)
		row.AddCell().SetString(o.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetString(string(o.Status))
		row.AddCell().SetString(string(o.FulfillmentMethod))
		row.AddCell().SetString(o.Email)
		row.AddCell().SetString(o.ShippingAddress.Name)
		row.AddCell().SetString(o.City)
		row.AddCell().SetString(o.Province)
		row.AddCell().SetString(o.PostalCode)
		row.AddCell().SetInt(units)
		for _, amount := range []decimal.Decimal{o.Subtotal, o.Shipping, o.Tax, o.Total} {
			row.AddCell().SetFloatWithFormat(amount.InexactFloat64(), "0.00")
		}
		row.AddCell().SetString(o.ShippingCarrier)
		row.AddCell().SetString(o.TrackingNumber)
	}
	return file, nil
}
