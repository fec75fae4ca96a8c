package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/order/dto"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, o *model.Order) error {
	conn := postgres.Conn(ctx, r.DB)

	query := `
        INSERT INTO orders (
            id, user_id, session_id, email, status, fulfillment_method, pickup_location_id,
            ship_name, ship_phone, ship_address1, ship_address2, ship_city, ship_province,
            ship_postal_code, ship_country, subtotal, tax, shipping, total,
            tracking_number, shipping_carrier, paid_at, shipped_at, created_at, updated_at
        )
        VALUES (
            :id, :user_id, :session_id, :email, :status, :fulfillment_method, :pickup_location_id,
            :ship_name, :ship_phone, :ship_address1, :ship_address2, :ship_city, :ship_province,
            :ship_postal_code, :ship_country, :subtotal, :tax, :shipping, :total,
            :tracking_number, :shipping_carrier, :paid_at, :shipped_at, :created_at, :updated_at
        )
    `
	if _, err := conn.NamedExecContext(ctx, query, o); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
        INSERT INTO order_items (id, order_id, product_id, product_name, product_type, unit_price, quantity)
        VALUES (:id, :order_id, :product_id, :product_name, :product_type, :unit_price, :quantity)
    `
	for i := range o.Items {
		if _, err := conn.NamedExecContext(ctx, itemQuery, &o.Items[i]); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepository) ListItems(ctx context.Context, orderIDs []string) ([]model.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM order_items WHERE order_id IN (?) ORDER BY order_id, product_name`, orderIDs)
	if err != nil {
		return nil, err
	}
	var items []model.OrderItem
	err = postgres.Conn(ctx, r.DB).SelectContext(ctx, &items, r.DB.Rebind(query), args...)
	return items, err
}

func (r *PGRepository) ListByOwner(ctx context.Context, owner model.CartOwner, filters *dto.ListFilters) ([]model.Order, int, error) {
	col, val := "session_id", owner.SessionID
	if owner.IsUser() {
		col, val = "user_id", owner.UserID
	}

	var total int
	if err := r.DB.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders WHERE `+col+` = $1`, val); err != nil {
		return nil, 0, err
	}

	offset := (filters.Page - 1) * filters.PageSize
	var orders []model.Order
	query := `SELECT * FROM orders WHERE ` + col + ` = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := r.DB.SelectContext(ctx, &orders, query, val, filters.PageSize, offset); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, o *model.Order, from model.OrderStatus) (bool, error) {
	query := `
        UPDATE orders SET
            status = $1, tracking_number = $2, shipping_carrier = $3,
            paid_at = $4, shipped_at = $5, updated_at = $6
        WHERE id = $7 AND status = $8
    `
	res, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query,
		o.Status, o.TrackingNumber, o.ShippingCarrier, o.PaidAt, o.ShippedAt, o.UpdatedAt, o.ID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) ListForExport(ctx context.Context, filters *dto.ExportFilters) ([]model.Order, error) {
	var conditions []string
	args := make(map[string]interface{})

	if filters.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = filters.Status
	}
	if filters.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = filters.StartDate
	}
	if filters.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = filters.EndDate
	}

	query := `SELECT * FROM orders`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.NamedQueryContext(ctx, query, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.StructScan(&o); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
