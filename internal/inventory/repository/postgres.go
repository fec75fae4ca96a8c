package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/inventory/dto"
	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func column(counter model.Counter) (string, error) {
	switch counter {
	case model.CounterStock:
		return "quantity_in_stock", nil
	case model.CounterSeats:
		return "service_seats", nil
	}
	return "", fmt.Errorf("unknown inventory counter %q", counter)
}

func (r *PGRepository) Decrement(ctx context.Context, productID string, counter model.Counter, qty int) (int, bool, error) {
	col, err := column(counter)
	if err != nil {
		return 0, false, err
	}
	query := fmt.Sprintf(`
		UPDATE products
		SET %[1]s = %[1]s - $1, updated_at = NOW()
		WHERE id = $2 AND %[1]s >= $1
		RETURNING %[1]s
	`, col)

	var after int
	err = postgres.Conn(ctx, r.DB).QueryRowxContext(ctx, query, qty, productID).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return after, true, nil
}

func (r *PGRepository) Adjust(ctx context.Context, productID string, counter model.Counter, delta int) (int, bool, error) {
	col, err := column(counter)
	if err != nil {
		return 0, false, err
	}
	query := fmt.Sprintf(`
		UPDATE products
		SET %[1]s = %[1]s + $1, updated_at = NOW()
		WHERE id = $2 AND %[1]s + $1 >= 0
		RETURNING %[1]s
	`, col)

	var after int
	err = postgres.Conn(ctx, r.DB).QueryRowxContext(ctx, query, delta, productID).Scan(&after)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return after, true, nil
}

func (r *PGRepository) Current(ctx context.Context, productID string, counter model.Counter) (int, bool, error) {
	col, err := column(counter)
	if err != nil {
		return 0, false, err
	}
	var value sql.NullInt64
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, col)
	err = postgres.Conn(ctx, r.DB).GetContext(ctx, &value, query, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !value.Valid {
		return 0, false, nil
	}
	return int(value.Int64), true, nil
}

func (r *PGRepository) LogMovement(ctx context.Context, m *model.InventoryMovement) error {
	query := `
        INSERT INTO inventory_movements (
            id, product_id, counter, movement_type, quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :counter, :movement_type, :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, m)
	return err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			rows.Close()
			return nil, 0, err
		}
	}
	rows.Close()

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) ListLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.Product, int, error) {
	var items []model.Product
	var count int

	where := ` WHERE product_type = 'physical' AND is_active AND quantity_in_stock <= $1`
	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM products"+where, f.Threshold); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM products" + where + " ORDER BY quantity_in_stock, name"
	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}
	err := r.DB.SelectContext(ctx, &items, query, f.Threshold)
	return items, count, err
}
