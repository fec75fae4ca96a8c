package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, l *model.PickupLocation) error {
	query := `
        INSERT INTO pickup_locations (
            id, name, address1, address2, city, province, postal_code, country,
            phone, instructions, is_active, display_order, created_at, updated_at
        )
        VALUES (
            :id, :name, :address1, :address2, :city, :province, :postal_code, :country,
            :phone, :instructions, :is_active, :display_order, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, l)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.PickupLocation, error) {
	var l model.PickupLocation
	err := r.DB.GetContext(ctx, &l, `SELECT * FROM pickup_locations WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *PGRepository) FindAll(ctx context.Context, activeOnly bool) ([]model.PickupLocation, error) {
	query := `SELECT * FROM pickup_locations`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY display_order, name`

	var locations []model.PickupLocation
	err := r.DB.SelectContext(ctx, &locations, query)
	return locations, err
}

func (r *PGRepository) Update(ctx context.Context, l *model.PickupLocation) error {
	query := `
        UPDATE pickup_locations
        SET name = :name,
            address1 = :address1,
            address2 = :address2,
            city = :city,
            province = :province,
            postal_code = :postal_code,
            country = :country,
            phone = :phone,
            instructions = :instructions,
            is_active = :is_active,
            display_order = :display_order,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, l)
	return err
}

func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE pickup_locations SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	return err
}
