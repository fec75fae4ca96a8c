package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/omnipos-storefront/internal/download/dto"
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

func (r *PGRepository) Create(ctx context.Context, d *model.DigitalDownload) error {
	query := `
        INSERT INTO digital_downloads (id, order_id, product_id, token, expires_at, max_downloads, download_count, created_at)
        VALUES (:id, :order_id, :product_id, :token, :expires_at, :max_downloads, :download_count, :created_at)
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, d)
	return err
}

func (r *PGRepository) ListByOrder(ctx context.Context, orderID string) ([]model.DigitalDownload, error) {
	query := `
        SELECT d.*, p.name AS product_name
        FROM digital_downloads d
        JOIN products p ON p.id = d.product_id
        WHERE d.order_id = $1
        ORDER BY p.name, d.created_at, d.id
    `
	var downloads []model.DigitalDownload
	err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &downloads, query, orderID)
	return downloads, err
}

func (r *PGRepository) FindEntitlement(ctx context.Context, id string) (*dto.Entitlement, error) {
	query := `
        SELECT d.*, p.name AS product_name, p.digital_file, p.digital_url, o.user_id AS order_user_id
        FROM digital_downloads d
        JOIN products p ON p.id = d.product_id
        JOIN orders o ON o.id = d.order_id
        WHERE d.id = $1
    `
	var e dto.Entitlement
	if err := r.DB.GetContext(ctx, &e, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *PGRepository) IncrementCount(ctx context.Context, id string, now time.Time) (bool, error) {
	query := `
        UPDATE digital_downloads
        SET download_count = download_count + 1
        WHERE id = $1
          AND expires_at > $2
          AND (max_downloads = 0 OR download_count < max_downloads)
    `
	res, err := r.DB.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
