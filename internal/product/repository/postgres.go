package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/internal/product/dto"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, category_id, name, description, price, product_type, is_active, is_featured, taxable,
            quantity_in_stock, digital_file, digital_url,
            service_seats, service_starts_at, service_duration_minutes, service_location,
            created_at, updated_at
        )
        VALUES (
            :id, :category_id, :name, :description, :price, :product_type, :is_active, :is_featured, :taxable,
            :quantity_in_stock, :digital_file, :digital_url,
            :service_seats, :service_starts_at, :service_duration_minutes, :service_location,
            :created_at, :updated_at
        )
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var products []model.Product
	err = postgres.Conn(ctx, r.DB).SelectContext(ctx, &products, query, args...)
	return products, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.Type != "" {
		conditions = append(conditions, "product_type = :product_type")
		args["product_type"] = f.Type
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = :is_active")
		args["is_active"] = *f.IsActive
	}
	if f.IsFeatured != nil {
		conditions = append(conditions, "is_featured = :is_featured")
		args["is_featured"] = *f.IsFeatured
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR description ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := "SELECT count(*) FROM products" + whereClause
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

	// List
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Whitelisted to keep user input out of ORDER BY
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "price"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s, id", whereClause, orderBy)

	if f.PageSize > 0 {
		offset := (max(f.Page, 1) - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

// Update leaves the inventory counters alone; they only move through the
// inventory ledger.
func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET category_id = :category_id,
            name = :name,
            description = :description,
            price = :price,
            is_active = :is_active,
            is_featured = :is_featured,
            taxable = :taxable,
            digital_file = :digital_file,
            digital_url = :digital_url,
            service_starts_at = :service_starts_at,
            service_duration_minutes = :service_duration_minutes,
            service_location = :service_location,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PGRepository) ListImages(ctx context.Context, productIDs []string) ([]model.ProductImage, error) {
	if len(productIDs) == 0 {
		return []model.ProductImage{}, nil
	}
	query, args, err := sqlx.In(`
        SELECT * FROM product_images
        WHERE product_id IN (?)
        ORDER BY product_id, display_order, created_at
    `, productIDs)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var images []model.ProductImage
	err = postgres.Conn(ctx, r.DB).SelectContext(ctx, &images, query, args...)
	return images, err
}

// AddImage clears the previous main image first so at most one stays main.
func (r *PGRepository) AddImage(ctx context.Context, img *model.ProductImage) error {
	conn := postgres.Conn(ctx, r.DB)
	if img.IsMain {
		_, err := conn.ExecContext(ctx,
			`UPDATE product_images SET is_main = FALSE WHERE product_id = $1 AND is_main`, img.ProductID)
		if err != nil {
			return err
		}
	}
	query := `
        INSERT INTO product_images (id, product_id, url, alt_text, display_order, is_main, created_at)
        VALUES (:id, :product_id, :url, :alt_text, :display_order, :is_main, :created_at)
    `
	_, err := conn.NamedExecContext(ctx, query, img)
	return err
}

func (r *PGRepository) DeleteImage(ctx context.Context, productID, imageID string) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx,
		`DELETE FROM product_images WHERE id = $1 AND product_id = $2`, imageID, productID)
	return err
}
