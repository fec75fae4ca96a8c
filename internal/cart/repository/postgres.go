package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/fekuna/omnipos-storefront/pkg/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

// ownerColumn picks the owning column. A user wins over a session.
func ownerColumn(owner model.CartOwner) (string, string) {
	if owner.IsUser() {
		return "user_id", owner.UserID
	}
	return "session_id", owner.SessionID
}

func (r *PGRepository) List(ctx context.Context, owner model.CartOwner) ([]model.CartItem, error) {
	col, val := ownerColumn(owner)
	var items []model.CartItem
	query := `SELECT * FROM cart_items WHERE ` + col + ` = $1 ORDER BY added_at DESC, id`
	err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &items, query, val)
	return items, err
}

func (r *PGRepository) FindItem(ctx context.Context, owner model.CartOwner, productID string) (*model.CartItem, error) {
	col, val := ownerColumn(owner)
	var item model.CartItem
	query := `SELECT * FROM cart_items WHERE ` + col + ` = $1 AND product_id = $2`
	err := postgres.Conn(ctx, r.DB).GetContext(ctx, &item, query, val, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) Add(ctx context.Context, owner model.CartOwner, productID string, qty int) error {
	col, val := ownerColumn(owner)
	query := `
        INSERT INTO cart_items (id, ` + col + `, product_id, quantity, added_at, updated_at)
        VALUES ($1, $2, $3, $4, NOW(), NOW())
        ON CONFLICT (` + col + `, product_id) WHERE ` + col + ` IS NOT NULL
        DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
    `
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query, uuid.New().String(), val, productID, qty)
	return err
}

func (r *PGRepository) SetQuantity(ctx context.Context, owner model.CartOwner, productID string, qty int) error {
	col, val := ownerColumn(owner)
	query := `UPDATE cart_items SET quantity = $1, updated_at = NOW() WHERE ` + col + ` = $2 AND product_id = $3`
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query, qty, val, productID)
	return err
}

func (r *PGRepository) Remove(ctx context.Context, owner model.CartOwner, productID string) error {
	col, val := ownerColumn(owner)
	query := `DELETE FROM cart_items WHERE ` + col + ` = $1 AND product_id = $2`
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, query, val, productID)
	return err
}

func (r *PGRepository) Clear(ctx context.Context, owner model.CartOwner) error {
	col, val := ownerColumn(owner)
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM cart_items WHERE `+col+` = $1`, val)
	return err
}

func (r *PGRepository) DeleteItems(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM cart_items WHERE id IN (?)`, ids)
	if err != nil {
		return err
	}
	_, err = postgres.Conn(ctx, r.DB).ExecContext(ctx, r.DB.Rebind(query), args...)
	return err
}

// TransferSession must run inside a transaction. Lines for products the user
// already holds are merged into the user's line; every other line keeps its
// id and only changes owner.
func (r *PGRepository) TransferSession(ctx context.Context, sessionID, userID string) (int, error) {
	conn := postgres.Conn(ctx, r.DB)

	merged, err := rowsAffected(conn.ExecContext(ctx, `
        UPDATE cart_items AS u
        SET quantity = u.quantity + s.quantity, updated_at = NOW()
        FROM cart_items AS s
        WHERE s.session_id = $1 AND u.user_id = $2 AND u.product_id = s.product_id
    `, sessionID, userID))
	if err != nil {
		return 0, err
	}

	_, err = conn.ExecContext(ctx, `
        DELETE FROM cart_items AS s
        WHERE s.session_id = $1
          AND EXISTS (SELECT 1 FROM cart_items u WHERE u.user_id = $2 AND u.product_id = s.product_id)
    `, sessionID, userID)
	if err != nil {
		return 0, err
	}

	reowned, err := rowsAffected(conn.ExecContext(ctx, `
        UPDATE cart_items
        SET user_id = $2, session_id = NULL, updated_at = NOW()
        WHERE session_id = $1
    `, sessionID, userID))
	if err != nil {
		return 0, err
	}
	return merged + reowned, nil
}

func rowsAffected(res sql.Result, err error) (int, error) {
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
