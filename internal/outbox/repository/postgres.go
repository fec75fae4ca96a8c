package repository

import (
	"context"

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

func (r *PGRepository) Insert(ctx context.Context, rec *model.OutboxRecord) error {
	query := `
        INSERT INTO outbox (id, topic, key, event_type, payload, attempts, created_at)
        VALUES (:id, :topic, :key, :event_type, CAST(:payload AS JSONB), :attempts, :created_at)
    `
	_, err := postgres.Conn(ctx, r.DB).NamedExecContext(ctx, query, rec)
	return err
}

func (r *PGRepository) FetchPending(ctx context.Context, limit int) ([]model.OutboxRecord, error) {
	query := `
        SELECT id, topic, key, event_type, convert_to(payload::text, 'UTF8') AS payload, attempts, created_at, sent_at
        FROM outbox
        WHERE sent_at IS NULL
        ORDER BY created_at
        LIMIT $1
        FOR UPDATE SKIP LOCKED
    `
	var records []model.OutboxRecord
	err := postgres.Conn(ctx, r.DB).SelectContext(ctx, &records, query, limit)
	return records, err
}

func (r *PGRepository) MarkSent(ctx context.Context, id string) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *PGRepository) BumpAttempts(ctx context.Context, id string) error {
	_, err := postgres.Conn(ctx, r.DB).ExecContext(ctx, `UPDATE outbox SET attempts = attempts + 1 WHERE id = $1`, id)
	return err
}
