package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kotikvkofte/deal-service/internal/domain/inbox"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type InboxRepository struct {
	pool *pgxpool.Pool
}

func NewInboxRepository(pool *pgxpool.Pool) *InboxRepository {
	return &InboxRepository{pool: pool}
}

// Exists reports whether a record for id has already been written.
func (r *InboxRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM inbox_event WHERE id = $1)`

	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check inbox event: %w", err)
	}
	return exists, nil
}

// Record inserts a new record and returns inbox.ErrDuplicate when id is taken.
func (r *InboxRepository) Record(ctx context.Context, rec inbox.Record) error {
	const query = `
		INSERT INTO inbox_event (id, kind, recorded_at)
		VALUES ($1, $2, $3)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query, rec.ID, rec.Kind, rec.RecordedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("insert inbox event %s: %w", rec.ID, inbox.ErrDuplicate)
		}
		return fmt.Errorf("insert inbox event: %w", err)
	}

	return nil
}

func (r *InboxRepository) ListRecent(ctx context.Context, limit int) ([]*inbox.Record, error) {
	const query = `
		SELECT id, kind, recorded_at
		FROM inbox_event
		ORDER BY recorded_at DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query inbox events: %w", err)
	}
	defer rows.Close()

	var records []*inbox.Record
	for rows.Next() {
		rec := &inbox.Record{}
		if err := rows.Scan(&rec.ID, &rec.Kind, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan inbox event: %w", err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteOlderThan removes at most batch records recorded before cutoff.
// Only the retention sweeper calls it.
func (r *InboxRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	const query = `
		DELETE FROM inbox_event
		WHERE id IN (
			SELECT id FROM inbox_event
			WHERE recorded_at < $1
			ORDER BY recorded_at ASC
			LIMIT $2
		)
	`

	tag, err := r.pool.Exec(ctx, query, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("delete inbox events: %w", err)
	}
	return tag.RowsAffected(), nil
}
