package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/kotikvkofte/deal-service/internal/domain/deal"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DealRepository struct {
	pool *pgxpool.Pool
}

func NewDealRepository(pool *pgxpool.Pool) *DealRepository {
	return &DealRepository{pool: pool}
}

func (r *DealRepository) Create(ctx context.Context, d *deal.Deal) error {
	const sql = `
		INSERT INTO deal (
			id, description, agreement_number, agreement_date, agreement_start_dt,
			availability_date, type_id, status_id, create_date, create_user_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		d.ID, nullIfEmptyText(d.Description), nullIfEmptyText(d.AgreementNumber), d.AgreementDate, d.AgreementStartDt,
		d.AvailabilityDate, nullIfEmptyText(d.TypeID), d.StatusID, d.CreateDate, nullIfEmptyText(d.CreateUserID))
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}

	return nil
}

func (r *DealRepository) Update(ctx context.Context, d *deal.Deal) error {
	const sql = `
		UPDATE deal
		SET description = $2, agreement_number = $3, agreement_date = $4, agreement_start_dt = $5,
			availability_date = $6, type_id = $7, modify_date = $8, modify_user_id = $9
		WHERE id = $1 AND is_active
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		d.ID, nullIfEmptyText(d.Description), nullIfEmptyText(d.AgreementNumber), d.AgreementDate, d.AgreementStartDt,
		d.AvailabilityDate, nullIfEmptyText(d.TypeID), d.ModifyDate, nullIfEmptyText(d.ModifyUserID))
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return deal.ErrNotFound
	}

	return nil
}

func (r *DealRepository) GetActive(ctx context.Context, id string) (*deal.Deal, error) {
	const sql = `
		SELECT
			id,
			COALESCE(description, ''),
			COALESCE(agreement_number, ''),
			agreement_date::timestamptz,
			agreement_start_dt,
			availability_date::timestamptz,
			COALESCE(type_id, ''),
			status_id,
			close_dt,
			create_date,
			modify_date,
			COALESCE(create_user_id, ''),
			COALESCE(modify_user_id, ''),
			is_active
		FROM deal
		WHERE id = $1 AND is_active
	`

	var d deal.Deal
	err := conn(ctx, r.pool).QueryRow(ctx, sql, id).Scan(
		&d.ID, &d.Description, &d.AgreementNumber, &d.AgreementDate, &d.AgreementStartDt,
		&d.AvailabilityDate, &d.TypeID, &d.StatusID, &d.CloseDt, &d.CreateDate,
		&d.ModifyDate, &d.CreateUserID, &d.ModifyUserID, &d.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, deal.ErrNotFound
		}
		return nil, fmt.Errorf("get deal by id: %w", err)
	}

	return &d, nil
}

func (r *DealRepository) UpdateStatus(ctx context.Context, id string, statusID string) error {
	const sql = `
		UPDATE deal
		SET status_id = $2, modify_date = NOW()
		WHERE id = $1 AND is_active
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, id, statusID)
	if err != nil {
		return fmt.Errorf("update deal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return deal.ErrNotFound
	}

	return nil
}

func (r *DealRepository) StatusExists(ctx context.Context, statusID string) (bool, error) {
	const sql = `SELECT EXISTS (SELECT 1 FROM deal_status WHERE id = $1 AND is_active)`

	var exists bool
	if err := conn(ctx, r.pool).QueryRow(ctx, sql, statusID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check deal status: %w", err)
	}
	return exists, nil
}

func (r *DealRepository) ListStatuses(ctx context.Context) ([]deal.Status, error) {
	const sql = `SELECT id, name FROM deal_status WHERE is_active ORDER BY id`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query deal statuses: %w", err)
	}
	defer rows.Close()

	var statuses []deal.Status
	for rows.Next() {
		var s deal.Status
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan deal status: %w", err)
		}
		statuses = append(statuses, s)
	}
	return statuses, rows.Err()
}

func (r *DealRepository) ListTypes(ctx context.Context) ([]deal.Type, error) {
	const sql = `SELECT id, name FROM deal_type WHERE is_active ORDER BY id`

	rows, err := r.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("query deal types: %w", err)
	}
	defer rows.Close()

	var types []deal.Type
	for rows.Next() {
		var t deal.Type
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan deal type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *DealRepository) UpsertType(ctx context.Context, t deal.Type) error {
	const sql = `
		INSERT INTO deal_type (id, name, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, is_active = TRUE
	`

	if _, err := r.pool.Exec(ctx, sql, t.ID, t.Name); err != nil {
		return fmt.Errorf("upsert deal type: %w", err)
	}
	return nil
}
