package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/kotikvkofte/deal-service/internal/domain/contractor"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ContractorRepository struct {
	pool *pgxpool.Pool
}

func NewContractorRepository(pool *pgxpool.Pool) *ContractorRepository {
	return &ContractorRepository{pool: pool}
}

const contractorColumns = `
	id, deal_id, contractor_id, name, COALESCE(inn, ''), main,
	create_date, modify_date, COALESCE(create_user_id, ''), COALESCE(modify_user_id, ''), is_active
`

func scanContractor(row pgx.Row) (*contractor.DealContractor, error) {
	c := &contractor.DealContractor{}
	err := row.Scan(
		&c.ID, &c.DealID, &c.ContractorID, &c.Name, &c.INN, &c.Main,
		&c.CreateDate, &c.ModifyDate, &c.CreateUserID, &c.ModifyUserID, &c.IsActive,
	)
	return c, err
}

func (r *ContractorRepository) Create(ctx context.Context, c *contractor.DealContractor) error {
	const sql = `
		INSERT INTO deal_contractor (
			id, deal_id, contractor_id, name, inn, main,
			create_date, create_user_id, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, sql,
		c.ID, c.DealID, c.ContractorID, c.Name, nullIfEmptyText(c.INN), c.Main,
		c.CreateDate, nullIfEmptyText(c.CreateUserID))
	if err != nil {
		return fmt.Errorf("insert deal contractor: %w", err)
	}

	return nil
}

// Update persists every mutable field of an active deal contractor.
func (r *ContractorRepository) Update(ctx context.Context, c *contractor.DealContractor) error {
	const sql = `
		UPDATE deal_contractor
		SET deal_id = $2, contractor_id = $3, name = $4, inn = $5, main = $6,
			modify_date = $7, modify_user_id = $8
		WHERE id = $1 AND is_active
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, sql,
		c.ID, c.DealID, c.ContractorID, c.Name, nullIfEmptyText(c.INN), c.Main,
		c.ModifyDate, nullIfEmptyText(c.ModifyUserID))
	if err != nil {
		return fmt.Errorf("update deal contractor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contractor.ErrNotFound
	}

	return nil
}

func (r *ContractorRepository) GetActive(ctx context.Context, id string) (*contractor.DealContractor, error) {
	sql := `SELECT ` + contractorColumns + ` FROM deal_contractor WHERE id = $1 AND is_active`

	c, err := scanContractor(conn(ctx, r.pool).QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contractor.ErrNotFound
		}
		return nil, fmt.Errorf("get deal contractor: %w", err)
	}
	return c, nil
}

// ListActiveByContractorID returns every active deal contractor that references
// the external contractor id. Rows are locked when called inside a transaction.
func (r *ContractorRepository) ListActiveByContractorID(ctx context.Context, contractorID string) ([]*contractor.DealContractor, error) {
	sql := `SELECT ` + contractorColumns + ` FROM deal_contractor WHERE contractor_id = $1 AND is_active`
	if GetTx(ctx) != nil {
		sql += ` FOR UPDATE`
	}

	return r.list(ctx, sql, contractorID)
}

func (r *ContractorRepository) ListActiveByDealID(ctx context.Context, dealID string) ([]*contractor.DealContractor, error) {
	sql := `SELECT ` + contractorColumns + ` FROM deal_contractor WHERE deal_id = $1 AND is_active ORDER BY create_date ASC`
	return r.list(ctx, sql, dealID)
}

func (r *ContractorRepository) ListRecent(ctx context.Context, limit int) ([]*contractor.DealContractor, error) {
	sql := `SELECT ` + contractorColumns + ` FROM deal_contractor ORDER BY COALESCE(modify_date, create_date) DESC LIMIT $1`
	return r.list(ctx, sql, limit)
}

func (r *ContractorRepository) Deactivate(ctx context.Context, id string) error {
	const sql = `UPDATE deal_contractor SET is_active = FALSE WHERE id = $1 AND is_active`

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("deactivate deal contractor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contractor.ErrNotFound
	}
	return nil
}

func (r *ContractorRepository) list(ctx context.Context, sql string, args ...any) ([]*contractor.DealContractor, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query deal contractors: %w", err)
	}
	defer rows.Close()

	var result []*contractor.DealContractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal contractor: %w", err)
		}
		result = append(result, c)
	}

	return result, rows.Err()
}
