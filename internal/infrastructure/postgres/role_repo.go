package postgres

import (
	"context"
	"fmt"

	"github.com/kotikvkofte/deal-service/internal/domain/role"

	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

// Assign activates the link between a deal contractor and a role, creating it if needed.
func (r *RoleRepository) Assign(ctx context.Context, contractorID, roleID string) error {
	const sql = `
		INSERT INTO contractor_to_role (contractor_id, role_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (contractor_id, role_id) DO UPDATE SET is_active = TRUE
	`

	if _, err := conn(ctx, r.pool).Exec(ctx, sql, contractorID, roleID); err != nil {
		return fmt.Errorf("assign contractor role: %w", err)
	}
	return nil
}

func (r *RoleRepository) Revoke(ctx context.Context, contractorID, roleID string) error {
	const sql = `
		UPDATE contractor_to_role
		SET is_active = FALSE
		WHERE contractor_id = $1 AND role_id = $2 AND is_active
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, sql, contractorID, roleID)
	if err != nil {
		return fmt.Errorf("revoke contractor role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return role.ErrNotFound
	}
	return nil
}

// ListActiveByContractorIDs returns active roles grouped by deal contractor id.
func (r *RoleRepository) ListActiveByContractorIDs(ctx context.Context, contractorIDs []string) (map[string][]role.Role, error) {
	const sql = `
		SELECT ctr.contractor_id::text, cr.id, cr.name, cr.category
		FROM contractor_to_role ctr
		JOIN contractor_role cr ON cr.id = ctr.role_id AND cr.is_active
		WHERE ctr.contractor_id = ANY($1::uuid[]) AND ctr.is_active
		ORDER BY cr.id
	`

	result := make(map[string][]role.Role, len(contractorIDs))
	if len(contractorIDs) == 0 {
		return result, nil
	}

	rows, err := conn(ctx, r.pool).Query(ctx, sql, contractorIDs)
	if err != nil {
		return nil, fmt.Errorf("query contractor roles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var contractorID string
		var rl role.Role
		if err := rows.Scan(&contractorID, &rl.ID, &rl.Name, &rl.Category); err != nil {
			return nil, fmt.Errorf("scan contractor role: %w", err)
		}
		result[contractorID] = append(result[contractorID], rl)
	}

	return result, rows.Err()
}
