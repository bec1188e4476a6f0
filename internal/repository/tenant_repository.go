package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ibnelve/api/internal/models"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

func (r *TenantRepository) Create(ctx context.Context, tenant models.Tenant) error {
	const query = `
		INSERT INTO tenants (id, name, active, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query, tenant.ID, tenant.Name, tenant.Active)
	return err
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (models.Tenant, error) {
	const query = `
		SELECT id, name, active, created_at, updated_at FROM tenants WHERE id = $1
	`

	row := r.pool.QueryRow(ctx, query, id)
	var tenant models.Tenant
	if err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Active,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tenant{}, ErrTenantNotFound
		}
		return models.Tenant{}, err
	}
	return tenant, nil
}

func (r *TenantRepository) List(ctx context.Context) ([]models.Tenant, error) {
	const query = `
		SELECT id, name, active, created_at, updated_at FROM tenants ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Active,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}
