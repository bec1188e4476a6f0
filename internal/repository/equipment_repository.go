package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"ibnelve/api/internal/models"
	"ibnelve/api/internal/tenant"
)

var (
	ErrEquipmentNotFound      = errors.New("equipment not found")
	ErrDuplicateControlNumber = errors.New("duplicate control number")
)

const uniqueViolation = "23505"

const equipmentColumns = `
	id, name, notes, control_number, status, tenant_id, is_deleted, created_at, updated_at
`

// EquipmentRepository reads and writes equipamentos rows. Every query except
// the explicit unscoped bypass carries two standing predicates: soft-deleted
// rows are excluded, and rows are restricted to the scope's tenant unless
// the scope is the explicit global one.
type EquipmentRepository struct {
	pool *pgxpool.Pool
}

func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

// scopeTenant converts a scope into the nullable tenant filter argument.
// A nil result with nil error means the global scope: no tenant predicate.
func scopeTenant(scope tenant.Scope) (*uuid.UUID, error) {
	if !scope.Valid() {
		return nil, tenant.ErrNoTenant
	}
	if scope.IsGlobal() {
		return nil, nil
	}
	id, _ := scope.TenantID()
	return &id, nil
}

func (r *EquipmentRepository) List(ctx context.Context, scope tenant.Scope) ([]models.Equipment, error) {
	tenantID, err := scopeTenant(scope)
	if err != nil {
		return nil, err
	}

	const query = `
		SELECT` + equipmentColumns + `
		FROM equipamentos
		WHERE is_deleted = FALSE AND ($1::uuid IS NULL OR tenant_id = $1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *EquipmentRepository) GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (models.Equipment, error) {
	tenantID, err := scopeTenant(scope)
	if err != nil {
		return models.Equipment{}, err
	}

	const query = `
		SELECT` + equipmentColumns + `
		FROM equipamentos
		WHERE id = $1 AND is_deleted = FALSE AND ($2::uuid IS NULL OR tenant_id = $2)
	`
	return scanEquipment(r.pool.QueryRow(ctx, query, id, tenantID))
}

func (r *EquipmentRepository) GetByControlNumber(ctx context.Context, scope tenant.Scope, controlNumber string) (models.Equipment, error) {
	tenantID, err := scopeTenant(scope)
	if err != nil {
		return models.Equipment{}, err
	}

	const query = `
		SELECT` + equipmentColumns + `
		FROM equipamentos
		WHERE control_number = $1 AND is_deleted = FALSE AND ($2::uuid IS NULL OR tenant_id = $2)
	`
	return scanEquipment(r.pool.QueryRow(ctx, query, controlNumber, tenantID))
}

// GetByIDUnscoped bypasses the standing filters. It exists for the physical
// delete path and admin inspection of soft-deleted rows; nothing else should
// call it.
func (r *EquipmentRepository) GetByIDUnscoped(ctx context.Context, id uuid.UUID) (models.Equipment, error) {
	const query = `SELECT` + equipmentColumns + `FROM equipamentos WHERE id = $1`
	return scanEquipment(r.pool.QueryRow(ctx, query, id))
}

func (r *EquipmentRepository) Create(ctx context.Context, item models.Equipment) error {
	const query = `
		INSERT INTO equipamentos (
			id, name, notes, control_number, status, tenant_id, is_deleted, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, FALSE, NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Notes,
		item.ControlNumber,
		item.Status,
		item.TenantID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateControlNumber
	}
	return err
}

// Update persists the mutable fields, including status and the soft-delete
// flag, so the logical-delete path goes through the same statement. The row
// must still be visible under the scope.
func (r *EquipmentRepository) Update(ctx context.Context, scope tenant.Scope, item models.Equipment) error {
	tenantID, err := scopeTenant(scope)
	if err != nil {
		return err
	}

	const query = `
		UPDATE equipamentos
		SET name = $2, notes = $3, control_number = $4, status = $5,
		    is_deleted = $6, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE AND ($7::uuid IS NULL OR tenant_id = $7)
	`

	cmd, err := r.pool.Exec(ctx, query,
		item.ID,
		item.Name,
		item.Notes,
		item.ControlNumber,
		item.Status,
		item.Deleted,
		tenantID,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateControlNumber
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

// HardDelete removes the row outright, soft-deleted or not.
func (r *EquipmentRepository) HardDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	tenantID, err := scopeTenant(scope)
	if err != nil {
		return err
	}

	const query = `
		DELETE FROM equipamentos
		WHERE id = $1 AND ($2::uuid IS NULL OR tenant_id = $2)
	`

	cmd, err := r.pool.Exec(ctx, query, id, tenantID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEquipmentNotFound
	}
	return nil
}

func scanEquipment(row pgx.Row) (models.Equipment, error) {
	var item models.Equipment
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Notes,
		&item.ControlNumber,
		&item.Status,
		&item.TenantID,
		&item.Deleted,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Equipment{}, ErrEquipmentNotFound
		}
		return models.Equipment{}, err
	}
	return item, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
