package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/tenant"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrControlNumberTaken = errors.New("control number already in use")
)

// EquipmentStore is the slice of the equipment repository the service needs.
type EquipmentStore interface {
	List(ctx context.Context, scope tenant.Scope) ([]models.Equipment, error)
	GetByID(ctx context.Context, scope tenant.Scope, id uuid.UUID) (models.Equipment, error)
	GetByControlNumber(ctx context.Context, scope tenant.Scope, controlNumber string) (models.Equipment, error)
	GetByIDUnscoped(ctx context.Context, id uuid.UUID) (models.Equipment, error)
	Create(ctx context.Context, item models.Equipment) error
	Update(ctx context.Context, scope tenant.Scope, item models.Equipment) error
	HardDelete(ctx context.Context, scope tenant.Scope, id uuid.UUID) error
}

type EquipmentService struct {
	store EquipmentStore
	log   zerolog.Logger
}

func NewEquipmentService(store EquipmentStore, log zerolog.Logger) *EquipmentService {
	return &EquipmentService{store: store, log: log}
}

type EquipmentInput struct {
	Name          string
	Notes         string
	ControlNumber string
	// TenantID is honored only under the global scope; tenant-scoped
	// callers always write into their own tenant.
	TenantID *uuid.UUID
}

func (in EquipmentInput) validate() error {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.ControlNumber) == "" {
		return ErrValidation
	}
	return nil
}

func (s *EquipmentService) List(ctx context.Context, scope tenant.Scope) ([]models.Equipment, error) {
	return s.store.List(ctx, scope)
}

func (s *EquipmentService) Get(ctx context.Context, scope tenant.Scope, id uuid.UUID) (models.Equipment, error) {
	return s.store.GetByID(ctx, scope, id)
}

func (s *EquipmentService) GetByControlNumber(ctx context.Context, scope tenant.Scope, controlNumber string) (models.Equipment, error) {
	return s.store.GetByControlNumber(ctx, scope, controlNumber)
}

// Create inserts a new active equipment row after checking that the control
// number is free within the target tenant. The duplicate check is backed by
// a unique index, so a concurrent insert still surfaces as a conflict.
func (s *EquipmentService) Create(ctx context.Context, scope tenant.Scope, input EquipmentInput) (models.Equipment, error) {
	if err := input.validate(); err != nil {
		return models.Equipment{}, err
	}

	tenantID, err := resolveTenant(scope, input.TenantID)
	if err != nil {
		return models.Equipment{}, err
	}

	checkScope := tenant.ForTenant(tenantID)
	if _, err := s.store.GetByControlNumber(ctx, checkScope, input.ControlNumber); err == nil {
		return models.Equipment{}, ErrControlNumberTaken
	} else if !errors.Is(err, repository.ErrEquipmentNotFound) {
		return models.Equipment{}, err
	}

	item := models.Equipment{
		ID:            uuid.New(),
		Name:          strings.TrimSpace(input.Name),
		Notes:         input.Notes,
		ControlNumber: strings.TrimSpace(input.ControlNumber),
		Status:        models.EquipmentStatusActive,
		TenantID:      tenantID,
		CreatedAt:     time.Now(),
	}

	if err := s.store.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateControlNumber) {
			return models.Equipment{}, ErrControlNumberTaken
		}
		return models.Equipment{}, err
	}

	s.log.Info().Str("equipment_id", item.ID.String()).Str("control_number", item.ControlNumber).
		Msg("equipment created")
	return item, nil
}

func (s *EquipmentService) Update(ctx context.Context, scope tenant.Scope, id uuid.UUID, input EquipmentInput) (models.Equipment, error) {
	if err := input.validate(); err != nil {
		return models.Equipment{}, err
	}

	item, err := s.store.GetByID(ctx, scope, id)
	if err != nil {
		return models.Equipment{}, err
	}

	item.Name = strings.TrimSpace(input.Name)
	item.Notes = input.Notes
	item.ControlNumber = strings.TrimSpace(input.ControlNumber)
	now := time.Now()
	item.UpdatedAt = &now

	if err := s.store.Update(ctx, scope, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateControlNumber) {
			return models.Equipment{}, ErrControlNumberTaken
		}
		return models.Equipment{}, err
	}
	return item, nil
}

// Remove performs the logical delete: the row stays in place with status
// inactive and the soft-delete flag set, hidden from every scoped query.
func (s *EquipmentService) Remove(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	item, err := s.store.GetByID(ctx, scope, id)
	if err != nil {
		return err
	}

	item.Status = models.EquipmentStatusInactive
	item.Deleted = true
	now := time.Now()
	item.UpdatedAt = &now

	if err := s.store.Update(ctx, scope, item); err != nil {
		return err
	}

	s.log.Info().Str("equipment_id", id.String()).Msg("equipment removed logically")
	return nil
}

// Purge deletes the row outright. Unlike Remove it also reaches rows that
// were already soft-deleted, so the lookup bypasses the standing filters and
// tenant ownership is checked here instead.
func (s *EquipmentService) Purge(ctx context.Context, scope tenant.Scope, id uuid.UUID) error {
	if !scope.Valid() {
		return tenant.ErrNoTenant
	}

	item, err := s.store.GetByIDUnscoped(ctx, id)
	if err != nil {
		return err
	}
	if tenantID, ok := scope.TenantID(); ok && item.TenantID != tenantID {
		return repository.ErrEquipmentNotFound
	}

	if err := s.store.HardDelete(ctx, scope, id); err != nil {
		return err
	}

	s.log.Info().Str("equipment_id", id.String()).Str("control_number", item.ControlNumber).
		Msg("equipment removed physically")
	return nil
}

func resolveTenant(scope tenant.Scope, explicit *uuid.UUID) (uuid.UUID, error) {
	if id, ok := scope.TenantID(); ok {
		return id, nil
	}
	if scope.IsGlobal() && explicit != nil {
		return *explicit, nil
	}
	return uuid.UUID{}, tenant.ErrNoTenant
}
