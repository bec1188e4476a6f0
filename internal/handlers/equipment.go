package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ibnelve/api/internal/middleware"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/service"
	"ibnelve/api/internal/tenant"
)

type equipmentRequest struct {
	ID            *uuid.UUID `json:"id"`
	Name          string     `json:"name" binding:"required"`
	Notes         string     `json:"notes"`
	ControlNumber string     `json:"controlNumber" binding:"required"`
	TenantID      *uuid.UUID `json:"tenantId"`
}

func (h HandlerSet) ListEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	items, err := h.equipment.List(c.Request.Context(), scope)
	if err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(items, "equipment listed"))
}

func (h HandlerSet) GetEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment id"))
		return
	}

	item, err := h.equipment.Get(c.Request.Context(), scope, id)
	if err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(item, "equipment found"))
}

func (h HandlerSet) GetEquipmentByControlNumber(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	controlNumber := c.Query("numeroControle")
	if controlNumber == "" {
		c.JSON(http.StatusBadRequest, fail("numeroControle is required"))
		return
	}

	item, err := h.equipment.GetByControlNumber(c.Request.Context(), scope, controlNumber)
	if err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(item, "equipment found"))
}

func (h HandlerSet) CreateEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment payload", err.Error()))
		return
	}

	item, err := h.equipment.Create(c.Request.Context(), scope, service.EquipmentInput{
		Name:          req.Name,
		Notes:         req.Notes,
		ControlNumber: req.ControlNumber,
		TenantID:      req.TenantID,
	})
	if err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ok(item, "equipment created"))
}

func (h HandlerSet) UpdateEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment id"))
		return
	}

	var req equipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment payload", err.Error()))
		return
	}
	if req.ID != nil && *req.ID != id {
		c.JSON(http.StatusBadRequest, fail("path id does not match body id"))
		return
	}

	item, err := h.equipment.Update(c.Request.Context(), scope, id, service.EquipmentInput{
		Name:          req.Name,
		Notes:         req.Notes,
		ControlNumber: req.ControlNumber,
	})
	if err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(item, "equipment updated"))
}

func (h HandlerSet) DeleteEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment id"))
		return
	}

	if err := h.equipment.Remove(c.Request.Context(), scope, id); err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(nil, "equipment removed logically"))
}

func (h HandlerSet) PurgeEquipment(c *gin.Context) {
	scope, found := middleware.ScopeFrom(c)
	if !found {
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid equipment id"))
		return
	}

	if err := h.equipment.Purge(c.Request.Context(), scope, id); err != nil {
		h.respondEquipmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, ok(nil, "equipment removed permanently"))
}

func (h HandlerSet) respondEquipmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, fail("invalid equipment payload"))
	case errors.Is(err, service.ErrControlNumberTaken):
		c.JSON(http.StatusConflict, fail("equipment with this control number already exists"))
	case errors.Is(err, repository.ErrEquipmentNotFound):
		c.JSON(http.StatusNotFound, fail("equipment not found"))
	case errors.Is(err, tenant.ErrNoTenant):
		c.JSON(http.StatusForbidden, fail("no tenant in scope"))
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("equipment operation failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
	}
}
