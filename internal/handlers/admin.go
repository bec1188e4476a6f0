package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/security"
)

type createTenantRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h HandlerSet) CreateTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid tenant payload", err.Error()))
		return
	}

	t := models.Tenant{
		ID:     uuid.New(),
		Name:   req.Name,
		Active: true,
	}
	if err := h.tenants.Create(c.Request.Context(), t); err != nil {
		h.log.Error().Err(err).Str("tenant", req.Name).Msg("create tenant failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
		return
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	c.JSON(http.StatusCreated, ok(t, "tenant created"))
}

func (h HandlerSet) ListTenants(c *gin.Context) {
	tenants, err := h.tenants.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list tenants failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
		return
	}
	c.JSON(http.StatusOK, ok(tenants, "tenants listed"))
}

type createUserRequest struct {
	Username string     `json:"username" binding:"required"`
	Email    string     `json:"email" binding:"required,email"`
	Password string     `json:"password" binding:"required,min=8"`
	FullName string     `json:"fullName"`
	TenantID *uuid.UUID `json:"tenantId"`
	Roles    []string   `json:"roles"`
}

// CreateUser provisions an account with hashed credentials and role
// assignments. Only admins reach this handler.
func (h HandlerSet) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid user payload", err.Error()))
		return
	}

	hash, err := security.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		h.log.Error().Err(err).Msg("password hash failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
		return
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		TenantID:     req.TenantID,
		Active:       true,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.log.Error().Err(err).Str("username", req.Username).Msg("create user failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
		return
	}

	roleNames := req.Roles
	if len(roleNames) == 0 {
		roleNames = []string{models.RoleUser}
	}
	for _, name := range roleNames {
		role, err := h.roles.GetByName(c.Request.Context(), name)
		if err != nil {
			if errors.Is(err, repository.ErrRoleNotFound) {
				c.JSON(http.StatusBadRequest, fail("unknown role", name))
				return
			}
			h.log.Error().Err(err).Str("role", name).Msg("role lookup failed")
			c.JSON(http.StatusInternalServerError, fail("internal error"))
			return
		}
		if err := h.users.AssignRole(c.Request.Context(), user.ID, role.ID); err != nil {
			h.log.Error().Err(err).Str("role", name).Msg("assign role failed")
			c.JSON(http.StatusInternalServerError, fail("internal error"))
			return
		}
	}

	c.JSON(http.StatusCreated, ok(user.View(roleNames), "user created"))
}
