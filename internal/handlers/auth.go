package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ibnelve/api/internal/middleware"
	"ibnelve/api/internal/models"
	"ibnelve/api/internal/security"
	"ibnelve/api/internal/service"
)

type loginRequest struct {
	Username string     `json:"username" binding:"required"`
	Password string     `json:"password" binding:"required"`
	TenantID *uuid.UUID `json:"tenantId"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"tokenType"`
	ExpiresAt time.Time       `json:"expiresAt"`
	User      models.UserView `json:"user"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("invalid login request", err.Error()))
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password, req.TenantID)
	if err != nil {
		// One message for every rejection: which check failed stays
		// server-side.
		c.JSON(http.StatusUnauthorized, fail(service.ErrInvalidCredentials.Error()))
		return
	}

	token, expiresAt, err := h.tokens.Issue(user)
	if err != nil {
		h.log.Error().Err(err).Str("username", user.Username).Msg("token issue failed")
		c.JSON(http.StatusInternalServerError, fail("internal error"))
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt,
		User:      user,
	})
}

type validateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type validateTokenResponse struct {
	IsValid   bool             `json:"isValid"`
	User      *models.UserView `json:"user,omitempty"`
	ExpiresAt *time.Time       `json:"expiresAt,omitempty"`
}

func (h HandlerSet) ValidateToken(c *gin.Context) {
	var req validateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail("token is required"))
		return
	}

	claims, err := h.tokens.Validate(req.Token)
	if err != nil {
		c.JSON(http.StatusOK, validateTokenResponse{IsValid: false})
		return
	}

	user := userViewFromClaims(claims)
	expiresAt := claims.ExpiresAt.Time
	c.JSON(http.StatusOK, validateTokenResponse{
		IsValid:   true,
		User:      &user,
		ExpiresAt: &expiresAt,
	})
}

// Me returns the user view as carried by the token claims. It deliberately
// reflects the token, not the current database row.
func (h HandlerSet) Me(c *gin.Context) {
	claims, found := middleware.ClaimsFrom(c)
	if !found {
		c.JSON(http.StatusUnauthorized, fail("unauthorized"))
		return
	}
	c.JSON(http.StatusOK, userViewFromClaims(claims))
}

// Logout exists for API symmetry: tokens carry their own expiry and there is
// no server-side state to clear. The client discards the token.
func (h HandlerSet) Logout(c *gin.Context) {
	if claims, found := middleware.ClaimsFrom(c); found {
		h.log.Info().Str("username", claims.Username).Msg("logout")
	}
	c.JSON(http.StatusOK, ok(nil, "logged out"))
}

func userViewFromClaims(claims *security.Claims) models.UserView {
	view := models.UserView{
		Username: claims.Username,
		Email:    claims.Email,
		Roles:    claims.Roles,
		Active:   true,
	}
	if view.Roles == nil {
		view.Roles = []string{}
	}
	if id, found := claims.UserID(); found {
		view.ID = id
	}
	if tenantID, found := claims.Tenant(); found {
		view.TenantID = &tenantID
	}
	return view
}
