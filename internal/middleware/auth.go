package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"ibnelve/api/internal/models"
	"ibnelve/api/internal/security"
	"ibnelve/api/internal/tenant"
)

const (
	ctxClaims = "token_claims"
	ctxUser   = "current_user"
	ctxScope  = "tenant_scope"
)

// UserSource resolves the account behind a validated token.
type UserSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// Auth validates the bearer token, confirms the account still exists and is
// active, and derives the request's tenant scope from the claims. Users
// without a tenant claim get the global scope only when they hold the Admin
// role; everyone else ends up without a scope and tenant-filtered endpoints
// deny them.
func Auth(tokens *security.TokenService, users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := tokens.Validate(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		userID, found := claims.UserID()
		if !found {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
			return
		}
		if !user.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user_inactive"})
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxUser, user)
		if scope, derived := scopeFromClaims(claims); derived {
			c.Set(ctxScope, scope)
		}

		c.Next()
	}
}

func scopeFromClaims(claims *security.Claims) (tenant.Scope, bool) {
	if tenantID, found := claims.Tenant(); found {
		return tenant.ForTenant(tenantID), true
	}
	for _, role := range claims.Roles {
		if role == models.RoleAdmin {
			return tenant.Global(), true
		}
	}
	return tenant.Scope{}, false
}

// ClaimsFrom returns the validated token claims stored by Auth.
func ClaimsFrom(c *gin.Context) (*security.Claims, bool) {
	val, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, found := val.(*security.Claims)
	return claims, found
}

// UserFrom returns the authenticated user row stored by Auth.
func UserFrom(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ctxUser)
	if !exists {
		return models.User{}, false
	}
	user, found := val.(models.User)
	return user, found
}

// ScopeFrom returns the tenant scope derived for this request, if any.
func ScopeFrom(c *gin.Context) (tenant.Scope, bool) {
	val, exists := c.Get(ctxScope)
	if !exists {
		return tenant.Scope{}, false
	}
	scope, found := val.(tenant.Scope)
	return scope, found
}
