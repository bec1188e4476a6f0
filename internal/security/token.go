package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"ibnelve/api/internal/config"
	"ibnelve/api/internal/models"
)

// ErrInvalidToken is the uniform failure for every token defect. Callers
// cannot tell an expired token from a tampered one.
var ErrInvalidToken = errors.New("invalid token")

// Claims carried by an issued token. TenantID is empty for users that belong
// to no tenant.
type Claims struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserID returns the subject parsed as a UUID.
func (c *Claims) UserID() (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// Tenant returns the tenant claim parsed as a UUID, false when absent.
func (c *Claims) Tenant() (uuid.UUID, bool) {
	if c.TenantID == "" {
		return uuid.UUID{}, false
	}
	id, err := uuid.Parse(c.TenantID)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// TokenService issues and validates HMAC-signed bearer tokens. Validity is
// signature plus expiry; there is no server-side revocation.
type TokenService struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
}

func NewTokenService(cfg config.SecurityConfig) *TokenService {
	return &TokenService{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		ttl:      cfg.TokenTTL,
	}
}

// Issue signs a token for the user. Roles become one claim entry each; the
// tenant id rides along as a custom claim when present.
func (s *TokenService) Issue(user models.UserView) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Username: user.Username,
		Email:    user.Email,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if user.TenantID != nil {
		claims.TenantID = user.TenantID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate verifies signature, signing method, issuer, audience and expiry
// with zero leeway. Any defect yields ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID extracts the user id from a token, validating it first.
func (s *TokenService) UserID(tokenStr string) (uuid.UUID, bool) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return uuid.UUID{}, false
	}
	return claims.UserID()
}

// Username extracts the username from a token, validating it first.
func (s *TokenService) Username(tokenStr string) (string, bool) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return "", false
	}
	return claims.Username, true
}

// Roles extracts the role claims from a token; empty on any failure.
func (s *TokenService) Roles(tokenStr string) []string {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return []string{}
	}
	if claims.Roles == nil {
		return []string{}
	}
	return claims.Roles
}

// TenantID extracts the tenant claim from a token, validating it first.
func (s *TokenService) TenantID(tokenStr string) (uuid.UUID, bool) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return uuid.UUID{}, false
	}
	return claims.Tenant()
}

// ExpiresAt extracts the expiry from a token, validating it first.
func (s *TokenService) ExpiresAt(tokenStr string) (time.Time, bool) {
	claims, err := s.Validate(tokenStr)
	if err != nil || claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
