package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ibnelve/api/internal/config"
	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/security"
)

// ErrInvalidCredentials is the only error Authenticate returns for a
// rejected login. Unknown user, wrong password, inactive account, lockout
// and unexpected store faults all collapse into it; the distinction lives
// in the logs, never in the response.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	FindByUsername(ctx context.Context, username string, tenantID *uuid.UUID) (models.User, error)
	FindByEmail(ctx context.Context, email string, tenantID *uuid.UUID) (models.User, error)
	GetRoles(ctx context.Context, userID uuid.UUID) ([]string, error)
	RecordFailedLogin(ctx context.Context, userID uuid.UUID, maxAttempts int, lockoutUntil time.Time) (int, error)
	ResetLockout(ctx context.Context, userID uuid.UUID) error
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error
}

type AuthService struct {
	users UserStore
	cfg   *config.AppConfig
	log   zerolog.Logger
}

func NewAuthService(users UserStore, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		users: users,
		cfg:   cfg,
		log:   log,
	}
}

// Authenticate verifies a username-or-email plus password pair, optionally
// scoped to a tenant, and returns the assembled user view on success. Failed
// attempts feed the lockout counter; a correct password during an active
// lockout still fails.
func (s *AuthService) Authenticate(ctx context.Context, login, password string, tenantID *uuid.UUID) (models.UserView, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return models.UserView{}, ErrInvalidCredentials
	}

	user, err := s.resolveUser(ctx, login, tenantID)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			s.log.Error().Err(err).Str("login", login).Msg("user lookup failed")
		}
		return models.UserView{}, ErrInvalidCredentials
	}

	if !user.Active {
		s.log.Warn().Str("username", user.Username).Msg("login rejected: inactive account")
		return models.UserView{}, ErrInvalidCredentials
	}

	now := time.Now()
	if user.Locked(now) {
		s.log.Warn().Str("username", user.Username).Time("lockout_until", *user.LockoutUntil).
			Msg("login rejected: account locked")
		return models.UserView{}, ErrInvalidCredentials
	}

	if !security.VerifyPassword(password, user.PasswordHash) {
		s.recordFailure(ctx, user, now)
		return models.UserView{}, ErrInvalidCredentials
	}

	if user.FailedLoginAttempts > 0 || user.LockoutUntil != nil {
		if err := s.users.ResetLockout(ctx, user.ID); err != nil {
			s.log.Error().Err(err).Str("username", user.Username).Msg("reset lockout failed")
		}
	}
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Msg("update last login failed")
	}

	roles, err := s.users.GetRoles(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Msg("load roles failed")
		return models.UserView{}, ErrInvalidCredentials
	}

	s.log.Info().Str("username", user.Username).Msg("authentication succeeded")
	return user.View(roles), nil
}

// resolveUser looks the login up as a username first and falls back to an
// email lookup when the input looks like one.
func (s *AuthService) resolveUser(ctx context.Context, login string, tenantID *uuid.UUID) (models.User, error) {
	user, err := s.users.FindByUsername(ctx, login, tenantID)
	if err == nil {
		return user, nil
	}
	if errors.Is(err, repository.ErrUserNotFound) && strings.Contains(login, "@") {
		return s.users.FindByEmail(ctx, login, tenantID)
	}
	return models.User{}, err
}

func (s *AuthService) recordFailure(ctx context.Context, user models.User, now time.Time) {
	lockoutUntil := now.Add(s.cfg.Security.LockoutDuration)
	attempts, err := s.users.RecordFailedLogin(ctx, user.ID, s.cfg.Security.MaxFailedLogins, lockoutUntil)
	if err != nil {
		s.log.Error().Err(err).Str("username", user.Username).Msg("record failed login failed")
		return
	}

	event := s.log.Warn().Str("username", user.Username).Int("failed_attempts", attempts)
	if attempts >= s.cfg.Security.MaxFailedLogins {
		event.Time("lockout_until", lockoutUntil).Msg("account locked after repeated failures")
		return
	}
	event.Msg("login rejected: wrong password")
}
