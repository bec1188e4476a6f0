package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibnelve/api/internal/config"
	"ibnelve/api/internal/models"
	"ibnelve/api/internal/repository"
	"ibnelve/api/internal/security"
)

// fakeUserStore keeps users in memory and mimics the repository's
// increment-and-check semantics for failed logins.
type fakeUserStore struct {
	users    map[uuid.UUID]*models.User
	roles    map[uuid.UUID][]string
	findErr  error
	rolesErr error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		users: make(map[uuid.UUID]*models.User),
		roles: make(map[uuid.UUID][]string),
	}
}

func (f *fakeUserStore) add(user models.User, roles ...string) {
	u := user
	f.users[u.ID] = &u
	f.roles[u.ID] = roles
}

func matchesTenant(user *models.User, tenantID *uuid.UUID) bool {
	if tenantID == nil {
		return true
	}
	return user.TenantID != nil && *user.TenantID == *tenantID
}

func (f *fakeUserStore) FindByUsername(_ context.Context, username string, tenantID *uuid.UUID) (models.User, error) {
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	for _, user := range f.users {
		if user.Username == username && matchesTenant(user, tenantID) {
			return *user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string, tenantID *uuid.UUID) (models.User, error) {
	if f.findErr != nil {
		return models.User{}, f.findErr
	}
	for _, user := range f.users {
		if user.Email == email && matchesTenant(user, tenantID) {
			return *user, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetRoles(_ context.Context, userID uuid.UUID) ([]string, error) {
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles[userID], nil
}

func (f *fakeUserStore) RecordFailedLogin(_ context.Context, userID uuid.UUID, maxAttempts int, lockoutUntil time.Time) (int, error) {
	user, found := f.users[userID]
	if !found {
		return 0, repository.ErrUserNotFound
	}
	user.FailedLoginAttempts++
	if user.FailedLoginAttempts >= maxAttempts {
		until := lockoutUntil
		user.LockoutUntil = &until
	}
	return user.FailedLoginAttempts, nil
}

func (f *fakeUserStore) ResetLockout(_ context.Context, userID uuid.UUID) error {
	if user, found := f.users[userID]; found {
		user.FailedLoginAttempts = 0
		user.LockoutUntil = nil
	}
	return nil
}

func (f *fakeUserStore) UpdateLastLogin(_ context.Context, userID uuid.UUID) error {
	if user, found := f.users[userID]; found {
		now := time.Now()
		user.LastLoginAt = &now
	}
	return nil
}

func testAuthConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			BcryptCost:      4,
			MaxFailedLogins: 3,
			LockoutDuration: 5 * time.Minute,
		},
	}
}

func activeUser(t *testing.T, username, email, password string, tenantID *uuid.UUID) models.User {
	t.Helper()
	hash, err := security.HashPassword(password, 4)
	require.NoError(t, err)
	return models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		TenantID:     tenantID,
		Active:       true,
	}
}

func TestAuthenticateSuccessResetsFailures(t *testing.T) {
	store := newFakeUserStore()
	tenantID := uuid.New()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", &tenantID)
	user.FailedLoginAttempts = 2
	store.add(user, models.RoleManager)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	view, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.ID)
	assert.Equal(t, []string{models.RoleManager}, view.Roles)
	require.NotNil(t, view.TenantID)
	assert.Equal(t, tenantID, *view.TenantID)

	stored := store.users[user.ID]
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockoutUntil)
	assert.NotNil(t, stored.LastLoginAt)
}

func TestAuthenticateEmptyInputs(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "", "password", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "maria", "", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownUser(t *testing.T) {
	svc := NewAuthService(newFakeUserStore(), testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "nobody", "password", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateFallsBackToEmail(t *testing.T) {
	store := newFakeUserStore()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", nil)
	store.add(user)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	view, err := svc.Authenticate(context.Background(), "maria@example.com", "s3cret-pass", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, view.ID)
}

func TestAuthenticateScopedToTenant(t *testing.T) {
	store := newFakeUserStore()
	tenantA := uuid.New()
	tenantB := uuid.New()
	userA := activeUser(t, "shared", "a@example.com", "password-a", &tenantA)
	userB := activeUser(t, "shared", "b@example.com", "password-b", &tenantB)
	store.add(userA)
	store.add(userB)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	view, err := svc.Authenticate(context.Background(), "shared", "password-b", &tenantB)
	require.NoError(t, err)
	assert.Equal(t, userB.ID, view.ID)

	_, err = svc.Authenticate(context.Background(), "shared", "password-b", &tenantA)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateInactiveUser(t *testing.T) {
	store := newFakeUserStore()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", nil)
	user.Active = false
	store.add(user)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateLockoutAfterRepeatedFailures(t *testing.T) {
	store := newFakeUserStore()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", nil)
	store.add(user)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(context.Background(), "maria", "wrong-pass", nil)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	stored := store.users[user.ID]
	assert.Equal(t, 3, stored.FailedLoginAttempts)
	require.NotNil(t, stored.LockoutUntil)
	assert.True(t, stored.LockoutUntil.After(time.Now()))

	// Correct password during an active lockout still fails.
	_, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateExpiredLockoutAllowsLogin(t *testing.T) {
	store := newFakeUserStore()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", nil)
	past := time.Now().Add(-time.Minute)
	user.FailedLoginAttempts = 3
	user.LockoutUntil = &past
	store.add(user)

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	require.NoError(t, err)

	stored := store.users[user.ID]
	assert.Zero(t, stored.FailedLoginAttempts)
	assert.Nil(t, stored.LockoutUntil)
}

// Unexpected store faults must not leak: authentication fails closed.
func TestAuthenticateFailsClosedOnStoreFault(t *testing.T) {
	store := newFakeUserStore()
	store.findErr = errors.New("connection reset")

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateFailsClosedOnRolesFault(t *testing.T) {
	store := newFakeUserStore()
	user := activeUser(t, "maria", "maria@example.com", "s3cret-pass", nil)
	store.add(user)
	store.rolesErr = errors.New("connection reset")

	svc := NewAuthService(store, testAuthConfig(), zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "maria", "s3cret-pass", nil)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
