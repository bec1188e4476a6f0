// Package tenant defines the explicit tenant scope passed to every
// tenant-filtered data access call. There is no ambient per-request tenant
// state: a repository either receives a scope for one tenant, an explicit
// cross-tenant scope, or rejects the call.
package tenant

import (
	"errors"

	"github.com/google/uuid"
)

// ErrNoTenant is returned by repositories when a tenant-scoped query is
// attempted with an invalid (zero) scope. An unresolvable tenant denies
// access; it never silently widens the query.
var ErrNoTenant = errors.New("no tenant in scope")

// Scope selects which tenant's rows a query may touch. The zero value is
// invalid and rejected by repositories.
type Scope struct {
	tenantID uuid.UUID
	global   bool
	valid    bool
}

// ForTenant scopes queries to a single tenant.
func ForTenant(id uuid.UUID) Scope {
	return Scope{tenantID: id, valid: true}
}

// Global grants cross-tenant access. Only the auth middleware constructs it,
// and only for users holding the Admin role.
func Global() Scope {
	return Scope{global: true, valid: true}
}

// TenantID returns the scoped tenant id. ok is false for the global scope
// and for the zero value.
func (s Scope) TenantID() (uuid.UUID, bool) {
	if !s.valid || s.global {
		return uuid.UUID{}, false
	}
	return s.tenantID, true
}

// IsGlobal reports whether the scope bypasses tenant filtering.
func (s Scope) IsGlobal() bool { return s.valid && s.global }

// Valid reports whether the scope may be used at all.
func (s Scope) Valid() bool { return s.valid }
