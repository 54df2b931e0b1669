package tenant

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every error produced by the tenant layer wraps exactly one of
// them, so callers can branch with errors.Is on the kind alone.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
)

var (
	// ErrTenantNotFound is returned when the control plane has no such tenant.
	ErrTenantNotFound = fmt.Errorf("%w: tenant", ErrNotFound)

	// ErrReservedIdentifier is returned for labels reserved for infrastructure.
	ErrReservedIdentifier = fmt.Errorf("%w: reserved tenant identifier", ErrNotFound)

	// ErrInvalidIdentifier is returned when an identifier is malformed.
	ErrInvalidIdentifier = fmt.Errorf("%w: invalid tenant identifier", ErrNotFound)

	// ErrUnknownHost is returned for hosts outside the configured base domain.
	ErrUnknownHost = fmt.Errorf("%w: host outside base domain", ErrNotFound)

	// ErrNoTenantInContext is returned by RequireTenant.
	ErrNoTenantInContext = fmt.Errorf("%w: no tenant in context", ErrNotFound)

	// ErrRootDomainRequired is returned by RequireRootDomain.
	ErrRootDomainRequired = fmt.Errorf("%w: root domain only", ErrNotFound)

	// ErrInactiveTenant is returned when the tenant is suspended or deleted.
	ErrInactiveTenant = fmt.Errorf("%w: tenant is inactive", ErrForbidden)

	// ErrInsufficientRole is returned when the identity lacks the required role.
	ErrInsufficientRole = fmt.Errorf("%w: insufficient role", ErrForbidden)

	// ErrNoIdentity is returned when a privileged route has no authenticated identity.
	ErrNoIdentity = fmt.Errorf("%w: no identity", ErrUnauthenticated)

	// ErrDatabaseUnavailable is returned when an active tenant's storage cannot be attached.
	ErrDatabaseUnavailable = fmt.Errorf("%w: tenant database", ErrUnavailable)
)

// StatusCode maps an error to the HTTP status the tenant layer answers with.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnavailable):
		return http.StatusInternalServerError
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
