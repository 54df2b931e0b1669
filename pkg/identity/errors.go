package identity

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/kbm/pkg/tenant"
)

var (
	ErrMissingSigningKey = errors.New("identity: missing signing key")
	ErrMissingSubject    = errors.New("identity: missing subject")

	ErrInvalidToken = fmt.Errorf("%w: invalid token", tenant.ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token is expired", tenant.ErrUnauthenticated)
)
