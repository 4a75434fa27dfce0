package authz

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/college_portal/internal/session"
)

var (
	ErrCredentialMissing = errors.New("credential missing")
	ErrCredentialInvalid = errors.New("credential invalid")
	ErrCredentialExpired = errors.New("credential expired")
	ErrRoleMismatch      = errors.New("role mismatch")
	ErrOwnershipMismatch = errors.New("ownership mismatch")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Denial records why a namespace, or a whole authorization, failed. Reason is one
// of the sentinel errors above; Cause carries a lookup error, if any.
type Denial struct {
	Kind   session.Kind
	Reason error
	Cause  error
}

func (d *Denial) Error() string {
	if d.Cause != nil {
		return fmt.Sprintf("%s: %v: %v", d.Kind, d.Reason, d.Cause)
	}
	return fmt.Sprintf("%s: %v", d.Kind, d.Reason)
}

func (d *Denial) Unwrap() []error {
	if d.Cause != nil {
		return []error{d.Reason, d.Cause}
	}
	return []error{d.Reason}
}

// rank orders failures by how far the check got; the furthest one is
// reported for the whole decision.
func rank(reason error) int {
	switch {
	case errors.Is(reason, ErrDependencyFailure):
		return 5
	case errors.Is(reason, ErrOwnershipMismatch):
		return 4
	case errors.Is(reason, ErrRoleMismatch):
		return 3
	case errors.Is(reason, ErrCredentialExpired):
		return 2
	case errors.Is(reason, ErrCredentialInvalid):
		return 1
	}
	return 0
}

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrCredentialMissing) ||
		errors.Is(err, ErrCredentialInvalid) ||
		errors.Is(err, ErrCredentialExpired)
}

// StatusCode maps a denial to 401 (no usable credential) or 403 (valid
// credential without the right role or ownership, or a failed lookup).
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsUnauthenticated(err) {
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

// PublicMessage is the only text a caller ever sees for a denial.
func PublicMessage(err error) string {
	if StatusCode(err) == http.StatusUnauthorized {
		return "unauthorized"
	}
	return "forbidden"
}
