package authz

import (
	"time"

	"github.com/Skotchmaster/college_portal/internal/session"
	"github.com/Skotchmaster/college_portal/internal/tokens"
)

type Role string

const (
	RoleStudent Role = "student"

	RoleAdmission   Role = "admission"
	RoleScholarship Role = "scholarship"
	RoleFaculty     Role = "faculty"

	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var (
	ClerkRoles = []Role{RoleAdmission, RoleScholarship, RoleFaculty}
	AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}
)

// RolesFor returns the closed role set of a namespace.
func RolesFor(kind session.Kind) []Role {
	switch kind {
	case session.KindStudent:
		return []Role{RoleStudent}
	case session.KindClerk:
		return ClerkRoles
	case session.KindAdmin:
		return AdminRoles
	}
	return nil
}

func (r Role) BelongsTo(kind session.Kind) bool {
	for _, allowed := range RolesFor(kind) {
		if r == allowed {
			return true
		}
	}
	return false
}

func ParseClerkRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.BelongsTo(session.KindClerk)
}

// Principal is a verified actor. Role is a snapshot taken at login and is
// not refreshed from the database until the next login.
type Principal struct {
	Kind      session.Kind
	Role      Role
	RollNo    string
	StudentID uint
	ClerkID   uint
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Subject is a printable identity used in logs and events.
func (p *Principal) Subject() string {
	switch p.Kind {
	case session.KindStudent:
		return p.RollNo
	case session.KindClerk, session.KindAdmin:
		if p.Email != "" {
			return p.Email
		}
	}
	return string(p.Role)
}

func principalFromClaims(kind session.Kind, claims *tokens.Claims) (*Principal, error) {
	role := Role(claims.Role)
	if !role.BelongsTo(kind) {
		return nil, ErrRoleMismatch
	}

	p := &Principal{
		Kind:      kind,
		Role:      role,
		RollNo:    claims.RollNo,
		StudentID: claims.StudentID,
		ClerkID:   claims.ClerkID,
		Email:     claims.Email,
	}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}

	switch kind {
	case session.KindStudent:
		if p.StudentID == 0 || p.RollNo == "" {
			return nil, ErrCredentialInvalid
		}
	case session.KindClerk:
		if p.ClerkID == 0 {
			return nil, ErrCredentialInvalid
		}
	}
	return p, nil
}
