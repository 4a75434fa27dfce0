package authz

import (
	"context"
	"errors"

	"github.com/Skotchmaster/college_portal/internal/session"
	"github.com/Skotchmaster/college_portal/internal/tokens"
)

// OwnerCheck reports whether p owns the resource being accessed. It does
// its own lookup; false covers "no such row" as well as "someone else's".
type OwnerCheck func(ctx context.Context, p *Principal) (bool, error)

// Rule admits one namespace. Empty Roles means any role of the namespace.
type Rule struct {
	Kind  session.Kind
	Roles []Role
	Owns  OwnerCheck
}

func Admin(roles ...Role) Rule { return Rule{Kind: session.KindAdmin, Roles: roles} }
func Clerk(roles ...Role) Rule { return Rule{Kind: session.KindClerk, Roles: roles} }
func Student(owns OwnerCheck) Rule { return Rule{Kind: session.KindStudent, Owns: owns} }

func (r Rule) OwnedBy(check OwnerCheck) Rule {
	r.Owns = check
	return r
}

// Shared is the rule order for read-only resources visible to staff and
// to the owning student: admin, then any clerk, then the student owner.
func Shared(studentOwns OwnerCheck) []Rule {
	return []Rule{Admin(), Clerk(), Student(studentOwns)}
}

type Engine struct {
	codec *tokens.Codec
	audit Auditor
}

func NewEngine(codec *tokens.Codec, audit Auditor) *Engine {
	return &Engine{codec: codec, audit: audit}
}

// Resolve verifies the token of one namespace without applying any rule.
func (e *Engine) Resolve(src session.CookieSource, kind session.Kind) (*Principal, error) {
	raw, ok := session.Token(src, kind)
	if !ok {
		return nil, &Denial{Kind: kind, Reason: ErrCredentialMissing}
	}
	claims, err := e.codec.Verify(raw)
	if err != nil {
		reason := ErrCredentialInvalid
		if errors.Is(err, tokens.ErrTokenExpired) {
			reason = ErrCredentialExpired
		}
		return nil, &Denial{Kind: kind, Reason: reason}
	}
	p, err := principalFromClaims(kind, claims)
	if err != nil {
		return nil, &Denial{Kind: kind, Reason: err}
	}
	return p, nil
}

// Authorize tries rules in order and returns the first principal that
// satisfies one. Namespaces after a success are never read. When every
// rule fails, the failure that got furthest is returned.
func (e *Engine) Authorize(ctx context.Context, src session.CookieSource, rules ...Rule) (*Principal, error) {
	var denied *Denial
	record := func(d *Denial) {
		if denied == nil || rank(d.Reason) > rank(denied.Reason) {
			denied = d
		}
	}

	for _, rule := range rules {
		p, err := e.Resolve(src, rule.Kind)
		if err != nil {
			var d *Denial
			if errors.As(err, &d) {
				record(d)
			}
			continue
		}

		if len(rule.Roles) > 0 && !hasRole(rule.Roles, p.Role) {
			record(&Denial{Kind: rule.Kind, Reason: ErrRoleMismatch})
			continue
		}

		if rule.Owns != nil {
			if err := ctx.Err(); err != nil {
				record(&Denial{Kind: rule.Kind, Reason: ErrDependencyFailure, Cause: err})
				continue
			}
			owns, err := rule.Owns(ctx, p)
			if err != nil {
				record(&Denial{Kind: rule.Kind, Reason: ErrDependencyFailure, Cause: err})
				continue
			}
			if !owns {
				record(&Denial{Kind: rule.Kind, Reason: ErrOwnershipMismatch})
				continue
			}
		}
		return p, nil
	}

	if denied == nil {
		return nil, &Denial{Reason: ErrCredentialMissing}
	}
	return nil, denied
}

func hasRole(allowed []Role, role Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
