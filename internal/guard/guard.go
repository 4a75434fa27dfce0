package guard

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/session"
)

const LandingPath = "/"

type Resolver interface {
	Resolve(src session.CookieSource, kind session.Kind) (*authz.Principal, error)
}

// Guard protects a page subtree rooted at /<kind>. It only ever lets the
// request through or redirects; it never renders an error page.
type Guard struct {
	Resolver Resolver
}

func New(r Resolver) *Guard {
	return &Guard{Resolver: r}
}

func (g *Guard) Subtree(kind session.Kind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := logging.FromContext(req.Context()).With("guard", string(kind))

			p, err := g.Resolver.Resolve(req, kind)
			if err != nil {
				l.Info("guard_redirect", "reason", err.Error(), "path", req.URL.Path)
				return c.Redirect(http.StatusSeeOther, LandingPath)
			}

			if target, ok := Expected(p, req.URL.Path); !ok {
				return c.Redirect(http.StatusSeeOther, target)
			}

			authz.SetPrincipal(c, p)
			return next(c)
		}
	}
}

// HomePath is where a principal lands after login.
func HomePath(p *authz.Principal) string {
	switch p.Kind {
	case session.KindStudent:
		return "/student/profile"
	case session.KindClerk:
		return "/clerk/" + string(p.Role) + "/dashboard"
	case session.KindAdmin:
		return "/admin/dashboard"
	}
	return LandingPath
}

// Expected decides whether path is consistent with the principal's role.
// The expected subtree comes from the verified role, never from the path.
// When it is not, the returned string is the redirect target.
func Expected(p *authz.Principal, path string) (string, bool) {
	root := "/" + string(p.Kind)
	rest := strings.Trim(strings.TrimPrefix(path, root), "/")
	if !strings.HasPrefix(path, root) || (len(path) > len(root) && path[len(root)] != '/') {
		return HomePath(p), false
	}

	first := rest
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		first = rest[:i]
	}

	switch p.Kind {
	case session.KindClerk:
		switch first {
		case "", "dashboard", "redirects":
			return HomePath(p), false
		}
		if role, ok := authz.ParseClerkRole(first); ok && role != p.Role {
			return HomePath(p), false
		}
	case session.KindAdmin, session.KindStudent:
		if first == "" {
			return HomePath(p), false
		}
	}
	return "", true
}
