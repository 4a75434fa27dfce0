package authz

import (
	"github.com/labstack/echo/v4"
)

const CtxPrincipal = "principal"

// Require guards an API route. It never redirects: a denial is a 401 or a
// 403 with a fixed body.
func (e *Engine) Require(rules ...Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := e.Authorize(c.Request().Context(), c.Request(), rules...)
			if err != nil {
				return e.Deny(c, err)
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// RequireFor is Require for rules that depend on the request, such as an
// ownership check on a path parameter.
func (e *Engine) RequireFor(build func(c echo.Context) []Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := e.Authorize(c.Request().Context(), c.Request(), build(c)...)
			if err != nil {
				return e.Deny(c, err)
			}
			SetPrincipal(c, p)
			return next(c)
		}
	}
}

// Deny audits err and turns it into the uniform HTTP error.
func (e *Engine) Deny(c echo.Context, err error) error {
	if e.audit != nil {
		e.audit.Denied(c.Request().Context(), c.Request().URL.Path, err)
	}
	return echo.NewHTTPError(StatusCode(err), PublicMessage(err))
}

func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(CtxPrincipal, p)
	c.Set("role", string(p.Role))
}

func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(CtxPrincipal).(*Principal)
	return p, ok && p != nil
}
