package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/session"
)

type AuthHandler struct {
	Svc      *service.AuthService
	Sessions *session.Store
}

type studentLoginRequest struct {
	RollNo   string `json:"roll_no"  form:"roll_no"  validate:"required,max=32"`
	Password string `json:"password" form:"password" validate:"required_without=DOB"`
	DOB      string `json:"dob"      form:"dob"      validate:"required_without=Password"`
}

type staffLoginRequest struct {
	Email    string `json:"email"    form:"email"    validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

func (h *AuthHandler) StudentLogin(c echo.Context) error {
	ctx := c.Request().Context()
	var req studentLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		logging.FromContext(ctx).Warn("login_error", "handler", "student_login", "status", 400, "error", err)
		return err
	}
	res, err := h.Svc.LoginStudent(ctx, req.RollNo, req.Password, req.DOB)
	if err != nil {
		return httpError(c, "student_login_failed", err)
	}
	return h.started(c, res)
}

func (h *AuthHandler) ClerkLogin(c echo.Context) error {
	ctx := c.Request().Context()
	var req staffLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		logging.FromContext(ctx).Warn("login_error", "handler", "clerk_login", "status", 400, "error", err)
		return err
	}
	res, err := h.Svc.LoginClerk(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(c, "clerk_login_failed", err)
	}
	return h.started(c, res)
}

func (h *AuthHandler) AdminLogin(c echo.Context) error {
	ctx := c.Request().Context()
	var req staffLoginRequest
	if err := bindAndValidate(c, &req); err != nil {
		logging.FromContext(ctx).Warn("login_error", "handler", "admin_login", "status", 400, "error", err)
		return err
	}
	res, err := h.Svc.LoginAdmin(ctx, req.Email, req.Password)
	if err != nil {
		return httpError(c, "admin_login_failed", err)
	}
	return h.started(c, res)
}

func (h *AuthHandler) started(c echo.Context, res *service.LoginResult) error {
	h.Sessions.Start(c, res.Kind, res.Token)
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"kind":       res.Kind,
		"expires_at": res.ExpiresAt,
		"profile":    res.Profile,
	})
}

// Logout clears the namespace cookies. It needs no valid token, so an
// expired session can still be cleaned up.
func (h *AuthHandler) Logout(kind session.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		h.Sessions.End(c, kind)
		logging.FromContext(c.Request().Context()).Info("logout", "kind", kind)
		return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
	}
}

// Me echoes the verified principal of the route's namespace.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := authz.PrincipalFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"kind":       p.Kind,
		"role":       p.Role,
		"roll_no":    p.RollNo,
		"email":      p.Email,
		"expires_at": p.ExpiresAt,
	})
}
