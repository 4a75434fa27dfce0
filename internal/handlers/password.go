package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/service"
)

type PasswordHandler struct {
	Svc *service.PasswordService
}

type forgotRequest struct {
	RollNo string `json:"roll_no" validate:"required,max=32"`
}

type resetRequest struct {
	Password string `json:"password" validate:"required"`
}

// Forgot answers the same way whether or not the roll number exists.
func (h *PasswordHandler) Forgot(c echo.Context) error {
	var req forgotRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.Svc.Forgot(ctx, req.RollNo); err != nil {
		if errors.Is(err, service.ErrValidation) {
			return httpError(c, "forgot_password_failed", err)
		}
		// a failure here only happens for real accounts; keep the answer uniform
		logging.FromContext(ctx).Error("forgot_password_failed", "status", 500, "error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the account exists, a reset link has been sent"})
}

func (h *PasswordHandler) Reset(c echo.Context) error {
	var req resetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.Reset(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		return httpError(c, "reset_password_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
