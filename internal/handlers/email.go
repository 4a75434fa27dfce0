package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/service"
)

type EmailHandler struct {
	Svc *service.EmailService
}

type sendOTPRequest struct {
	RollNo string `json:"roll_no" validate:"required,max=20"`
}

type updateEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

type verifyEmailRequest struct {
	Email string `json:"email" validate:"required,email,max=254"`
	OTP   string `json:"otp"   validate:"required,len=6,numeric"`
}

func (h *EmailHandler) SendOTP(c echo.Context) error {
	var req sendOTPRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.SendVerificationOTP(c.Request().Context(), req.RollNo); err != nil {
		return httpError(c, "otp_send_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "OTP sent to the registered email"})
}

func (h *EmailHandler) SendUpdateOTP(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.SendUpdateOTP(c.Request().Context(), p, req.Email); err != nil {
		return httpError(c, "otp_send_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *EmailHandler) VerifyUpdateOTP(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req verifyEmailRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.Svc.VerifyOTP(c.Request().Context(), p, req.Email, req.OTP); err != nil {
		return httpError(c, "otp_verify_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "email": req.Email, "is_email_verified": true})
}
