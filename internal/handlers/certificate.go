package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/service"
)

type CertificateHandler struct {
	Svc *service.CertificateService
}

type verifyCertificateRequest struct {
	CertID string `json:"cert_id" validate:"required,max=32"`
	RollNo string `json:"roll_no" validate:"required,max=20"`
}

// Verify is public: anyone holding a certificate can check it.
func (h *CertificateHandler) Verify(c echo.Context) error {
	var req verifyCertificateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"valid": false, "message": "missing params"})
	}
	res, err := h.Svc.Verify(c.Request().Context(), req.CertID, req.RollNo, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		return httpError(c, "certificate_verify_failed", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CertificateHandler) Download(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uintParam(c, "request_id")
	if err != nil {
		return err
	}
	cert, err := h.Svc.Issue(c.Request().Context(), p, id)
	if err != nil {
		return httpError(c, "certificate_download_failed", err)
	}
	c.Response().Header().Set("Cache-Control", "private, no-store")
	return c.JSON(http.StatusOK, cert)
}
