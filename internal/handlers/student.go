package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/authz"
	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/util"
)

const maxScreenshotBytes = 5 << 20

type StudentHandler struct {
	Requests *service.RequestService
	Students *service.StudentService
}

func principal(c echo.Context) (*authz.Principal, error) {
	p, ok := authz.PrincipalFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return p, nil
}

func (h *StudentHandler) Profile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	st, err := h.Students.Profile(c.Request().Context(), p)
	if err != nil {
		return httpError(c, "profile_failed", err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *StudentHandler) ListRequests(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	from, size := util.PageParams(c)
	total, items, err := h.Requests.ListForStudent(c.Request().Context(), p, from, size)
	if err != nil {
		return httpError(c, "student_requests_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "requests": items})
}

// readUpload reads a multipart file field. A missing field is not an error.
func readUpload(c echo.Context, field string, limit int64) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err == http.ErrMissingFile {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: invalid %s", service.ErrValidation, field)
	}
	if fh.Size > limit {
		return nil, fmt.Errorf("%w: %s is too large", service.ErrValidation, field)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

func (h *StudentHandler) CreateRequest(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	shot, err := readUpload(c, "payment_screenshot", maxScreenshotBytes)
	if err != nil {
		return httpError(c, "student_request_create_failed", err)
	}
	in := service.NewRequest{
		CertificateType: c.FormValue("certificate_type"),
		TransactionID:   c.FormValue("transaction_id"),
		Screenshot:      shot,
	}
	if len(shot) > 0 {
		in.ScreenshotType = http.DetectContentType(shot)
	}

	req, err := h.Requests.Create(c.Request().Context(), p, in)
	if err != nil {
		return httpError(c, "student_request_create_failed", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "request_id": req.RequestID, "request": req})
}

// RequestScreenshot streams the payment screenshot. Access is decided by the
// shared admin, clerk, owner rule chain before this runs.
func (h *StudentHandler) RequestScreenshot(c echo.Context) error {
	id, err := uintParam(c, "request_id")
	if err != nil {
		return err
	}
	img, err := h.Requests.Screenshot(c.Request().Context(), id)
	if err != nil {
		return httpError(c, "screenshot_failed", err)
	}
	c.Response().Header().Set("Cache-Control", "private, no-store")
	return c.Blob(http.StatusOK, img.ContentType, img.PaymentScreenshot)
}

func (h *StudentHandler) UploadPhoto(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	data, err := readUpload(c, "photo", service.MaxPhotoBytes)
	if err != nil {
		return httpError(c, "photo_upload_failed", err)
	}
	img, err := h.Students.UploadPhoto(c.Request().Context(), p, data)
	if err != nil {
		return httpError(c, "photo_upload_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "content_type": img.ContentType})
}

func (h *StudentHandler) Photo(c echo.Context) error {
	img, err := h.Students.Photo(c.Request().Context(), c.Param("rollno"))
	if err != nil {
		return httpError(c, "photo_failed", err)
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=300")
	return c.Blob(http.StatusOK, img.ContentType, img.Photo)
}

type updateProfileRequest struct {
	Phone string `json:"phone_no" validate:"required,min=7,max=15,numeric"`
}

func (h *StudentHandler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	st, err := h.Students.UpdateProfile(c.Request().Context(), p, req.Phone)
	if err != nil {
		return httpError(c, "profile_update_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "student": st})
}
