package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/util"
)

type AdminHandler struct {
	Staff    *service.StaffService
	Students *service.StudentService
}

type createClerkRequest struct {
	Name       string `json:"name"        validate:"required,max=100"`
	Email      string `json:"email"       validate:"required,email"`
	EmployeeID string `json:"employee_id" validate:"required,max=50"`
	Role       string `json:"role"        validate:"required,oneof=admission scholarship faculty"`
	Password   string `json:"password"    validate:"required,min=8"`
}

type patchClerkRequest struct {
	IsActive *bool   `json:"is_active"`
	Role     *string `json:"role" validate:"omitempty,oneof=admission scholarship faculty"`
}

func (h *AdminHandler) CreateClerk(c echo.Context) error {
	var req createClerkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	clerk, err := h.Staff.CreateClerk(c.Request().Context(), service.NewClerk{
		Name:       req.Name,
		Email:      req.Email,
		EmployeeID: req.EmployeeID,
		Role:       req.Role,
		Password:   req.Password,
	})
	if err != nil {
		return httpError(c, "create_clerk_failed", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "clerk": clerk})
}

func (h *AdminHandler) ListClerks(c echo.Context) error {
	clerks, err := h.Staff.ListClerks(c.Request().Context())
	if err != nil {
		return httpError(c, "list_clerks_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"clerks": clerks})
}

func (h *AdminHandler) UpdateClerk(c echo.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	var req patchClerkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	clerk, err := h.Staff.UpdateClerk(c.Request().Context(), id, service.ClerkPatch{IsActive: req.IsActive, Role: req.Role})
	if err != nil {
		return httpError(c, "update_clerk_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "clerk": clerk})
}

func (h *AdminHandler) ReindexStudents(c echo.Context) error {
	n, err := h.Students.Reindex(c.Request().Context())
	if err != nil {
		return httpError(c, "reindex_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"indexed": n})
}

func (h *AdminHandler) ListStudents(c echo.Context) error {
	from, size := util.PageParams(c)
	total, items, err := h.Students.ListByIntake(c.Request().Context(), c.QueryParam("year"), c.QueryParam("branch"), from, size)
	if err != nil {
		return httpError(c, "list_students_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "students": items})
}

func (h *AdminHandler) StudentStats(c echo.Context) error {
	stats, err := h.Students.Stats(c.Request().Context())
	if err != nil {
		return httpError(c, "student_stats_failed", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) StudentRecord(c echo.Context) error {
	rec, err := h.Students.Record(c.Request().Context(), c.Param("rollno"))
	if err != nil {
		return httpError(c, "student_record_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": rec})
}
