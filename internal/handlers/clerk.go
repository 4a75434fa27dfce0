package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/service"
	"github.com/Skotchmaster/college_portal/internal/util"
)

type ClerkHandler struct {
	Requests *service.RequestService
	Students *service.StudentService
}

type statusChangeRequest struct {
	Status       string `json:"status"        validate:"required"`
	Purpose      string `json:"purpose"       validate:"max=500"`
	RejectReason string `json:"reject_reason" validate:"max=500"`
}

func (h *ClerkHandler) ListRequests(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	from, size := util.PageParams(c)
	total, items, err := h.Requests.ListForClerk(c.Request().Context(), p, c.QueryParam("status"), from, size)
	if err != nil {
		return httpError(c, "clerk_requests_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "requests": items})
}

func (h *ClerkHandler) GetRequest(c echo.Context) error {
	id, err := uintParam(c, "request_id")
	if err != nil {
		return err
	}
	req, err := h.Requests.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(c, "clerk_request_failed", err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *ClerkHandler) UpdateRequest(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := uintParam(c, "request_id")
	if err != nil {
		return err
	}
	var body statusChangeRequest
	if err := bindAndValidate(c, &body); err != nil {
		return err
	}

	err = h.Requests.UpdateStatus(c.Request().Context(), p, id, service.StatusChange{
		Status:       body.Status,
		Purpose:      body.Purpose,
		RejectReason: body.RejectReason,
	})
	if err != nil {
		return httpError(c, "clerk_request_update_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func (h *ClerkHandler) SearchStudents(c echo.Context) error {
	from, size := util.PageParams(c)
	total, docs, err := h.Students.Find(c.Request().Context(), c.QueryParam("q"), from, size)
	if err != nil {
		return httpError(c, "student_search_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "students": docs})
}

type updateRecordRequest struct {
	Name        *string `json:"student_name" validate:"omitempty,max=100"`
	FatherName  *string `json:"father_name"  validate:"omitempty,max=100"`
	Gender      *string `json:"gender"       validate:"omitempty,max=20"`
	Category    *string `json:"category"     validate:"omitempty,max=20"`
	Phone       *string `json:"phone_no"     validate:"omitempty,min=7,max=15,numeric"`
	DateOfBirth *string `json:"dob"          validate:"omitempty,max=10"`
}

type admissionRequest struct {
	Name        string `json:"name"          validate:"required,max=100"`
	FatherName  string `json:"father_name"   validate:"max=100"`
	Gender      string `json:"gender"        validate:"max=20"`
	Category    string `json:"category"      validate:"max=20"`
	Branch      string `json:"branch"        validate:"required,max=10"`
	Email       string `json:"email"         validate:"omitempty,email,max=254"`
	Phone       string `json:"mobile"        validate:"omitempty,min=7,max=15,numeric"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,max=10"`
}

func (h *ClerkHandler) StudentRecord(c echo.Context) error {
	rec, err := h.Students.Record(c.Request().Context(), c.Param("rollno"))
	if err != nil {
		return httpError(c, "student_record_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": rec})
}

func (h *ClerkHandler) UpdateStudentRecord(c echo.Context) error {
	var req updateRecordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, err := h.Students.UpdateRecord(c.Request().Context(), c.Param("rollno"), service.RecordUpdate{
		Name:        req.Name,
		FatherName:  req.FatherName,
		Gender:      req.Gender,
		Category:    req.Category,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return httpError(c, "student_record_update_failed", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "student": rec})
}

func (h *ClerkHandler) AdmitStudent(c echo.Context) error {
	var req admissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	rec, err := h.Students.Admit(c.Request().Context(), service.Admission{
		Name:        req.Name,
		FatherName:  req.FatherName,
		Gender:      req.Gender,
		Category:    req.Category,
		Branch:      req.Branch,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
	})
	if err != nil {
		return httpError(c, "admission_failed", err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "student_id": rec.ID, "roll_no": rec.RollNo})
}
