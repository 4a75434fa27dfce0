package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/college_portal/internal/logging"
	"github.com/Skotchmaster/college_portal/internal/service"
)

var statusBySentinel = []struct {
	err  error
	code int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrResetTokenInvalid, http.StatusBadRequest},
	{service.ErrOTPInvalid, http.StatusBadRequest},
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrNotAllowed, http.StatusForbidden},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
}

// httpError maps a service error onto an echo.HTTPError. Unknown errors are
// logged and hidden behind a 500.
func httpError(c echo.Context, event string, err error) error {
	for _, s := range statusBySentinel {
		if errors.Is(err, s.err) {
			return echo.NewHTTPError(s.code, publicMessage(err, s.err))
		}
	}
	logging.FromContext(c.Request().Context()).Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
}

func publicMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}

func uintParam(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return uint(v), nil
}

// ParamID parses a numeric path parameter for authorization rules. An
// unparsable value yields 0, which matches no row.
func ParamID(c echo.Context, name string) uint {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(v)
}
