package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mailfold/mailroom/internal/domain"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

// Accepted acknowledges work that is durably queued but not yet processed.
func Accepted(c echo.Context, payload any) error {
	return c.JSON(http.StatusAccepted, payload)
}

// MultiStatus carries a per-item ledger for partially successful batches.
func MultiStatus(c echo.Context, payload any) error {
	return c.JSON(http.StatusMultiStatus, payload)
}

// Fail maps a domain error to its transport status and renders the
// code+message envelope. Unrecognized errors become opaque 500s so internal
// detail never leaks to devices.
func Fail(c echo.Context, err error) error {
	var coded domain.Error
	if !errors.As(err, &coded) {
		slog.ErrorContext(
			c.Request().Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("path", c.Path()),
			slog.String("module", "rest"),
		)
		return c.JSON(http.StatusInternalServerError, errorResponse{
			Error: errorBody{Code: "internal_error", Message: "internal error"},
		})
	}

	return c.JSON(statusFor(coded), errorResponse{
		Error: errorBody{Code: coded.Code, Message: coded.Message},
	})
}

func statusFor(err domain.Error) int {
	switch err.Code {
	case domain.ErrInvalidCredentials.Code,
		domain.ErrExpiredToken.Code,
		domain.ErrMalformedToken.Code:
		return http.StatusUnauthorized
	case domain.ErrTenantMismatch.Code,
		domain.ErrForbiddenSite.Code,
		domain.ErrMissingCapability.Code:
		return http.StatusForbidden
	case domain.ErrNoSitesConfigured.Code,
		domain.ErrNotFound.Code:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
