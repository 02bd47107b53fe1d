package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
)

// ErrorResponse is the JSON error body. Code is set for rejections the
// dashboard needs to tell apart programmatically.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MapDomainError converts a domain error into an appropriate echo.HTTPError.
func MapDomainError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{
			Error: "authentication required",
		})

	case errors.Is(err, domain.ErrInvalidCredential):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{
			Error: "invalid credentials",
		})

	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTokenRecordAbsent):
		return echo.NewHTTPError(http.StatusNotFound, ErrorResponse{
			Error: "not found",
		})

	case errors.Is(err, domain.ErrAccountDeactivated):
		return echo.NewHTTPError(http.StatusForbidden, ErrorResponse{
			Error: "account deactivated",
			Code:  "ACCOUNT_DEACTIVATED",
		})

	case errors.Is(err, domain.ErrInsufficientRole):
		return echo.NewHTTPError(http.StatusForbidden, ErrorResponse{
			Error: "insufficient privileges",
		})

	case errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidStatus):
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
		})

	case errors.Is(err, domain.ErrRefreshFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrorResponse{
			Error: "mailbox authorization expired, relink required",
			Code:  "RELINK_REQUIRED",
		})

	case errors.Is(err, domain.ErrProviderUnavailable):
		// Retryable by the caller; the credential itself was not judged.
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{
			Error: "identity provider unavailable",
		})

	case errors.Is(err, domain.ErrTokenGeneration),
		errors.Is(err, domain.ErrSecretMissing):
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{
			Error: "token generation error",
		})

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{
			Error: "internal error",
		})
	}
}
