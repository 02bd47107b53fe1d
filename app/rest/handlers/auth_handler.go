package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
	"mailboard/app/usecase"
)

// AuthHandler handles login and session HTTP requests
type AuthHandler struct {
	login  *usecase.Login
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(login *usecase.Login, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		login:  login,
		logger: logger,
	}
}

// PasswordLoginRequest is the email/password login body
type PasswordLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProviderLoginRequest carries the Google-issued ID token
type ProviderLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// PasswordLogin handles POST /v1/auth/login
func (h *AuthHandler) PasswordLogin(c echo.Context) error {
	var req PasswordLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := h.login.WithPassword(c.Request().Context(), req.Email, req.Password,
		c.RealIP(), c.Request().UserAgent())
	if err != nil {
		h.logger.Warn("password login rejected", "ip", c.RealIP(), "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// ProviderLogin handles POST /v1/auth/login/google
func (h *AuthHandler) ProviderLogin(c echo.Context) error {
	var req ProviderLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := h.login.WithProvider(c.Request().Context(), req.IDToken,
		c.RealIP(), c.Request().UserAgent())
	if err != nil {
		h.logger.Warn("provider login rejected", "ip", c.RealIP(), "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// AdminLogin handles POST /v1/auth/admin/login
func (h *AuthHandler) AdminLogin(c echo.Context) error {
	var req PasswordLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	result, err := h.login.AdminWithPassword(c.Request().Context(), req.Email, req.Password,
		c.RealIP(), c.Request().UserAgent())
	if err != nil {
		h.logger.Warn("admin login rejected", "ip", c.RealIP(), "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// Session handles GET /v1/auth/session and echoes the admitted principal
func (h *AuthHandler) Session(c echo.Context) error {
	principal, err := domain.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return MapDomainError(err)
	}
	return c.JSON(http.StatusOK, principal)
}
