package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
	"mailboard/app/usecase"
)

// AccountHandler handles the admin account management endpoints
type AccountHandler struct {
	accounts *usecase.Accounts
	logger   *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accounts *usecase.Accounts, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// SetRoleRequest is the role mutation body
type SetRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

// SetStatusRequest is the status mutation body
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

// List handles GET /v1/admin/accounts
func (h *AccountHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	accounts, err := h.accounts.List(c.Request().Context(), limit, offset)
	if err != nil {
		h.logger.Error("failed to list accounts", "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

// Create handles POST /v1/admin/accounts
func (h *AccountHandler) Create(c echo.Context) error {
	var req usecase.CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	account, err := h.accounts.Create(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		h.logger.Error("failed to create account", "email", req.Email, "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusCreated, account)
}

// Get handles GET /v1/admin/accounts/:subjectId
func (h *AccountHandler) Get(c echo.Context) error {
	account, err := h.accounts.Get(c.Request().Context(), c.Param("subjectId"))
	if err != nil {
		return MapDomainError(err)
	}
	return c.JSON(http.StatusOK, account)
}

// SetRole handles PUT /v1/admin/accounts/:subjectId/role
func (h *AccountHandler) SetRole(c echo.Context) error {
	var req SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	account, err := h.accounts.SetRole(c.Request().Context(), actorFromContext(c),
		c.Param("subjectId"), domain.AccountRole(req.Role))
	if err != nil {
		h.logger.Error("failed to set role", "subject_id", c.Param("subjectId"), "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, account)
}

// SetStatus handles PUT /v1/admin/accounts/:subjectId/status
func (h *AccountHandler) SetStatus(c echo.Context) error {
	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	account, err := h.accounts.SetStatus(c.Request().Context(), actorFromContext(c),
		c.Param("subjectId"), domain.AccountStatus(req.Status))
	if err != nil {
		h.logger.Error("failed to set status", "subject_id", c.Param("subjectId"), "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, account)
}

// actorFromContext returns the admitted principal, or nil on unauthenticated
// routes. Mutation audit entries record the actor when present.
func actorFromContext(c echo.Context) *domain.Principal {
	principal, err := domain.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return nil
	}
	return principal
}
