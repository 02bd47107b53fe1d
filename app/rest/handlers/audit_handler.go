package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// AuditHandler exposes the audit trail to admins
type AuditHandler struct {
	audit  port.AuditSink
	logger *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit port.AuditSink, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{
		audit:  audit,
		logger: logger,
	}
}

// List handles GET /v1/admin/audit
func (h *AuditHandler) List(c echo.Context) error {
	category := domain.AuditCategory(c.QueryParam("category"))
	switch category {
	case domain.AuditCategoryAuth, domain.AuditCategoryAccount, domain.AuditCategoryMailbox:
	case "":
		category = domain.AuditCategoryAuth
	default:
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "unknown audit category"})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	events, err := h.audit.List(c.Request().Context(), category, limit, offset)
	if err != nil {
		h.logger.Error("failed to list audit events", "category", category, "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}
