package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
	"mailboard/app/usecase"
)

// MailboxHandler handles the linked-mailbox endpoints
type MailboxHandler struct {
	mailbox *usecase.Mailbox
	logger  *slog.Logger
}

// NewMailboxHandler creates a new mailbox handler
func NewMailboxHandler(mailbox *usecase.Mailbox, logger *slog.Logger) *MailboxHandler {
	return &MailboxHandler{
		mailbox: mailbox,
		logger:  logger,
	}
}

// Link handles POST /v1/mailbox/link
func (h *MailboxHandler) Link(c echo.Context) error {
	principal, err := domain.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return MapDomainError(err)
	}

	var req usecase.LinkRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	rec, err := h.mailbox.Link(c.Request().Context(), principal, req)
	if err != nil {
		h.logger.Error("failed to link mailbox", "subject_id", principal.SubjectID, "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, rec)
}

// Linkage handles GET /v1/mailbox and reports the linkage without tokens
func (h *MailboxHandler) Linkage(c echo.Context) error {
	principal, err := domain.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return MapDomainError(err)
	}

	rec, err := h.mailbox.Linkage(c.Request().Context(), principal)
	if err != nil {
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, rec)
}

// ListMessages handles GET /v1/mailbox/messages
func (h *MailboxHandler) ListMessages(c echo.Context) error {
	principal, err := domain.PrincipalFromContext(c.Request().Context())
	if err != nil {
		return MapDomainError(err)
	}

	maxResults, _ := strconv.Atoi(c.QueryParam("max_results"))

	page, err := h.mailbox.ListInbox(c.Request().Context(), principal,
		c.QueryParam("q"), maxResults, c.QueryParam("page_token"))
	if err != nil {
		h.logger.Warn("inbox listing failed", "subject_id", principal.SubjectID, "error", err)
		return MapDomainError(err)
	}

	return c.JSON(http.StatusOK, page)
}
