package middleware

import (
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"

	"mailboard/app/domain"
	"mailboard/app/port"
	"mailboard/app/rest/handlers"
)

// AuthMiddleware runs the authorization gate on incoming requests and
// attaches the admitted principal to the request context.
type AuthMiddleware struct {
	gate   port.AuthorizationGate
	logger *slog.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(gate port.AuthorizationGate, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		gate:   gate,
		logger: logger,
	}
}

// RequireAuth admits any authenticated active account
func (m *AuthMiddleware) RequireAuth() echo.MiddlewareFunc {
	return m.require()
}

// RequireRole admits only accounts holding one of the given roles. The
// role comes from the directory record, never from the token.
func (m *AuthMiddleware) RequireRole(roles ...domain.AccountRole) echo.MiddlewareFunc {
	return m.require(roles...)
}

// RequireAdmin admits admins only
func (m *AuthMiddleware) RequireAdmin() echo.MiddlewareFunc {
	return m.require(domain.RoleAdmin)
}

func (m *AuthMiddleware) require(roles ...domain.AccountRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			principal, err := m.gate.Authorize(ctx, m.extractCredential(c), roles...)
			if err != nil {
				m.logger.Debug("request rejected by gate", "path", c.Path(), "error", err)
				return handlers.MapDomainError(err)
			}

			c.SetRequest(c.Request().WithContext(domain.WithPrincipal(ctx, principal)))
			return next(c)
		}
	}
}

// OptionalAuth attaches a principal when a valid credential is present but
// lets unauthenticated requests through.
func (m *AuthMiddleware) OptionalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			raw := m.extractCredential(c)
			if raw == "" {
				return next(c)
			}

			principal, err := m.gate.Authorize(ctx, raw)
			if err != nil {
				m.logger.Debug("optional auth failed", "path", c.Path(), "error", err)
				return next(c)
			}

			c.SetRequest(c.Request().WithContext(domain.WithPrincipal(ctx, principal)))
			return next(c)
		}
	}
}

// extractCredential reads the bearer token. The Authorization header is the
// only accepted transport; query-string credentials leak through logs.
func (m *AuthMiddleware) extractCredential(c echo.Context) string {
	auth := c.Request().Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return auth
}
