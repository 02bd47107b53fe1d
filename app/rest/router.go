package rest

import (
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"mailboard/app/port"
	"mailboard/app/rest/handlers"
	custommw "mailboard/app/rest/middleware"
	"mailboard/app/usecase"
)

// RouterConfig holds router configuration
type RouterConfig struct {
	Logger   *slog.Logger
	Login    *usecase.Login
	Accounts *usecase.Accounts
	Mailbox  *usecase.Mailbox
	Audit    port.AuditSink
	Gate     port.AuthorizationGate
	DB       handlers.HealthChecker

	RateLimitRPS   float64
	RateLimitBurst int
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// NewRouter creates and configures the Echo router
func NewRouter(config RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	authHandler := handlers.NewAuthHandler(config.Login, config.Logger)
	accountHandler := handlers.NewAccountHandler(config.Accounts, config.Logger)
	mailboxHandler := handlers.NewMailboxHandler(config.Mailbox, config.Logger)
	auditHandler := handlers.NewAuditHandler(config.Audit, config.Logger)
	healthHandler := handlers.NewHealthHandler(config.DB, config.Logger)

	authMiddleware := custommw.NewAuthMiddleware(config.Gate, config.Logger)
	rateLimiter := custommw.NewRateLimiter(config.RateLimitRPS, config.RateLimitBurst)

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}, error=${error}\n",
	}))
	e.Use(custommw.SecurityHeaders())
	e.Use(rateLimiter.RateLimit())

	v1 := e.Group("/v1")

	// Health endpoints (no auth required)
	v1.GET("/health", healthHandler.HealthCheck)
	v1.GET("/ready", healthHandler.ReadinessCheck)
	v1.GET("/live", healthHandler.LivenessCheck)

	// Authentication endpoints
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.PasswordLogin)
	auth.POST("/login/google", authHandler.ProviderLogin)
	auth.POST("/admin/login", authHandler.AdminLogin)
	auth.GET("/session", authHandler.Session, authMiddleware.RequireAuth())

	// Mailbox endpoints (any authenticated active account)
	mailbox := v1.Group("/mailbox")
	mailbox.Use(authMiddleware.RequireAuth())
	mailbox.GET("", mailboxHandler.Linkage)
	mailbox.POST("/link", mailboxHandler.Link)
	mailbox.GET("/messages", mailboxHandler.ListMessages)

	// Admin endpoints
	admin := v1.Group("/admin")
	admin.Use(authMiddleware.RequireAdmin())
	admin.GET("/accounts", accountHandler.List)
	admin.POST("/accounts", accountHandler.Create)
	admin.GET("/accounts/:subjectId", accountHandler.Get)
	admin.PUT("/accounts/:subjectId/role", accountHandler.SetRole)
	admin.PUT("/accounts/:subjectId/status", accountHandler.SetStatus)
	admin.GET("/audit", auditHandler.List)

	return e
}
