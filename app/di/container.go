package di

import (
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"

	"mailboard/app/config"
	"mailboard/app/driver/postgres"
	"mailboard/app/gateway"
	"mailboard/app/port"
	"mailboard/app/rest"
	"mailboard/app/token"
	"mailboard/app/usecase"
)

// Container holds all dependencies for the application
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Drivers
	DB *postgres.DB

	// Gateways
	Provider port.IdentityProvider
	Gmail    *gateway.GmailClient

	// Ports
	Directory  port.AccountDirectory
	Audit      port.AuditSink
	Issuer     port.TokenIssuer
	TokenStore port.OAuthTokenStore
	Gate       port.AuthorizationGate

	// Usecases
	Login    *usecase.Login
	Accounts *usecase.Accounts
	Mailbox  *usecase.Mailbox
}

// NewContainer creates and initializes a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger) (*Container, error) {
	container := &Container{
		Config: cfg,
		Logger: logger,
	}

	var err error
	container.DB, err = postgres.NewConnection(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Repositories
	container.Directory = postgres.NewAccountRepository(container.DB.Pool(), logger)
	container.Audit = postgres.NewAuditRepository(container.DB.Pool(), logger)
	tokenRepo := postgres.NewOAuthTokenRepository(container.DB.Pool(), logger)

	// Gateways
	container.Provider = gateway.NewGoogleGateway(cfg.GoogleClientID, cfg.GoogleClientSecret,
		cfg.GoogleOAuthBaseURL, logger)
	container.Gmail = gateway.NewGmailClient(cfg.GmailAPIBaseURL, logger)

	// Token issuing and verification
	jwtConfig := token.JWTConfig{
		Secret:   cfg.TokenSecret,
		Issuer:   cfg.TokenIssuer,
		Audience: cfg.TokenAudience,
	}
	container.Issuer, err = token.NewJWTIssuer(jwtConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token issuer: %w", err)
	}
	localStrategy, err := token.NewLocalStrategy(jwtConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local verification: %w", err)
	}

	// Local signature first, provider assertion as fallback.
	verifier := usecase.NewChainVerifier(logger,
		localStrategy,
		usecase.NewProviderStrategy(container.Provider),
	)

	container.Gate = usecase.NewGate(verifier, container.Directory, container.Audit, logger)
	container.TokenStore = usecase.NewTokenStore(tokenRepo, container.Provider, logger)

	container.Login = usecase.NewLogin(container.Directory, container.Provider,
		container.Issuer, container.Audit, logger)
	container.Accounts = usecase.NewAccounts(container.Directory, container.Audit, logger)
	container.Mailbox = usecase.NewMailbox(container.TokenStore, container.Gmail,
		container.Audit, logger)

	logger.Info("container initialized")
	return container, nil
}

// CreateRouter creates and returns a fully configured Echo router
func (c *Container) CreateRouter() *echo.Echo {
	return rest.NewRouter(rest.RouterConfig{
		Logger:         c.Logger,
		Login:          c.Login,
		Accounts:       c.Accounts,
		Mailbox:        c.Mailbox,
		Audit:          c.Audit,
		Gate:           c.Gate,
		DB:             c.DB,
		RateLimitRPS:   c.Config.RateLimitRPS,
		RateLimitBurst: c.Config.RateLimitBurst,
	})
}

// Close closes all resources
func (c *Container) Close() error {
	if c.DB != nil {
		c.DB.Close()
	}
	c.Logger.Info("container closed")
	return nil
}
