package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mailboard/app/domain"
	"mailboard/app/port"
	"mailboard/app/token"
	"mailboard/app/utils/security"
)

// LoginResult holds the data returned by a successful login.
type LoginResult struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal *domain.Principal `json:"principal"`
}

// Login handles the self-service and admin login flows. Login endpoints
// are the only place lastLogin/IP/UA are stamped; authenticated requests
// elsewhere never touch the directory record.
type Login struct {
	directory port.AccountDirectory
	provider  port.IdentityProvider
	issuer    port.TokenIssuer
	audit     port.AuditSink
	logger    *slog.Logger
}

// NewLogin creates the login usecase.
func NewLogin(directory port.AccountDirectory, provider port.IdentityProvider, issuer port.TokenIssuer, audit port.AuditSink, logger *slog.Logger) *Login {
	return &Login{
		directory: directory,
		provider:  provider,
		issuer:    issuer,
		audit:     audit,
		logger:    logger.With("component", "login"),
	}
}

// WithPassword authenticates an email/password account and issues a
// general session token.
func (uc *Login) WithPassword(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	result, err := uc.passwordLogin(ctx, email, password, ip, userAgent, token.UserSessionTTL, nil)
	uc.recordLoginEvent(ctx, "password_login", result, err)
	return result, err
}

// WithProvider authenticates an identity-provider token, auto-provisioning
// the directory record on first login, and issues a general session token.
func (uc *Login) WithProvider(ctx context.Context, idToken, ip, userAgent string) (*LoginResult, error) {
	result, err := uc.providerLogin(ctx, idToken, ip, userAgent)
	uc.recordLoginEvent(ctx, "provider_login", result, err)
	return result, err
}

// AdminWithPassword authenticates an admin account with a shorter elevated
// validity window. Non-admin accounts are rejected before any token is
// issued.
func (uc *Login) AdminWithPassword(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	result, err := uc.passwordLogin(ctx, email, password, ip, userAgent, token.AdminSessionTTL, []domain.AccountRole{domain.RoleAdmin})
	uc.recordLoginEvent(ctx, "admin_login", result, err)
	return result, err
}

func (uc *Login) passwordLogin(ctx context.Context, email, password, ip, userAgent string, ttl time.Duration, requiredRoles []domain.AccountRole) (*LoginResult, error) {
	account, err := uc.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Same rejection as a bad password so login probing cannot
			// enumerate registered emails.
			return nil, domain.ErrInvalidCredential
		}
		return nil, err
	}

	if !security.CheckPassword(account.PasswordHash, password) {
		return nil, domain.ErrInvalidCredential
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountDeactivated
	}
	if len(requiredRoles) > 0 && !roleSatisfied(account.Role, requiredRoles) {
		return nil, domain.ErrInsufficientRole
	}

	return uc.finishLogin(ctx, account, ip, userAgent, ttl)
}

func (uc *Login) providerLogin(ctx context.Context, idToken, ip, userAgent string) (*LoginResult, error) {
	if idToken == "" {
		return nil, domain.ErrMissingCredential
	}

	identity, err := uc.provider.VerifyExternalToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	account, err := uc.directory.EnsureAccount(ctx, identity.SubjectID, identity.Email, identity.Name)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountDeactivated
	}

	return uc.finishLogin(ctx, account, ip, userAgent, token.UserSessionTTL)
}

func (uc *Login) finishLogin(ctx context.Context, account *domain.Account, ip, userAgent string, ttl time.Duration) (*LoginResult, error) {
	now := time.Now()
	signed, err := uc.issuer.Issue(account.SubjectID, account.Role, account.Email, ttl)
	if err != nil {
		uc.logger.ErrorContext(ctx, "failed to issue session token", "error", err)
		return nil, err
	}

	if err := uc.directory.RecordLogin(ctx, account.SubjectID, ip, userAgent); err != nil {
		// Login stamps are best-effort; the session is already valid.
		uc.logger.Warn("failed to record login stamp", "subject_id", account.SubjectID, "error", err)
	}

	return &LoginResult{
		Token:     signed,
		ExpiresAt: now.Add(ttl),
		Principal: &domain.Principal{
			SubjectID: account.SubjectID,
			Email:     account.Email,
			Role:      account.Role,
			Status:    account.Status,
		},
	}, nil
}

func (uc *Login) recordLoginEvent(ctx context.Context, action string, result *LoginResult, loginErr error) {
	event := domain.AuditEvent{
		ID:        uuid.NewString(),
		Category:  domain.AuditCategoryAuth,
		Action:    action,
		Timestamp: time.Now(),
	}
	if loginErr != nil {
		event.Outcome = domain.AuditOutcomeFailure
		event.Details = map[string]string{"reason": loginErr.Error()}
	} else {
		event.Outcome = domain.AuditOutcomeSuccess
		event.SubjectID = result.Principal.SubjectID
	}

	if err := uc.audit.Record(ctx, event); err != nil {
		uc.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
