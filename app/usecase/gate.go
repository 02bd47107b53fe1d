package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// Gate is the request-facing authorization component. Each request runs the
// admission state machine independently:
//
//	Start -> CredentialExtracted -> ClaimsVerified -> AccountResolved -> Admitted | Rejected
//
// No state persists across requests. Implements port.AuthorizationGate.
type Gate struct {
	verifier  port.CredentialVerifier
	directory port.AccountDirectory
	audit     port.AuditSink
	logger    *slog.Logger
}

// NewGate creates the authorization gate.
func NewGate(verifier port.CredentialVerifier, directory port.AccountDirectory, audit port.AuditSink, logger *slog.Logger) *Gate {
	return &Gate{
		verifier:  verifier,
		directory: directory,
		audit:     audit,
		logger:    logger.With("component", "authorization_gate"),
	}
}

// Authorize admits a pre-existing active account. requiredRoles empty means
// any authenticated account is acceptable.
func (g *Gate) Authorize(ctx context.Context, rawCredential string, requiredRoles ...domain.AccountRole) (*domain.Principal, error) {
	principal, err := g.run(ctx, rawCredential, false, requiredRoles)
	g.recordDecision(ctx, principal, err)
	return principal, err
}

// AuthorizeProvision admits a verified identity, creating the directory
// record on first login. Self-service login call-sites only; no role
// requirement beyond active status.
func (g *Gate) AuthorizeProvision(ctx context.Context, rawCredential string) (*domain.Principal, error) {
	principal, err := g.run(ctx, rawCredential, true, nil)
	g.recordDecision(ctx, principal, err)
	return principal, err
}

func (g *Gate) run(ctx context.Context, rawCredential string, provision bool, requiredRoles []domain.AccountRole) (*domain.Principal, error) {
	// Start -> CredentialExtracted
	if rawCredential == "" {
		return nil, domain.ErrMissingCredential
	}

	// CredentialExtracted -> ClaimsVerified
	claims, err := g.verifier.Verify(ctx, rawCredential)
	if err != nil {
		return nil, err
	}

	// ClaimsVerified -> AccountResolved
	account, err := g.resolveAccount(ctx, claims, provision)
	if err != nil {
		return nil, err
	}

	// AccountResolved -> Admitted | Rejected
	if !account.IsActive() {
		return nil, domain.ErrAccountDeactivated
	}
	if len(requiredRoles) > 0 && !roleSatisfied(account.Role, requiredRoles) {
		return nil, domain.ErrInsufficientRole
	}

	return &domain.Principal{
		SubjectID: account.SubjectID,
		Email:     account.Email,
		Role:      account.Role,
		Status:    account.Status,
	}, nil
}

// resolveAccount looks the account up by subject ID, falling back to email
// for provider-path claims (no role hint means no locally-issued token, and
// the subject may be a not-yet-aliased provider id). The directory record
// is authoritative; the claim role is only a fast-path hint and is never
// trusted for the role check.
func (g *Gate) resolveAccount(ctx context.Context, claims *domain.ClaimSet, provision bool) (*domain.Account, error) {
	account, err := g.directory.FindBySubjectID(ctx, claims.SubjectID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if !claims.HasRole() {
		if account, err := g.directory.FindByEmail(ctx, claims.Email); err == nil {
			return account, nil
		} else if !errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
	}

	if provision {
		return g.directory.EnsureAccount(ctx, claims.SubjectID, claims.Email, "")
	}
	return nil, domain.ErrAccountNotFound
}

// recordDecision writes the audit event for a terminal transition. Audit
// failures are swallowed after logging: they never turn an admission into a
// rejection, or the reverse.
func (g *Gate) recordDecision(ctx context.Context, principal *domain.Principal, decisionErr error) {
	event := domain.AuditEvent{
		ID:        uuid.NewString(),
		Category:  domain.AuditCategoryAuth,
		Action:    "authorize",
		Timestamp: time.Now(),
	}
	if decisionErr != nil {
		event.Outcome = domain.AuditOutcomeRejected
		event.Details = map[string]string{"reason": decisionErr.Error()}
	} else {
		event.Outcome = domain.AuditOutcomeAdmitted
		event.SubjectID = principal.SubjectID
	}

	if err := g.audit.Record(ctx, event); err != nil {
		g.logger.Warn("audit record failed", "action", event.Action, "error", err)
	}
}

func roleSatisfied(role domain.AccountRole, required []domain.AccountRole) bool {
	for _, r := range required {
		if role == r {
			return true
		}
	}
	return false
}
