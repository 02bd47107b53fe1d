package port

import (
	"context"
	"time"

	"mailboard/app/domain"
)

// VerificationStrategy attempts one way of turning a raw credential into a
// claim set. Strategies are tried in a fixed order by the verifier.
type VerificationStrategy interface {
	Name() string
	Verify(ctx context.Context, raw string) (*domain.ClaimSet, error)
}

// CredentialVerifier validates a bearer credential against the configured
// trust sources and returns the decoded claims or a definitive rejection.
type CredentialVerifier interface {
	Verify(ctx context.Context, raw string) (*domain.ClaimSet, error)
}

// TokenIssuer mints locally-signed session tokens. TTL is fixed per
// call-site, never taken from the request.
type TokenIssuer interface {
	Issue(subjectID string, role domain.AccountRole, email string, ttl time.Duration) (string, error)
}

// AuthorizationGate runs the per-request admission state machine and
// produces the principal handed to route handlers.
type AuthorizationGate interface {
	// Authorize admits a pre-existing active account whose role is in
	// requiredRoles (empty set means any authenticated account).
	Authorize(ctx context.Context, rawCredential string, requiredRoles ...domain.AccountRole) (*domain.Principal, error)

	// AuthorizeProvision behaves like Authorize but auto-provisions a
	// directory record on first provider login. Used by self-service
	// login call-sites only.
	AuthorizeProvision(ctx context.Context, rawCredential string) (*domain.Principal, error)
}
