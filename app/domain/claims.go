package domain

import (
	"context"
	"time"
)

// ClaimSet holds the fields decoded from a credential before the directory
// cross-check. Role is empty for provider-path claims; the directory record
// is authoritative either way.
type ClaimSet struct {
	SubjectID string
	Email     string
	Role      AccountRole
	IssuedAt  time.Time
}

// HasRole reports whether the claim carried a role hint.
func (c *ClaimSet) HasRole() bool {
	return c.Role != ""
}

// Principal is the verified, role-and-status-resolved identity attached to
// an admitted request. Read-only to downstream handlers.
type Principal struct {
	SubjectID string        `json:"subject_id"`
	Email     string        `json:"email"`
	Role      AccountRole   `json:"role"`
	Status    AccountStatus `json:"status"`
}

type principalCtxKey struct{}

// WithPrincipal attaches a principal to the request context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// PrincipalFromContext extracts the principal set by the authorization gate.
func PrincipalFromContext(ctx context.Context) (*Principal, error) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	if !ok || p == nil {
		return nil, ErrMissingCredential
	}
	return p, nil
}
