package port

import (
	"context"

	"mailboard/app/domain"
)

// ExternalIdentity is the provider's assertion about a verified token.
type ExternalIdentity struct {
	SubjectID string
	Email     string
	Name      string
}

// IdentityProvider is the opaque external IdP. Verification asks the
// provider to assert validity; tokens are not locally decodable trust.
type IdentityProvider interface {
	VerifyExternalToken(ctx context.Context, token string) (*ExternalIdentity, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.ProviderTokenResponse, error)
}

// OAuthTokenStore persists per-account provider credentials and performs
// silent refresh inside the skew window.
type OAuthTokenStore interface {
	Get(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error)
	Save(ctx context.Context, rec *domain.OAuthTokenRecord) error
	RefreshIfNeeded(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error)
}
