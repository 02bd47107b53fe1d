package usecase

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// OAuthTokenRepository is the persistence behind the token store.
type OAuthTokenRepository interface {
	Get(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error)
	Upsert(ctx context.Context, rec *domain.OAuthTokenRecord) error
}

// TokenStore keeps per-account provider credentials fresh. Implements
// port.OAuthTokenStore. Concurrent refreshes for one subject are coalesced
// with singleflight; persistence is last-writer-wins, which is safe because
// every write originates from valid, recent provider state.
type TokenStore struct {
	repo         OAuthTokenRepository
	provider     port.IdentityProvider
	refreshGroup singleflight.Group
	logger       *slog.Logger
	now          func() time.Time
}

// NewTokenStore creates the OAuth token store.
func NewTokenStore(repo OAuthTokenRepository, provider port.IdentityProvider, logger *slog.Logger) *TokenStore {
	return &TokenStore{
		repo:     repo,
		provider: provider,
		logger:   logger.With("component", "oauth_token_store"),
		now:      time.Now,
	}
}

// Get returns the stored record for the subject.
func (s *TokenStore) Get(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error) {
	return s.repo.Get(ctx, subjectID)
}

// Save persists a record, replacing any previous one for the subject.
func (s *TokenStore) Save(ctx context.Context, rec *domain.OAuthTokenRecord) error {
	rec.UpdatedAt = s.now()
	return s.repo.Upsert(ctx, rec)
}

// RefreshIfNeeded returns a usable record, silently refreshing through the
// provider when the access token is inside the skew window. A record with
// no refresh token is returned stale; the caller must expect provider calls
// to fail and surface a provider error rather than crash.
func (s *TokenStore) RefreshIfNeeded(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error) {
	rec, err := s.repo.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if !rec.NeedsRefresh(s.now()) {
		return rec, nil
	}
	if !rec.Refreshable() {
		s.logger.Warn("access token stale and no refresh token stored", "subject_id", subjectID)
		return rec, nil
	}

	fresh, err, _ := s.refreshGroup.Do(subjectID, func() (interface{}, error) {
		return s.refresh(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	return fresh.(*domain.OAuthTokenRecord), nil
}

func (s *TokenStore) refresh(ctx context.Context, rec *domain.OAuthTokenRecord) (*domain.OAuthTokenRecord, error) {
	resp, err := s.provider.RefreshAccessToken(ctx, rec.RefreshToken)
	if err != nil {
		// Either ErrRefreshFailed (definitive) or ErrProviderUnavailable
		// (transient, retryable); both propagate unchanged.
		return nil, err
	}

	rec.ApplyRefresh(*resp, s.now())
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	s.logger.Info("access token refreshed",
		"subject_id", rec.SubjectID,
		"expires_at", rec.ExpiresAt)
	return rec, nil
}
