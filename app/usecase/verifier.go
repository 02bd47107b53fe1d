package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// ChainVerifier tries an ordered list of verification strategies and
// returns the first successful claim set. Implements
// port.CredentialVerifier.
//
// The local-signature strategy is always ordered before the provider
// strategy: provider-issued tokens never validate as local signatures, so
// the ordering affects only latency and telemetry, and keeping local first
// stops a misconfigured signing secret from hiding behind provider
// rejections.
type ChainVerifier struct {
	strategies []port.VerificationStrategy
	logger     *slog.Logger
}

// NewChainVerifier creates a verifier over the given strategies, tried in
// order.
func NewChainVerifier(logger *slog.Logger, strategies ...port.VerificationStrategy) *ChainVerifier {
	return &ChainVerifier{
		strategies: strategies,
		logger:     logger.With("component", "credential_verifier"),
	}
}

// Verify validates a raw bearer credential. A transient provider failure
// aborts the chain as ErrProviderUnavailable; any other failure of every
// strategy is a definitive ErrInvalidCredential.
func (v *ChainVerifier) Verify(ctx context.Context, raw string) (*domain.ClaimSet, error) {
	if raw == "" {
		return nil, domain.ErrMissingCredential
	}

	for _, strategy := range v.strategies {
		claims, err := strategy.Verify(ctx, raw)
		if err == nil {
			return claims, nil
		}
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		v.logger.Debug("verification strategy rejected credential",
			"strategy", strategy.Name(), "error", err)
	}

	return nil, domain.ErrInvalidCredential
}

// ProviderStrategy verifies a credential as an identity-provider-issued
// token. The resulting claim set carries no role; the directory record
// resolves it later.
type ProviderStrategy struct {
	provider port.IdentityProvider
}

// NewProviderStrategy creates the external-provider verification strategy.
func NewProviderStrategy(provider port.IdentityProvider) *ProviderStrategy {
	return &ProviderStrategy{provider: provider}
}

// Name identifies the strategy in logs and audit details.
func (s *ProviderStrategy) Name() string { return "provider" }

// Verify asks the external provider to assert validity of the token.
func (s *ProviderStrategy) Verify(ctx context.Context, raw string) (*domain.ClaimSet, error) {
	identity, err := s.provider.VerifyExternalToken(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}

	return &domain.ClaimSet{
		SubjectID: identity.SubjectID,
		Email:     identity.Email,
	}, nil
}
