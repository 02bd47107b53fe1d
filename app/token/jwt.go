package token

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mailboard/app/domain"
)

// Session token lifetimes. Fixed per call-site so a request can never
// negotiate its own privilege duration.
const (
	UserSessionTTL  = 7 * 24 * time.Hour
	AdminSessionTTL = 8 * time.Hour
)

// JWTConfig holds signing configuration. The secret is process-wide,
// injected at construction and never mutated at runtime.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

// sessionClaims represents the JWT claims carried by a session token.
type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer issues signed session tokens. Implements port.TokenIssuer.
type JWTIssuer struct {
	cfg JWTConfig
}

// NewJWTIssuer creates a new JWT issuer.
func NewJWTIssuer(cfg JWTConfig) (*JWTIssuer, error) {
	if cfg.Secret == "" {
		return nil, domain.ErrSecretMissing
	}
	return &JWTIssuer{cfg: cfg}, nil
}

// Issue generates a signed session token embedding identity, role and
// issuance time with the given validity window.
func (j *JWTIssuer) Issue(subjectID string, role domain.AccountRole, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.cfg.Issuer,
			Audience:  jwt.ClaimStrings{j.cfg.Audience},
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(j.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrTokenGeneration, err)
	}
	return signed, nil
}

// LocalStrategy verifies session tokens against the local signing secret.
// Implements port.VerificationStrategy; always ordered before the provider
// strategy so a misconfigured signing secret surfaces in its own telemetry
// instead of hiding behind provider rejections.
type LocalStrategy struct {
	cfg JWTConfig
}

// NewLocalStrategy creates the local-signature verification strategy.
func NewLocalStrategy(cfg JWTConfig) (*LocalStrategy, error) {
	if cfg.Secret == "" {
		return nil, domain.ErrSecretMissing
	}
	return &LocalStrategy{cfg: cfg}, nil
}

// Name identifies the strategy in logs and audit details.
func (s *LocalStrategy) Name() string { return "local" }

// Verify decodes and validates a locally-signed session token. Expired or
// unsigned tokens are an invalid credential, never a panic or a transport
// error.
func (s *LocalStrategy) Verify(_ context.Context, raw string) (*domain.ClaimSet, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredential, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidCredential
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	return &domain.ClaimSet{
		SubjectID: claims.Subject,
		Email:     claims.Email,
		Role:      domain.AccountRole(claims.Role),
		IssuedAt:  issuedAt,
	}, nil
}
