package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"mailboard/app/domain"
	"mailboard/app/usecase"
)

// OAuthTokenRepository persists provider credentials, one row per account.
// Writes are last-writer-wins by design; see usecase.TokenStore.
type OAuthTokenRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewOAuthTokenRepository creates a new PostgreSQL OAuth token repository.
func NewOAuthTokenRepository(db DatabaseIface, logger *slog.Logger) usecase.OAuthTokenRepository {
	return &OAuthTokenRepository{
		db:     db,
		logger: logger.With("component", "oauth_token_repository"),
	}
}

// Get returns the stored token record for the subject.
func (r *OAuthTokenRepository) Get(ctx context.Context, subjectID string) (*domain.OAuthTokenRecord, error) {
	query := `
		SELECT subject_id, access_token, refresh_token, expires_at, scope, mailbox, updated_at
		FROM oauth_tokens
		WHERE subject_id = $1`

	rec := &domain.OAuthTokenRecord{}
	err := r.db.QueryRow(ctx, query, subjectID).Scan(
		&rec.SubjectID,
		&rec.AccessToken,
		&rec.RefreshToken,
		&rec.ExpiresAt,
		&rec.Scope,
		&rec.Mailbox,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenRecordAbsent
		}
		return nil, fmt.Errorf("failed to get oauth token record: %w", err)
	}
	return rec, nil
}

// Upsert replaces the token record for the subject.
func (r *OAuthTokenRepository) Upsert(ctx context.Context, rec *domain.OAuthTokenRecord) error {
	query := `
		INSERT INTO oauth_tokens (subject_id, access_token, refresh_token, expires_at, scope, mailbox, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subject_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			scope = EXCLUDED.scope,
			mailbox = EXCLUDED.mailbox,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.Exec(ctx, query,
		rec.SubjectID,
		rec.AccessToken,
		rec.RefreshToken,
		rec.ExpiresAt,
		rec.Scope,
		rec.Mailbox,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert oauth token record: %w", err)
	}
	return nil
}
