package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"mailboard/app/domain"
	"mailboard/app/port"
)

const accountColumns = `
	a.subject_id, a.email, a.display_name, a.password_hash, a.role, a.status,
	a.created_at, a.updated_at, a.last_login_at, a.last_login_ip, a.last_login_ua,
	a.deleted_at`

// AccountRepository implements port.AccountDirectory for PostgreSQL.
type AccountRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewAccountRepository creates a new PostgreSQL account repository.
func NewAccountRepository(db DatabaseIface, logger *slog.Logger) port.AccountDirectory {
	return &AccountRepository{
		db:     db,
		logger: logger.With("component", "account_repository"),
	}
}

// FindBySubjectID resolves an account by its canonical subject ID or any
// aliased provider subject ID.
func (r *AccountRepository) FindBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error) {
	query := `
		SELECT` + accountColumns + `
		FROM accounts a
		LEFT JOIN account_aliases al ON al.account_subject_id = a.subject_id
		WHERE a.subject_id = $1 OR al.alias_subject_id = $1
		LIMIT 1`

	return r.scanAccount(r.db.QueryRow(ctx, query, subjectID))
}

// FindByEmail resolves an account by its unique email address.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `
		SELECT` + accountColumns + `
		FROM accounts a
		WHERE a.email = $1`

	return r.scanAccount(r.db.QueryRow(ctx, query, normalizeEmail(email)))
}

// EnsureAccount is the idempotent upsert used on first provider login. The
// email is the dedup key: a known email under a new subject ID aliases onto
// the existing account instead of creating a duplicate.
func (r *AccountRepository) EnsureAccount(ctx context.Context, subjectID, email, displayName string) (*domain.Account, error) {
	if account, err := r.FindBySubjectID(ctx, subjectID); err == nil {
		return account, nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	if account, err := r.FindByEmail(ctx, email); err == nil {
		if err := r.addAlias(ctx, subjectID, account.SubjectID); err != nil {
			return nil, err
		}
		r.logger.Info("aliased provider subject onto existing account",
			"alias", subjectID, "subject_id", account.SubjectID)
		return account, nil
	} else if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account, err := domain.NewAccount(subjectID, email, displayName)
	if err != nil {
		return nil, err
	}
	if err := r.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// CreateAccount inserts a new account row.
func (r *AccountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (
			subject_id, email, display_name, password_hash, role, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		account.SubjectID,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		string(account.Role),
		string(account.Status),
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// SetStatus updates the lifecycle status and returns the updated account.
// Deactivation also stamps deleted_at; accounts are never hard-deleted.
func (r *AccountRepository) SetStatus(ctx context.Context, subjectID string, status domain.AccountStatus) (*domain.Account, error) {
	account, err := r.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if status == domain.StatusInactive {
		account.Deactivate()
	} else {
		if err := account.ChangeStatus(status); err != nil {
			return nil, err
		}
		account.DeletedAt = nil
	}

	query := `
		UPDATE accounts
		SET status = $2, deleted_at = $3, updated_at = $4
		WHERE subject_id = $1`

	if _, err := r.db.Exec(ctx, query, account.SubjectID, string(account.Status), account.DeletedAt, account.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update account status: %w", err)
	}
	return account, nil
}

// SetRole updates the role and returns the updated account.
func (r *AccountRepository) SetRole(ctx context.Context, subjectID string, role domain.AccountRole) (*domain.Account, error) {
	account, err := r.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := account.ChangeRole(role); err != nil {
		return nil, err
	}

	query := `
		UPDATE accounts
		SET role = $2, updated_at = $3
		WHERE subject_id = $1`

	if _, err := r.db.Exec(ctx, query, account.SubjectID, string(account.Role), account.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update account role: %w", err)
	}
	return account, nil
}

// RecordLogin stamps the last login time and origin.
func (r *AccountRepository) RecordLogin(ctx context.Context, subjectID, ip, userAgent string) error {
	query := `
		UPDATE accounts
		SET last_login_at = $2, last_login_ip = $3, last_login_ua = $4, updated_at = $2
		WHERE subject_id = $1`

	if _, err := r.db.Exec(ctx, query, subjectID, time.Now(), ip, userAgent); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// ListAccounts returns a page of accounts ordered by creation time.
func (r *AccountRepository) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	query := `
		SELECT` + accountColumns + `
		FROM accounts a
		ORDER BY a.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) addAlias(ctx context.Context, aliasSubjectID, accountSubjectID string) error {
	query := `
		INSERT INTO account_aliases (alias_subject_id, account_subject_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (alias_subject_id) DO NOTHING`

	if _, err := r.db.Exec(ctx, query, aliasSubjectID, accountSubjectID, time.Now()); err != nil {
		return fmt.Errorf("failed to add account alias: %w", err)
	}
	return nil
}

func (r *AccountRepository) scanAccount(row pgx.Row) (*domain.Account, error) {
	account := &domain.Account{}
	var role, status string
	var lastLoginIP, lastLoginUA *string

	err := row.Scan(
		&account.SubjectID,
		&account.Email,
		&account.DisplayName,
		&account.PasswordHash,
		&role,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastLoginAt,
		&lastLoginIP,
		&lastLoginUA,
		&account.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	account.Role = domain.AccountRole(role)
	account.Status = domain.AccountStatus(status)
	if lastLoginIP != nil {
		account.LastLoginIP = *lastLoginIP
	}
	if lastLoginUA != nil {
		account.LastLoginUA = *lastLoginUA
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
