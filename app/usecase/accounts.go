package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mailboard/app/domain"
	"mailboard/app/port"
	"mailboard/app/utils/security"
)

// Accounts implements the admin-facing account lifecycle operations. Every
// mutation emits an audit event through the post-mutation hook; the
// directory itself never audits.
type Accounts struct {
	directory port.AccountDirectory
	audit     port.AuditSink
	logger    *slog.Logger
}

// NewAccounts creates the account management usecase.
func NewAccounts(directory port.AccountDirectory, audit port.AuditSink, logger *slog.Logger) *Accounts {
	return &Accounts{
		directory: directory,
		audit:     audit,
		logger:    logger.With("component", "accounts"),
	}
}

// CreateRequest describes an admin-created email/password account.
type CreateRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"max=128"`
	Password    string `json:"password" validate:"required,min=12"`
	Role        string `json:"role" validate:"omitempty,oneof=user admin"`
}

// Create registers an email/password account.
func (uc *Accounts) Create(ctx context.Context, actor *domain.Principal, req CreateRequest) (*domain.Account, error) {
	account, err := domain.NewAccount(uuid.NewString(), req.Email, req.DisplayName)
	if err != nil {
		return nil, err
	}

	if req.Role != "" {
		if err := account.ChangeRole(domain.AccountRole(req.Role)); err != nil {
			return nil, err
		}
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = hash

	if err := uc.directory.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	uc.recordMutation(ctx, actor, "create_account", account.SubjectID, map[string]string{
		"email": account.Email,
		"role":  string(account.Role),
	})
	return account, nil
}

// SetRole changes an account's role.
func (uc *Accounts) SetRole(ctx context.Context, actor *domain.Principal, subjectID string, role domain.AccountRole) (*domain.Account, error) {
	account, err := uc.directory.SetRole(ctx, subjectID, role)
	if err != nil {
		return nil, err
	}

	uc.recordMutation(ctx, actor, "set_role", subjectID, map[string]string{
		"role": string(role),
	})
	return account, nil
}

// SetStatus activates or deactivates an account. Deactivation is the only
// removal mechanism; accounts are never hard-deleted.
func (uc *Accounts) SetStatus(ctx context.Context, actor *domain.Principal, subjectID string, status domain.AccountStatus) (*domain.Account, error) {
	account, err := uc.directory.SetStatus(ctx, subjectID, status)
	if err != nil {
		return nil, err
	}

	uc.recordMutation(ctx, actor, "set_status", subjectID, map[string]string{
		"status": string(status),
	})
	return account, nil
}

// Get returns a single account by subject ID.
func (uc *Accounts) Get(ctx context.Context, subjectID string) (*domain.Account, error) {
	return uc.directory.FindBySubjectID(ctx, subjectID)
}

// List returns a page of accounts for the admin dashboard.
func (uc *Accounts) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.directory.ListAccounts(ctx, limit, offset)
}

func (uc *Accounts) recordMutation(ctx context.Context, actor *domain.Principal, action, subjectID string, details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	if actor != nil {
		details["actor"] = actor.SubjectID
	}

	event := domain.AuditEvent{
		ID:        uuid.NewString(),
		Category:  domain.AuditCategoryAccount,
		Action:    action,
		SubjectID: subjectID,
		Outcome:   domain.AuditOutcomeSuccess,
		Details:   details,
		Timestamp: time.Now(),
	}
	if err := uc.audit.Record(ctx, event); err != nil {
		uc.logger.Warn("audit record failed", "action", action, "error", err)
	}
}

// NormalizeEmail lower-cases and trims an email for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
