package port

import (
	"context"

	"mailboard/app/domain"
)

// AccountDirectory is the persisted record of accounts read by every
// authorization decision. Exactly one account exists per email address;
// a subject that later authenticates under a different provider linkage is
// aliased onto the existing account, never duplicated.
type AccountDirectory interface {
	FindBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)

	// EnsureAccount is the idempotent upsert used on first login.
	EnsureAccount(ctx context.Context, subjectID, email, displayName string) (*domain.Account, error)

	// CreateAccount registers an email/password account.
	CreateAccount(ctx context.Context, account *domain.Account) error

	SetStatus(ctx context.Context, subjectID string, status domain.AccountStatus) (*domain.Account, error)
	SetRole(ctx context.Context, subjectID string, role domain.AccountRole) (*domain.Account, error)

	// RecordLogin stamps lastLogin/IP/UA. Called by login endpoints only.
	RecordLogin(ctx context.Context, subjectID, ip, userAgent string) error

	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}
