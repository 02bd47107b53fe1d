package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailboard/app/domain"
	"mailboard/app/port"
	"mailboard/app/token"
	"mailboard/app/utils/security"
)

func passwordAccount(t *testing.T, subjectID, email, password string, role domain.AccountRole) *domain.Account {
	t.Helper()
	account, err := domain.NewAccount(subjectID, email, "Test Account")
	require.NoError(t, err)
	require.NoError(t, account.ChangeRole(role))
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	account.PasswordHash = hash
	return account
}

func TestLogin_WithPassword(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(passwordAccount(t, "sub-1", "user@example.com", "hunter2hunter2", domain.RoleUser))
	audit := &fakeAudit{}
	issuer := &fakeIssuer{token: "signed-token"}

	uc := NewLogin(directory, &fakeProvider{}, issuer, audit, slog.Default())
	result, err := uc.WithPassword(context.Background(), "user@example.com", "hunter2hunter2", "203.0.113.7", "Mozilla/5.0")

	require.NoError(t, err)
	assert.Equal(t, "signed-token", result.Token)
	assert.Equal(t, token.UserSessionTTL, issuer.lastTTL)
	assert.Equal(t, "sub-1", result.Principal.SubjectID)
	assert.Equal(t, []string{"sub-1"}, directory.logins, "login endpoints stamp lastLogin")
	require.NotNil(t, audit.last())
	assert.Equal(t, "password_login", audit.last().Action)
	assert.Equal(t, domain.AuditOutcomeSuccess, audit.last().Outcome)
}

func TestLogin_WithPassword_WrongPassword(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(passwordAccount(t, "sub-1", "user@example.com", "hunter2hunter2", domain.RoleUser))
	audit := &fakeAudit{}

	uc := NewLogin(directory, &fakeProvider{}, &fakeIssuer{token: "t"}, audit, slog.Default())
	_, err := uc.WithPassword(context.Background(), "user@example.com", "wrong", "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
	assert.Empty(t, directory.logins)
	assert.Equal(t, domain.AuditOutcomeFailure, audit.last().Outcome)
}

func TestLogin_WithPassword_UnknownEmailSameRejection(t *testing.T) {
	uc := NewLogin(newFakeDirectory(), &fakeProvider{}, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())

	_, err := uc.WithPassword(context.Background(), "nobody@example.com", "whatever", "", "")

	// Indistinguishable from a wrong password.
	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestLogin_WithPassword_DeactivatedAccount(t *testing.T) {
	directory := newFakeDirectory()
	account := passwordAccount(t, "sub-1", "user@example.com", "hunter2hunter2", domain.RoleUser)
	account.Deactivate()
	directory.add(account)

	uc := NewLogin(directory, &fakeProvider{}, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	_, err := uc.WithPassword(context.Background(), "user@example.com", "hunter2hunter2", "", "")

	assert.ErrorIs(t, err, domain.ErrAccountDeactivated)
}

func TestLogin_AdminWithPassword(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(passwordAccount(t, "sub-admin", "admin@example.com", "admin-password", domain.RoleAdmin))
	issuer := &fakeIssuer{token: "admin-token"}

	uc := NewLogin(directory, &fakeProvider{}, issuer, &fakeAudit{}, slog.Default())
	result, err := uc.AdminWithPassword(context.Background(), "admin@example.com", "admin-password", "", "")

	require.NoError(t, err)
	assert.Equal(t, token.AdminSessionTTL, issuer.lastTTL, "admin sessions use the short elevated window")
	assert.Equal(t, domain.RoleAdmin, result.Principal.Role)
}

func TestLogin_AdminWithPassword_NonAdminRejected(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(passwordAccount(t, "sub-1", "user@example.com", "hunter2hunter2", domain.RoleUser))

	uc := NewLogin(directory, &fakeProvider{}, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	_, err := uc.AdminWithPassword(context.Background(), "user@example.com", "hunter2hunter2", "", "")

	assert.ErrorIs(t, err, domain.ErrInsufficientRole)
}

func TestLogin_WithProvider_AutoProvisions(t *testing.T) {
	directory := newFakeDirectory()
	provider := &fakeProvider{identity: &port.ExternalIdentity{
		SubjectID: "google-sub-1",
		Email:     "new@example.com",
		Name:      "New User",
	}}

	uc := NewLogin(directory, provider, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	result, err := uc.WithProvider(context.Background(), "provider-token", "203.0.113.7", "Mozilla/5.0")

	require.NoError(t, err)
	assert.Equal(t, "google-sub-1", result.Principal.SubjectID)
	assert.Equal(t, 1, directory.ensures)
	assert.Equal(t, []string{"google-sub-1"}, directory.logins)
}

func TestLogin_WithProvider_ExistingEmailReused(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(passwordAccount(t, "local-sub", "linked@example.com", "hunter2hunter2", domain.RoleUser))
	provider := &fakeProvider{identity: &port.ExternalIdentity{
		SubjectID: "google-sub-9",
		Email:     "linked@example.com",
	}}

	uc := NewLogin(directory, provider, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	result, err := uc.WithProvider(context.Background(), "provider-token", "", "")

	require.NoError(t, err)
	// Same email means the same account; the provider subject aliases onto it.
	assert.Equal(t, "local-sub", result.Principal.SubjectID)
}

func TestLogin_WithProvider_InvalidToken(t *testing.T) {
	provider := &fakeProvider{verifyErr: domain.ErrInvalidCredential}

	uc := NewLogin(newFakeDirectory(), provider, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	_, err := uc.WithProvider(context.Background(), "bad-token", "", "")

	assert.ErrorIs(t, err, domain.ErrInvalidCredential)
}

func TestLogin_WithProvider_MissingToken(t *testing.T) {
	uc := NewLogin(newFakeDirectory(), &fakeProvider{}, &fakeIssuer{token: "t"}, &fakeAudit{}, slog.Default())
	_, err := uc.WithProvider(context.Background(), "", "", "")
	assert.ErrorIs(t, err, domain.ErrMissingCredential)
}
