package usecase

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailboard/app/domain"
	"mailboard/app/utils/security"
)

var adminActor = &domain.Principal{
	SubjectID: "sub-admin",
	Email:     "admin@example.com",
	Role:      domain.RoleAdmin,
	Status:    domain.StatusActive,
}

func TestAccounts_Create(t *testing.T) {
	directory := newFakeDirectory()
	audit := &fakeAudit{}
	uc := NewAccounts(directory, audit, slog.Default())

	account, err := uc.Create(context.Background(), adminActor, CreateRequest{
		Email:       "New.User@Example.com",
		DisplayName: "New User",
		Password:    "a-long-password",
	})

	require.NoError(t, err)
	assert.Equal(t, "new.user@example.com", account.Email)
	assert.Equal(t, domain.RoleUser, account.Role)
	assert.True(t, security.CheckPassword(account.PasswordHash, "a-long-password"))

	require.NotNil(t, audit.last())
	assert.Equal(t, "create_account", audit.last().Action)
	assert.Equal(t, "sub-admin", audit.last().Details["actor"])
}

func TestAccounts_CreateAdminRole(t *testing.T) {
	uc := NewAccounts(newFakeDirectory(), &fakeAudit{}, slog.Default())

	account, err := uc.Create(context.Background(), adminActor, CreateRequest{
		Email:    "other.admin@example.com",
		Password: "a-long-password",
		Role:     "admin",
	})

	require.NoError(t, err)
	assert.True(t, account.IsAdmin())
}

func TestAccounts_SetRoleAudited(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(activeUser(t, "sub-1", "user@example.com"))
	audit := &fakeAudit{}
	uc := NewAccounts(directory, audit, slog.Default())

	account, err := uc.SetRole(context.Background(), adminActor, "sub-1", domain.RoleAdmin)

	require.NoError(t, err)
	assert.True(t, account.IsAdmin())
	assert.Equal(t, "set_role", audit.last().Action)
	assert.Equal(t, "sub-1", audit.last().SubjectID)
	assert.Equal(t, "admin", audit.last().Details["role"])
}

func TestAccounts_SetStatusAudited(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(activeUser(t, "sub-1", "user@example.com"))
	audit := &fakeAudit{}
	uc := NewAccounts(directory, audit, slog.Default())

	account, err := uc.SetStatus(context.Background(), adminActor, "sub-1", domain.StatusInactive)

	require.NoError(t, err)
	assert.False(t, account.IsActive())
	assert.Equal(t, "set_status", audit.last().Action)
}

func TestAccounts_SetRole_UnknownSubject(t *testing.T) {
	uc := NewAccounts(newFakeDirectory(), &fakeAudit{}, slog.Default())

	_, err := uc.SetRole(context.Background(), adminActor, "sub-ghost", domain.RoleAdmin)

	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAccounts_List_ClampsPaging(t *testing.T) {
	directory := newFakeDirectory()
	directory.add(activeUser(t, "sub-1", "one@example.com"))
	directory.add(activeUser(t, "sub-2", "two@example.com"))
	uc := NewAccounts(directory, &fakeAudit{}, slog.Default())

	accounts, err := uc.List(context.Background(), -5, -1)

	require.NoError(t, err)
	assert.Len(t, accounts, 2)
}
