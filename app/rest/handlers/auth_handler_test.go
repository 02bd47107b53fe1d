package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailboard/app/domain"
	"mailboard/app/port"
	"mailboard/app/usecase"
	"mailboard/app/utils/logger"
	"mailboard/app/utils/security"
)

type testValidator struct {
	validate *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

type stubDirectory struct {
	byEmail map[string]*domain.Account
}

func (d *stubDirectory) FindBySubjectID(ctx context.Context, subjectID string) (*domain.Account, error) {
	for _, a := range d.byEmail {
		if a.SubjectID == subjectID {
			return a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (d *stubDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if a, ok := d.byEmail[usecase.NormalizeEmail(email)]; ok {
		return a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (d *stubDirectory) EnsureAccount(ctx context.Context, subjectID, email, displayName string) (*domain.Account, error) {
	if a, ok := d.byEmail[usecase.NormalizeEmail(email)]; ok {
		return a, nil
	}
	account, err := domain.NewAccount(subjectID, email, displayName)
	if err != nil {
		return nil, err
	}
	d.byEmail[account.Email] = account
	return account, nil
}

func (d *stubDirectory) CreateAccount(ctx context.Context, account *domain.Account) error {
	d.byEmail[account.Email] = account
	return nil
}

func (d *stubDirectory) SetStatus(ctx context.Context, subjectID string, status domain.AccountStatus) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}

func (d *stubDirectory) SetRole(ctx context.Context, subjectID string, role domain.AccountRole) (*domain.Account, error) {
	return nil, domain.ErrAccountNotFound
}

func (d *stubDirectory) RecordLogin(ctx context.Context, subjectID, ip, userAgent string) error {
	return nil
}

func (d *stubDirectory) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	return nil, nil
}

type stubProvider struct {
	identity *port.ExternalIdentity
	err      error
}

func (p *stubProvider) VerifyExternalToken(ctx context.Context, token string) (*port.ExternalIdentity, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.identity, nil
}

func (p *stubProvider) RefreshAccessToken(ctx context.Context, refreshToken string) (*domain.ProviderTokenResponse, error) {
	return nil, domain.ErrProviderUnavailable
}

type stubIssuer struct{}

func (i *stubIssuer) Issue(subjectID string, role domain.AccountRole, email string, ttl time.Duration) (string, error) {
	return "signed." + subjectID, nil
}

type stubAudit struct {
	events []domain.AuditEvent
}

func (a *stubAudit) Record(ctx context.Context, event domain.AuditEvent) error {
	a.events = append(a.events, event)
	return nil
}

func (a *stubAudit) List(ctx context.Context, category domain.AuditCategory, limit, offset int) ([]*domain.AuditEvent, error) {
	return nil, nil
}

func newLoginTestHandler(t *testing.T, directory *stubDirectory, provider port.IdentityProvider) *AuthHandler {
	t.Helper()

	testLogger, err := logger.New("debug")
	require.NoError(t, err)

	login := usecase.NewLogin(directory, provider, &stubIssuer{}, &stubAudit{}, testLogger)
	return NewAuthHandler(login, testLogger)
}

func postJSON(t *testing.T, handler echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	e.Validator = &testValidator{validate: validator.New()}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func seededDirectory(t *testing.T, role domain.AccountRole) *stubDirectory {
	t.Helper()

	hash, err := security.HashPassword("correct-horse-battery")
	require.NoError(t, err)

	account, err := domain.NewAccount("sub-1", "user@example.com", "Test User")
	require.NoError(t, err)
	account.PasswordHash = hash
	require.NoError(t, account.ChangeRole(role))

	return &stubDirectory{byEmail: map[string]*domain.Account{account.Email: account}}
}

func TestAuthHandler_PasswordLogin(t *testing.T) {
	t.Run("valid credentials return a session token", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

		rec := postJSON(t, handler.PasswordLogin, "/v1/auth/login",
			`{"email":"user@example.com","password":"correct-horse-battery"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var result usecase.LoginResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "signed.sub-1", result.Token)
		assert.Equal(t, "sub-1", result.Principal.SubjectID)
		assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), result.ExpiresAt, time.Minute)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

		rec := postJSON(t, handler.PasswordLogin, "/v1/auth/login",
			`{"email":"user@example.com","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email gets the same rejection", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

		rec := postJSON(t, handler.PasswordLogin, "/v1/auth/login",
			`{"email":"nobody@example.com","password":"correct-horse-battery"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

		rec := postJSON(t, handler.PasswordLogin, "/v1/auth/login", `{"email":"not-an-email"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_AdminLogin(t *testing.T) {
	t.Run("admin account admitted", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleAdmin), &stubProvider{})

		rec := postJSON(t, handler.AdminLogin, "/v1/auth/admin/login",
			`{"email":"user@example.com","password":"correct-horse-battery"}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var result usecase.LoginResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.WithinDuration(t, time.Now().Add(8*time.Hour), result.ExpiresAt, time.Minute)
	})

	t.Run("non-admin is forbidden", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

		rec := postJSON(t, handler.AdminLogin, "/v1/auth/admin/login",
			`{"email":"user@example.com","password":"correct-horse-battery"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAuthHandler_ProviderLogin(t *testing.T) {
	t.Run("first provider login auto-provisions", func(t *testing.T) {
		directory := &stubDirectory{byEmail: map[string]*domain.Account{}}
		provider := &stubProvider{identity: &port.ExternalIdentity{
			SubjectID: "google-sub-9",
			Email:     "fresh@example.com",
			Name:      "Fresh User",
		}}
		handler := newLoginTestHandler(t, directory, provider)

		rec := postJSON(t, handler.ProviderLogin, "/v1/auth/login/google", `{"id_token":"valid"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, directory.byEmail, "fresh@example.com")
	})

	t.Run("provider outage is not a credential judgement", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser),
			&stubProvider{err: domain.ErrProviderUnavailable})

		rec := postJSON(t, handler.ProviderLogin, "/v1/auth/login/google", `{"id_token":"whatever"}`)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("rejected token is unauthorized", func(t *testing.T) {
		handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser),
			&stubProvider{err: domain.ErrInvalidCredential})

		rec := postJSON(t, handler.ProviderLogin, "/v1/auth/login/google", `{"id_token":"forged"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_Session(t *testing.T) {
	handler := newLoginTestHandler(t, seededDirectory(t, domain.RoleUser), &stubProvider{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/session", nil)
	principal := &domain.Principal{SubjectID: "sub-1", Email: "user@example.com", Role: domain.RoleUser, Status: domain.StatusActive}
	req = req.WithContext(domain.WithPrincipal(req.Context(), principal))
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handler.Session(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var got domain.Principal
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *principal, got)
}
