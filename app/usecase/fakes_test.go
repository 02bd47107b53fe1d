package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// fakeDirectory implements port.AccountDirectory backed by maps.
type fakeDirectory struct {
	mu         sync.Mutex
	bySubject  map[string]*domain.Account
	byEmail    map[string]*domain.Account
	aliases    map[string]string
	ensures    int
	logins     []string
	failLookup error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		bySubject: make(map[string]*domain.Account),
		byEmail:   make(map[string]*domain.Account),
		aliases:   make(map[string]string),
	}
}

func (d *fakeDirectory) add(account *domain.Account) {
	d.bySubject[account.SubjectID] = account
	d.byEmail[account.Email] = account
}

func (d *fakeDirectory) FindBySubjectID(_ context.Context, subjectID string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLookup != nil {
		return nil, d.failLookup
	}
	if canonical, ok := d.aliases[subjectID]; ok {
		subjectID = canonical
	}
	if account, ok := d.bySubject[subjectID]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (d *fakeDirectory) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failLookup != nil {
		return nil, d.failLookup
	}
	if account, ok := d.byEmail[NormalizeEmail(email)]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (d *fakeDirectory) EnsureAccount(_ context.Context, subjectID, email, displayName string) (*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ensures++
	if canonical, ok := d.aliases[subjectID]; ok {
		subjectID = canonical
	}
	if account, ok := d.bySubject[subjectID]; ok {
		return account, nil
	}
	if account, ok := d.byEmail[NormalizeEmail(email)]; ok {
		d.aliases[subjectID] = account.SubjectID
		return account, nil
	}
	account, err := domain.NewAccount(subjectID, email, displayName)
	if err != nil {
		return nil, err
	}
	d.bySubject[account.SubjectID] = account
	d.byEmail[account.Email] = account
	return account, nil
}

func (d *fakeDirectory) CreateAccount(_ context.Context, account *domain.Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(account)
	return nil
}

func (d *fakeDirectory) SetStatus(ctx context.Context, subjectID string, status domain.AccountStatus) (*domain.Account, error) {
	account, err := d.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := account.ChangeStatus(status); err != nil {
		return nil, err
	}
	return account, nil
}

func (d *fakeDirectory) SetRole(ctx context.Context, subjectID string, role domain.AccountRole) (*domain.Account, error) {
	account, err := d.FindBySubjectID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if err := account.ChangeRole(role); err != nil {
		return nil, err
	}
	return account, nil
}

func (d *fakeDirectory) RecordLogin(_ context.Context, subjectID, ip, userAgent string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logins = append(d.logins, subjectID)
	if account, ok := d.bySubject[subjectID]; ok {
		account.RecordLogin(time.Now(), ip, userAgent)
	}
	return nil
}

func (d *fakeDirectory) ListAccounts(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	accounts := make([]*domain.Account, 0, len(d.bySubject))
	for _, account := range d.bySubject {
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// fakeAudit implements port.AuditSink and captures recorded events.
type fakeAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
	fail   bool
}

func (a *fakeAudit) Record(_ context.Context, event domain.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("audit sink down")
	}
	a.events = append(a.events, event)
	return nil
}

func (a *fakeAudit) List(_ context.Context, _ domain.AuditCategory, _, _ int) ([]*domain.AuditEvent, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*domain.AuditEvent, len(a.events))
	for i := range a.events {
		out[i] = &a.events[i]
	}
	return out, nil
}

func (a *fakeAudit) last() *domain.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.events) == 0 {
		return nil
	}
	return &a.events[len(a.events)-1]
}

// fakeProvider implements port.IdentityProvider.
type fakeProvider struct {
	mu           sync.Mutex
	identity     *port.ExternalIdentity
	verifyErr    error
	tokenResp    *domain.ProviderTokenResponse
	refreshErr   error
	refreshCalls int
	refreshDelay time.Duration
}

func (p *fakeProvider) VerifyExternalToken(_ context.Context, _ string) (*port.ExternalIdentity, error) {
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.identity, nil
}

func (p *fakeProvider) RefreshAccessToken(_ context.Context, _ string) (*domain.ProviderTokenResponse, error) {
	p.mu.Lock()
	p.refreshCalls++
	delay := p.refreshDelay
	p.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return p.tokenResp, nil
}

// fakeStrategy implements port.VerificationStrategy.
type fakeStrategy struct {
	name   string
	claims *domain.ClaimSet
	err    error
	called bool
}

func (s *fakeStrategy) Name() string { return s.name }

func (s *fakeStrategy) Verify(_ context.Context, _ string) (*domain.ClaimSet, error) {
	s.called = true
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

// fakeTokenRepo implements OAuthTokenRepository.
type fakeTokenRepo struct {
	mu      sync.Mutex
	records map[string]*domain.OAuthTokenRecord
	upserts int
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: make(map[string]*domain.OAuthTokenRecord)}
}

func (r *fakeTokenRepo) Get(_ context.Context, subjectID string) (*domain.OAuthTokenRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[subjectID]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, domain.ErrTokenRecordAbsent
}

func (r *fakeTokenRepo) Upsert(_ context.Context, rec *domain.OAuthTokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	copied := *rec
	r.records[rec.SubjectID] = &copied
	return nil
}

// staticVerifier implements port.CredentialVerifier.
type staticVerifier struct {
	claims *domain.ClaimSet
	err    error
}

func (v *staticVerifier) Verify(_ context.Context, raw string) (*domain.ClaimSet, error) {
	if raw == "" {
		return nil, domain.ErrMissingCredential
	}
	if v.err != nil {
		return nil, v.err
	}
	return v.claims, nil
}

// fakeIssuer implements port.TokenIssuer.
type fakeIssuer struct {
	token   string
	err     error
	lastTTL time.Duration
}

func (i *fakeIssuer) Issue(_ string, _ domain.AccountRole, _ string, ttl time.Duration) (string, error) {
	i.lastTTL = ttl
	if i.err != nil {
		return "", i.err
	}
	return i.token, nil
}
