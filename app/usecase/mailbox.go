package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"mailboard/app/domain"
	"mailboard/app/gateway"
	"mailboard/app/port"
)

// MailboxLister lists message references from a linked mailbox.
type MailboxLister interface {
	ListMessages(ctx context.Context, accessToken, query string, maxResults int, pageToken string) (*gateway.MessagePage, error)
}

// Mailbox exposes the linked-mailbox flows: storing provider credentials
// after consent, and browsing the inbox with a silently refreshed access
// token.
type Mailbox struct {
	store  port.OAuthTokenStore
	lister MailboxLister
	audit  port.AuditSink
	logger *slog.Logger
}

// NewMailbox creates the mailbox usecase.
func NewMailbox(store port.OAuthTokenStore, lister MailboxLister, audit port.AuditSink, logger *slog.Logger) *Mailbox {
	return &Mailbox{
		store:  store,
		lister: lister,
		audit:  audit,
		logger: logger.With("component", "mailbox"),
	}
}

// LinkRequest carries the provider credentials granted during consent. The
// consent redirect itself happens outside this service.
type LinkRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in" validate:"required,gt=0"`
	Scope        string `json:"scope"`
	Mailbox      string `json:"mailbox" validate:"required,email"`
}

// Link persists the mailbox credentials for an account, replacing any
// previous linkage.
func (uc *Mailbox) Link(ctx context.Context, principal *domain.Principal, req LinkRequest) (*domain.OAuthTokenRecord, error) {
	now := time.Now()
	rec := &domain.OAuthTokenRecord{
		SubjectID:    principal.SubjectID,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(req.ExpiresIn) * time.Second),
		Scope:        req.Scope,
		Mailbox:      req.Mailbox,
	}
	if err := uc.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	uc.recordEvent(ctx, "link_mailbox", principal.SubjectID, domain.AuditOutcomeSuccess, map[string]string{
		"mailbox": req.Mailbox,
	})
	return rec, nil
}

// ListInbox browses the linked mailbox. The access token is refreshed
// inside the skew window before use; a stale unrefreshable token is still
// tried and surfaces as a provider failure rather than a crash.
func (uc *Mailbox) ListInbox(ctx context.Context, principal *domain.Principal, query string, maxResults int, pageToken string) (*gateway.MessagePage, error) {
	rec, err := uc.store.RefreshIfNeeded(ctx, principal.SubjectID)
	if err != nil {
		return nil, err
	}

	page, err := uc.lister.ListMessages(ctx, rec.AccessToken, query, maxResults, pageToken)
	if err != nil {
		uc.recordEvent(ctx, "list_inbox", principal.SubjectID, domain.AuditOutcomeFailure, map[string]string{
			"reason": err.Error(),
		})
		return nil, err
	}
	return page, nil
}

// Linkage reports the current mailbox linkage without exposing tokens.
func (uc *Mailbox) Linkage(ctx context.Context, principal *domain.Principal) (*domain.OAuthTokenRecord, error) {
	return uc.store.Get(ctx, principal.SubjectID)
}

func (uc *Mailbox) recordEvent(ctx context.Context, action, subjectID string, outcome domain.AuditOutcome, details map[string]string) {
	event := domain.AuditEvent{
		ID:        uuid.NewString(),
		Category:  domain.AuditCategoryMailbox,
		Action:    action,
		SubjectID: subjectID,
		Outcome:   outcome,
		Details:   details,
		Timestamp: time.Now(),
	}
	if err := uc.audit.Record(ctx, event); err != nil {
		uc.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
