package port

import (
	"context"

	"mailboard/app/domain"
)

// AuditSink records auth decisions and account mutations. Implementations
// must never return an error that changes the caller's outcome; callers
// swallow failures after logging them.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
	List(ctx context.Context, category domain.AuditCategory, limit, offset int) ([]*domain.AuditEvent, error)
}
