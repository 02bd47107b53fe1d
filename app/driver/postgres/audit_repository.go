package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"mailboard/app/domain"
	"mailboard/app/port"
)

// AuditRepository appends audit events to PostgreSQL. Details are stored as
// jsonb so queries can filter on individual keys later.
type AuditRepository struct {
	db     DatabaseIface
	logger *slog.Logger
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(db DatabaseIface, logger *slog.Logger) port.AuditSink {
	return &AuditRepository{
		db:     db,
		logger: logger.With("component", "audit_repository"),
	}
}

// Record appends one audit event.
func (r *AuditRepository) Record(ctx context.Context, event domain.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, category, action, subject_id, outcome, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		event.ID,
		string(event.Category),
		event.Action,
		event.SubjectID,
		string(event.Outcome),
		details,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event: %w", err)
	}
	return nil
}

// List returns the newest events in a category, newest first.
func (r *AuditRepository) List(ctx context.Context, category domain.AuditCategory, limit, offset int) ([]*domain.AuditEvent, error) {
	query := `
		SELECT id, category, action, subject_id, outcome, details, created_at
		FROM audit_events
		WHERE category = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, string(category), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		event := &domain.AuditEvent{}
		var cat, outcome string
		var details []byte

		if err := rows.Scan(&event.ID, &cat, &event.Action, &event.SubjectID, &outcome, &details, &event.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit event: %w", err)
		}
		event.Category = domain.AuditCategory(cat)
		event.Outcome = domain.AuditOutcome(outcome)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				r.logger.Warn("malformed audit details, skipping", "id", event.ID, "error", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
