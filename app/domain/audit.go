package domain

import "time"

// AuditCategory groups audit events by subsystem
type AuditCategory string

const (
	AuditCategoryAuth    AuditCategory = "auth"
	AuditCategoryAccount AuditCategory = "account"
	AuditCategoryMailbox AuditCategory = "mailbox"
)

// AuditOutcome records whether the audited action succeeded
type AuditOutcome string

const (
	AuditOutcomeAdmitted AuditOutcome = "admitted"
	AuditOutcomeRejected AuditOutcome = "rejected"
	AuditOutcomeSuccess  AuditOutcome = "success"
	AuditOutcomeFailure  AuditOutcome = "failure"
)

// AuditEvent is written for every gate decision and every account mutation.
// The sink is fire-and-forget; producing an event must never fail a request.
type AuditEvent struct {
	ID        string            `json:"id"`
	Category  AuditCategory     `json:"category"`
	Action    string            `json:"action"`
	SubjectID string            `json:"subject_id,omitempty"`
	Outcome   AuditOutcome      `json:"outcome"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}
