package audit

import "time"

// Actions recorded by the engine. Events are appended facts, never mutated.
const (
	ActionMaterialCompleted  = "material.completed"
	ActionAttemptSubmitted   = "attempt.submitted"
	ActionAttemptRejected    = "attempt.rejected"
	ActionSuspiciousTiming   = "attempt.suspicious_timing"
	ActionCertificateIssued  = "certificate.issued"
	ActionAssignmentCreated  = "assignment.created"
	ActionAssignmentAdvanced = "assignment.status_changed"
	ActionAccessDenied       = "access.denied"
)

type Event struct {
	ID         string                 `json:"id"`
	OrgID      string                 `json:"org_id"`
	ActorID    string                 `json:"actor_id"`
	Action     string                 `json:"action"`
	ObjectKind string                 `json:"object_kind"`
	ObjectID   string                 `json:"object_id"`
	Detail     map[string]interface{} `json:"detail,omitempty"`
	CreatedAt  time.Time              `json:"created_at"` // UTC
}
