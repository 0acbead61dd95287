package assignment

import (
	"time"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

// Status only advances forward: assigned -> in_progress -> completed.
type Status string

const (
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

var statusRank = map[Status]int{
	StatusAssigned:   1,
	StatusInProgress: 2,
	StatusCompleted:  3,
}

func (s Status) Valid() bool { return statusRank[s] != 0 }

// CanAdvanceTo reports whether moving to the given status is a forward
// transition; statuses never regress.
func (s Status) CanAdvanceTo(to Status) bool {
	return statusRank[to] > statusRank[s]
}

// ComplianceStatus aggregates a member's standing across all their assignments.
type ComplianceStatus string

const (
	ComplianceCompliant    ComplianceStatus = "compliant"
	ComplianceAtRisk       ComplianceStatus = "at_risk"
	ComplianceNonCompliant ComplianceStatus = "non_compliant"
	// ComplianceNoData is reported for members with no workforce group or no
	// assignments; it is deliberately distinct from compliant.
	ComplianceNoData ComplianceStatus = "no_data"
)

// atRiskWindow is how close to a due date an unfinished assignment flips a
// member to at_risk.
const atRiskWindow = 7 * 24 * time.Hour

// Assignment is an admin-initiated training obligation. Status is owned
// exclusively by this package.
type Assignment struct {
	ID             string                 `json:"id"`
	OrgID          string                 `json:"org_id"`
	MemberID       string                 `json:"member_id"`
	WorkforceGroup catalog.WorkforceGroup `json:"workforce_group"`
	DueDate        time.Time              `json:"due_date"`
	Status         Status                 `json:"status"`
	Notes          string                 `json:"notes,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"` // UTC
	CreatedAt      time.Time              `json:"created_at"`             // UTC
	UpdatedAt      time.Time              `json:"updated_at"`             // UTC
}

// IsActive reports whether the assignment still demands work.
func (a Assignment) IsActive() bool {
	return a.Status == StatusAssigned || a.Status == StatusInProgress
}

// IsOverdue is a derived property, never stored.
func (a Assignment) IsOverdue(now time.Time) bool {
	return now.After(a.DueDate) && a.Status != StatusCompleted
}

// NewAssignment contains information needed to create an Assignment.
type NewAssignment struct {
	OrgID          string                 `json:"org_id" validate:"required"`
	MemberID       string                 `json:"member_id" validate:"required"`
	WorkforceGroup catalog.WorkforceGroup `json:"workforce_group" validate:"required"`
	DueDate        time.Time              `json:"due_date" validate:"required"`
	Notes          string                 `json:"notes"`
}

func (na *NewAssignment) Validate() error {
	na.Notes = core.CleanString(na.Notes)
	if err := core.Validate.Struct(na); err != nil {
		return err
	}
	if !na.WorkforceGroup.Valid() {
		return core.NewValidationError(nil, core.FieldError{
			Field: "workforce_group", Error: "unknown workforce group",
		})
	}
	return nil
}
