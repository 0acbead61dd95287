package assignment

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/audit"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/member"
)

var ErrNotFound = errors.New("assignment not found")

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryAssignmentsByMember returns all of a member's assignments ordered
		// by due date.
		QueryAssignmentsByMember(ctx context.Context, memberID string, ordering ...core.DBOrdering) ([]Assignment, error)
		QueryAssignmentsByOrg(ctx context.Context, orgID string, ordering ...core.DBOrdering) ([]Assignment, error)
		// UpdateAssignmentStatus persists a forward transition; it must reject
		// regressions at the storage level as well.
		UpdateAssignmentStatus(ctx context.Context, id string, status Status, completedAt *time.Time, updatedAt time.Time) (Assignment, error)
	}

	// Service owns Assignment.Status and compliance classification.
	Service struct {
		repo       Repository
		catalogSvc *catalog.Service
		memberSvc  *member.Service
		audit      *audit.Service
		mailSvc    core.EmailService
		conf       *core.Config
		logger     core.Logger
		clock      core.Clock
	}
)

func NewService(
	repo Repository,
	catalogSvc *catalog.Service,
	memberSvc *member.Service,
	auditSvc *audit.Service,
	mailSvc core.EmailService,
	conf *core.Config,
	logger core.Logger,
	clock core.Clock,
) *Service {
	return &Service{
		repo:       repo,
		catalogSvc: catalogSvc,
		memberSvc:  memberSvc,
		audit:      auditSvc,
		mailSvc:    mailSvc,
		conf:       conf,
		logger:     logger,
		clock:      clock,
	}
}

// Create records a new obligation for a member. Assignments targeting a group
// with no released content are rejected outright.
func (svc *Service) Create(ctx context.Context, na NewAssignment) (Assignment, error) {
	if err := na.Validate(); err != nil {
		return Assignment{}, err
	}
	if na.DueDate.Before(svc.clock.Now()) {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{
			Field: "due_date", Error: "due date cannot be in the past",
		})
	}

	mem, err := svc.memberSvc.GetByID(ctx, na.MemberID)
	if err != nil {
		return Assignment{}, err
	}
	if mem.OrgID != na.OrgID {
		return Assignment{}, core.ErrPermissionDenied
	}

	hasContent, err := svc.catalogSvc.HasReleasedContent(ctx, na.WorkforceGroup)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "checking released content")
	}
	if !hasContent {
		return Assignment{}, core.NewValidationError(nil, core.FieldError{
			Field: "workforce_group", Error: "no released training content for this workforce group",
		})
	}

	now := svc.clock.Now().UTC()
	a := Assignment{
		ID:             uuid.New().String(),
		OrgID:          na.OrgID,
		MemberID:       na.MemberID,
		WorkforceGroup: na.WorkforceGroup,
		DueDate:        na.DueDate.UTC(),
		Status:         StatusAssigned,
		Notes:          na.Notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a, err = svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, errors.Wrap(err, "inserting assignment")
	}

	svc.audit.Record(ctx, audit.Event{
		OrgID:      a.OrgID,
		ActorID:    a.MemberID,
		Action:     audit.ActionAssignmentCreated,
		ObjectKind: "assignment",
		ObjectID:   a.ID,
		Detail: map[string]interface{}{
			"workforce_group": a.WorkforceGroup.String(),
			"due_date":        a.DueDate,
		},
	})

	// fire-and-forget; a notification failure never rolls back the assignment
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: mem.Name, Address: mem.Email}},
		Subject:      "New compliance training assigned",
		TemplateName: "assignment-created",
		TemplateData: struct {
			Name    string
			Group   string
			DueDate string
		}{mem.Name, a.WorkforceGroup.String(), a.DueDate.Format("Jan 2, 2006")},
	})

	return a, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Assignment, error) {
	return svc.repo.GetAssignment(ctx, id)
}

func (svc *Service) QueryByMember(ctx context.Context, memberID string, ordering ...core.DBOrdering) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByMember(ctx, memberID, ordering...)
}

func (svc *Service) QueryByOrg(ctx context.Context, orgID string, ordering ...core.DBOrdering) ([]Assignment, error) {
	return svc.repo.QueryAssignmentsByOrg(ctx, orgID, ordering...)
}

// HandleMaterialCompleted advances the member's matching active assignments
// after a material completion: the first completion moves assigned ->
// in_progress; reaching the full required-material count completes the
// assignment. Re-evaluated on every completion.
func (svc *Service) HandleMaterialCompleted(
	ctx context.Context,
	mem member.Member,
	mat catalog.Material,
	completedCount, requiredCount int,
) error {
	assignments, err := svc.repo.QueryAssignmentsByMember(ctx, mem.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}

	for _, a := range assignments {
		if !a.IsActive() {
			continue
		}
		if !mat.AppliesTo([]catalog.WorkforceGroup{a.WorkforceGroup}) {
			continue
		}

		if requiredCount > 0 && completedCount >= requiredCount {
			if err := svc.advance(ctx, a, StatusCompleted); err != nil {
				return err
			}
			continue
		}
		if a.Status == StatusAssigned {
			if err := svc.advance(ctx, a, StatusInProgress); err != nil {
				return err
			}
		}
	}
	return nil
}

// advance performs a forward status transition; regressions are a programming
// error and are refused.
func (svc *Service) advance(ctx context.Context, a Assignment, to Status) error {
	if !a.Status.CanAdvanceTo(to) {
		return nil
	}

	now := svc.clock.Now().UTC()
	var completedAt *time.Time
	if to == StatusCompleted {
		completedAt = &now
	}
	updated, err := svc.repo.UpdateAssignmentStatus(ctx, a.ID, to, completedAt, now)
	if err != nil {
		return errors.Wrapf(err, "advancing assignment %s to %s", a.ID, to)
	}

	svc.audit.Record(ctx, audit.Event{
		OrgID:      updated.OrgID,
		ActorID:    updated.MemberID,
		Action:     audit.ActionAssignmentAdvanced,
		ObjectKind: "assignment",
		ObjectID:   updated.ID,
		Detail: map[string]interface{}{
			"from": string(a.Status), "to": string(to),
		},
	})
	return nil
}

// ComplianceStatus classifies the member across all their assignments:
// non_compliant if any is overdue, else at_risk if any is due within 7 days and
// unfinished, else compliant. Members with no group or no assignments get the
// distinct no_data status.
func (svc *Service) ComplianceStatus(ctx context.Context, mem member.Member) (ComplianceStatus, error) {
	if len(mem.WorkforceGroups) == 0 {
		return ComplianceNoData, nil
	}

	assignments, err := svc.repo.QueryAssignmentsByMember(ctx, mem.ID)
	if err != nil {
		return "", errors.Wrap(err, "querying assignments")
	}
	if len(assignments) == 0 {
		return ComplianceNoData, nil
	}

	now := svc.clock.Now()
	status := ComplianceCompliant
	for _, a := range assignments {
		if a.IsOverdue(now) {
			return ComplianceNonCompliant, nil
		}
		if a.IsActive() && a.DueDate.Sub(now) <= atRiskWindow {
			status = ComplianceAtRisk
		}
	}
	return status, nil
}
