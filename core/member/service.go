package member

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
)

var (
	ErrNotFound    = errors.New("member not found")
	ErrEmailExists = errors.New("a member with this email already exists in this organization")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, orgID, email string) error
		CreateMember(ctx context.Context, mem Member) (Member, error)
		GetMemberByID(ctx context.Context, id string) (Member, error)
		GetMemberByEmail(ctx context.Context, email string) (Member, error)
		QueryMembersByOrg(ctx context.Context, orgID string) ([]Member, error)
		UpdateMember(ctx context.Context, mem Member, isActive *bool) (Member, error)
	}

	Service struct {
		repo  Repository
		clock core.Clock
	}
)

func NewService(repo Repository, clock core.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (svc *Service) checkUniqueness(orgID, email string) error {
	if err := svc.repo.CheckEmailUniqueness(context.Background(), orgID, email); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nm NewMember) (Member, error) {
	now := svc.clock.Now().UTC()
	mem := Member{
		ID:              uuid.New().String(),
		OrgID:           nm.OrgID,
		Name:            nm.Name,
		Email:           nm.Email,
		WorkforceGroups: nm.WorkforceGroups,
		IsAdmin:         nm.IsAdmin,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := mem.SetPassword(nm.Password); err != nil {
		return Member{}, errors.Wrap(err, "setting password")
	}
	return svc.repo.CreateMember(ctx, mem)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Member, error) {
	return svc.repo.GetMemberByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (Member, error) {
	return svc.repo.GetMemberByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) QueryByOrg(ctx context.Context, orgID string) ([]Member, error) {
	return svc.repo.QueryMembersByOrg(ctx, orgID)
}

func (svc *Service) Update(ctx context.Context, id string, um UpdateMember) (Member, error) {
	mem := Member{
		ID:              id,
		Name:            um.Name,
		WorkforceGroups: um.WorkforceGroups,
		UpdatedAt:       svc.clock.Now().UTC(),
	}
	return svc.repo.UpdateMember(ctx, mem, um.IsActive)
}

func (svc *Service) SetLastLogin(ctx context.Context, mem Member) (Member, error) {
	mem.LastLogin = svc.clock.Now().UTC()
	return svc.repo.UpdateMember(ctx, mem, nil)
}
