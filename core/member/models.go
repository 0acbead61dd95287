package member

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

// Member is a workforce user scoped to one organization.
type Member struct {
	ID              string                   `json:"id"`
	OrgID           string                   `json:"org_id"`
	Name            string                   `json:"name"`
	Email           string                   `json:"email"`
	WorkforceGroups []catalog.WorkforceGroup `json:"workforce_groups"`
	IsAdmin         bool                     `json:"is_admin"`
	IsActive        bool                     `json:"is_active"`
	PasswordHash    []byte                   `json:"-"`
	CreatedAt       time.Time                `json:"created_at"` // UTC
	UpdatedAt       time.Time                `json:"updated_at"` // UTC
	LastLogin       time.Time                `json:"last_login"` // UTC
}

func (m *Member) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	m.PasswordHash = hash
	return nil
}

func (m *Member) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(m.PasswordHash, []byte(pwd))
}

// InGroup reports whether the member belongs to the given workforce group.
func (m *Member) InGroup(group catalog.WorkforceGroup) bool {
	for _, g := range m.WorkforceGroups {
		if g == group {
			return true
		}
	}
	return false
}

// NewMember contains information needed to create a new Member.
type NewMember struct {
	OrgID           string                   `json:"org_id" validate:"required"`
	Name            string                   `json:"name" validate:"required"`
	Email           string                   `json:"email" validate:"required,email"`
	WorkforceGroups []catalog.WorkforceGroup `json:"workforce_groups" validate:"omitempty,workforcegroups"`
	IsAdmin         bool                     `json:"is_admin"`
	Password        string                   `json:"password" validate:"required"`
	PasswordConfirm string                   `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (nm *NewMember) Validate(svc *Service) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)

	if err := core.Validate.Struct(nm); err != nil {
		return err
	}
	return svc.checkUniqueness(nm.OrgID, nm.Email)
}

// UpdateMember defines what information may be provided to modify an existing Member.
type UpdateMember struct {
	Name            string                   `json:"name"`
	WorkforceGroups []catalog.WorkforceGroup `json:"workforce_groups" validate:"omitempty,workforcegroups"`
	IsActive        *bool                    `json:"is_active"`
}

func (um *UpdateMember) Validate(orig Member) error {
	name := core.CleanString(um.Name)
	if name != "" {
		um.Name = name
	} else {
		um.Name = orig.Name
	}
	return core.Validate.Struct(um)
}
