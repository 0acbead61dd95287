package member

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

var testNow = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeMemberRepo struct {
	byID map[string]Member
}

func (f *fakeMemberRepo) CheckEmailUniqueness(ctx context.Context, orgID, email string) error {
	for _, mem := range f.byID {
		if mem.OrgID == orgID && mem.Email == email {
			return ErrEmailExists
		}
	}
	return nil
}

func (f *fakeMemberRepo) CreateMember(ctx context.Context, mem Member) (Member, error) {
	if f.byID == nil {
		f.byID = make(map[string]Member)
	}
	f.byID[mem.ID] = mem
	return mem, nil
}

func (f *fakeMemberRepo) GetMemberByID(ctx context.Context, id string) (Member, error) {
	if mem, ok := f.byID[id]; ok {
		return mem, nil
	}
	return Member{}, ErrNotFound
}

func (f *fakeMemberRepo) GetMemberByEmail(ctx context.Context, email string) (Member, error) {
	for _, mem := range f.byID {
		if mem.Email == email {
			return mem, nil
		}
	}
	return Member{}, ErrNotFound
}

func (f *fakeMemberRepo) QueryMembersByOrg(ctx context.Context, orgID string) ([]Member, error) {
	members := make([]Member, 0)
	for _, mem := range f.byID {
		if mem.OrgID == orgID {
			members = append(members, mem)
		}
	}
	return members, nil
}

func (f *fakeMemberRepo) UpdateMember(ctx context.Context, mem Member, isActive *bool) (Member, error) {
	orig, ok := f.byID[mem.ID]
	if !ok {
		return Member{}, ErrNotFound
	}
	if mem.Name != "" {
		orig.Name = mem.Name
	}
	if mem.WorkforceGroups != nil {
		orig.WorkforceGroups = mem.WorkforceGroups
	}
	if isActive != nil {
		orig.IsActive = *isActive
	}
	if !mem.LastLogin.IsZero() {
		orig.LastLogin = mem.LastLogin
	}
	f.byID[mem.ID] = orig
	return orig, nil
}

func TestMember_passwords(t *testing.T) {
	var mem Member
	if err := mem.SetPassword("Str0ng&L0ng!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if len(mem.PasswordHash) == 0 {
		t.Fatal("PasswordHash is empty")
	}
	if err := mem.CheckPassword("Str0ng&L0ng!"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
	if err := mem.CheckPassword("lol"); err == nil {
		t.Error("CheckPassword() accepted the wrong password")
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	repo := &fakeMemberRepo{}
	svc := NewService(repo, core.FixedClock(testNow))

	nm := NewMember{
		OrgID:           "org1",
		Name:            "Jane Doe",
		Email:           "JANE@test.cd",
		WorkforceGroups: []catalog.WorkforceGroup{catalog.GroupClinical},
		Password:        "Str0ng&L0ng!",
		PasswordConfirm: "Str0ng&L0ng!",
	}
	if err := nm.Validate(svc); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	mem, err := svc.Create(ctx, nm)
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if mem.ID == "" {
		t.Error("ID is empty")
	}
	if mem.Email != "jane@test.cd" {
		t.Errorf("Email = %q, want the lowered %q", mem.Email, "jane@test.cd")
	}
	if !mem.IsActive {
		t.Error("IsActive = false, want true")
	}
	if !mem.CreatedAt.Equal(testNow) || !mem.UpdatedAt.Equal(testNow) {
		t.Errorf("timestamps = %v / %v, want %v", mem.CreatedAt, mem.UpdatedAt, testNow)
	}
	if err := mem.CheckPassword(nm.Password); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}

	t.Run("duplicate email in the same organization", func(t *testing.T) {
		dup := nm
		dup.Email = "JANE@test.cd"
		err := dup.Validate(svc)
		vErr, ok := errors.Cause(err).(*core.ValidationError)
		if !ok {
			t.Fatalf("Validate() error = %v, want a validation error", err)
		}
		if len(vErr.Fields) != 1 || vErr.Fields[0].Field != "email" {
			t.Errorf("fields = %+v, want an email error", vErr.Fields)
		}
	})

	t.Run("same email in another organization is fine", func(t *testing.T) {
		other := nm
		other.OrgID = "org2"
		if err := other.Validate(svc); err != nil {
			t.Errorf("Validate() failed: %v", err)
		}
	})
}

func TestService_SetLastLogin(t *testing.T) {
	ctx := context.Background()
	repo := &fakeMemberRepo{byID: map[string]Member{"mem1": {ID: "mem1", OrgID: "org1"}}}
	svc := NewService(repo, core.FixedClock(testNow))

	mem, err := svc.SetLastLogin(ctx, Member{ID: "mem1"})
	if err != nil {
		t.Fatalf("SetLastLogin() failed: %v", err)
	}
	if !mem.LastLogin.Equal(testNow) {
		t.Errorf("LastLogin = %v, want %v", mem.LastLogin, testNow)
	}
}
