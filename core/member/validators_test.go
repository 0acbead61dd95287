package member

import (
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()

	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		t.Fatalf("error = %v, want validator.ValidationErrors", err)
	}
	fields := make(map[string]string, len(vErrs))
	for _, vErr := range vErrs {
		fields[vErr.Field()] = vErr.Translate(core.Translator)
	}
	return fields
}

func TestNewMember_Validate_passwordPolicy(t *testing.T) {
	newMember := func(pwd string) NewMember {
		return NewMember{
			OrgID:           "org1",
			Name:            "Jane Doe",
			Email:           "jane@test.cd",
			Password:        pwd,
			PasswordConfirm: pwd,
		}
	}
	svc := NewService(&fakeMemberRepo{}, nil)

	tests := []struct {
		name    string
		nm      NewMember
		wantMsg string
	}{
		{name: "too short", nm: newMember("sh0rt!"),
			wantMsg: "password must contain at least 8 characters"},
		{name: "whitespace", nm: newMember("spaced 0ut pwd"),
			wantMsg: "password must not contain whitespace"},
		{name: "all numeric", nm: newMember("123456789"),
			wantMsg: "password cannot be entirely numeric"},
		{name: "similar to email", nm: newMember("jane@test.cd"),
			wantMsg: "password cannot be similar to member attributes"},
		{name: "mismatched confirmation", nm: NewMember{
			OrgID: "org1", Name: "Jane Doe", Email: "jane@test.cd",
			Password: "Str0ng&L0ng!", PasswordConfirm: "Str0ng&L0ng?",
		}},
		{name: "acceptable password", nm: newMember("Str0ng&L0ng!")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nm.Validate(svc)
			if tt.name == "acceptable password" {
				if err != nil {
					t.Fatalf("Validate() failed: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want an error")
			}
			if tt.wantMsg == "" {
				return
			}
			fields := fieldErrors(t, err)
			if fields["password"] != tt.wantMsg {
				t.Errorf("password error = %q, want %q", fields["password"], tt.wantMsg)
			}
		})
	}
}

func TestNewMember_Validate_groups(t *testing.T) {
	nm := NewMember{
		OrgID:           "org1",
		Name:            "Jane Doe",
		Email:           "jane@test.cd",
		WorkforceGroups: []catalog.WorkforceGroup{"lol"},
		Password:        "Str0ng&L0ng!",
		PasswordConfirm: "Str0ng&L0ng!",
	}
	svc := NewService(&fakeMemberRepo{}, nil)

	err := nm.Validate(svc)
	if err == nil {
		t.Fatal("Validate() = nil, want an error")
	}
	fields := fieldErrors(t, err)
	if !strings.Contains(fields["workforce_groups"], "invalid workforce groups") {
		t.Errorf("workforce_groups error = %q, want %q", fields["workforce_groups"], "invalid workforce groups")
	}
}
