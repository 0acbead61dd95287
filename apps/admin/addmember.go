package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/member"
)

// addMember updates or creates a member.Member
func (cli *commandLine) addMember(orgID, name, email, pwd string, groups []catalog.WorkforceGroup, isAdmin bool) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	now := time.Now().UTC()
	mem, err := cli.memberRepo.GetMemberByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != member.ErrNotFound {
			return err
		}
		mem = member.Member{
			ID:        uuid.New().String(),
			OrgID:     orgID,
			CreatedAt: now,
		}
	}
	mem.Name = name
	mem.Email = email
	mem.WorkforceGroups = groups
	mem.IsAdmin = isAdmin
	mem.IsActive = true
	mem.UpdatedAt = now
	if err := mem.SetPassword(pwd); err != nil {
		return err
	}

	if mem.CreatedAt.Equal(now) {
		_, err = cli.memberRepo.CreateMember(ctx, mem)
	} else {
		_, err = cli.memberRepo.UpdateMember(ctx, mem, nil)
	}
	return err
}
