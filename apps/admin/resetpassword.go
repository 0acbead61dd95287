package main

import (
	"context"
	"time"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	mem, err := cli.memberRepo.GetMemberByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := mem.SetPassword(pwd); err != nil {
		return err
	}
	mem.UpdatedAt = time.Now().UTC()
	if _, err := cli.memberRepo.UpdateMember(ctx, mem, nil); err != nil {
		return err
	}
	return nil
}
