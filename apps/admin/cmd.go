package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/veritrain/veritrain/core/catalog"
	"github.com/veritrain/veritrain/core/member"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db         *sqlx.DB
	memberRepo member.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [up|down|status|version] - apply database migrations")
	fmt.Println("  addmember -org ORG_ID -name NAME -email EMAIL [-groups GROUP,...] [-admin] - create or update a member")
	fmt.Println("  resetpassword -email EMAIL - reset a member's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addMemberCmd := flag.NewFlagSet("addmember", flag.ExitOnError)
	addMemberOrg := addMemberCmd.String("org", "", "The member's organization ID.")
	addMemberName := addMemberCmd.String("name", "", "The member's full name.")
	addMemberEmail := addMemberCmd.String("email", "", "The member's email. The password will be prompted next.")
	addMemberGroups := addMemberCmd.String("groups", "", "Comma-separated workforce groups.")
	addMemberAdmin := addMemberCmd.Bool("admin", false, "Grant admin rights.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The member's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addmember":
		if err := addMemberCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addMemberOrg == "" || *addMemberName == "" || *addMemberEmail == "" {
			addMemberCmd.Usage()
			return errHelp
		}
		groups, err := parseGroups(*addMemberGroups)
		if err != nil {
			return err
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addMemberCmd.Usage()
			return errHelp
		}
		return cli.addMember(*addMemberOrg, *addMemberName, *addMemberEmail, pwd, groups, *addMemberAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func parseGroups(s string) ([]catalog.WorkforceGroup, error) {
	if s == "" {
		return nil, nil
	}
	var groups []catalog.WorkforceGroup
	for _, part := range strings.Split(s, ",") {
		g := catalog.WorkforceGroup(strings.TrimSpace(part))
		if !g.Valid() {
			return nil, fmt.Errorf("unknown workforce group %q", g)
		}
		groups = append(groups, g)
	}
	return groups, nil
}
