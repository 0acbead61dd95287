package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/member"
)

type memberRepository struct {
	exec core.DBExecutor
}

var _ member.Repository = (*memberRepository)(nil) // interface compliance check

func NewMemberRepository(exec core.DBExecutor) *memberRepository {
	return &memberRepository{exec: exec}
}

type memberRow struct {
	ID              string         `db:"id"`
	OrgID           string         `db:"org_id"`
	Name            string         `db:"name"`
	Email           string         `db:"email"`
	WorkforceGroups pq.StringArray `db:"workforce_groups"`
	IsAdmin         bool           `db:"is_admin"`
	IsActive        bool           `db:"is_active"`
	PasswordHash    null.Bytes     `db:"password_hash"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	LastLogin       null.Time      `db:"last_login"`
}

func (repo memberRepository) row(mem member.Member) memberRow {
	return memberRow{
		ID:              mem.ID,
		OrgID:           mem.OrgID,
		Name:            mem.Name,
		Email:           mem.Email,
		WorkforceGroups: groupsToStrings(mem.WorkforceGroups),
		IsAdmin:         mem.IsAdmin,
		IsActive:        mem.IsActive,
		PasswordHash:    null.NewBytes(mem.PasswordHash, len(mem.PasswordHash) > 0),
		CreatedAt:       mem.CreatedAt.UTC(),
		UpdatedAt:       mem.UpdatedAt.UTC(),
		LastLogin:       null.NewTime(mem.LastLogin.UTC(), !mem.LastLogin.IsZero()),
	}
}

func (repo memberRepository) unrow(row memberRow) member.Member {
	return member.Member{
		ID:              row.ID,
		OrgID:           row.OrgID,
		Name:            row.Name,
		Email:           row.Email,
		WorkforceGroups: stringsToGroups(row.WorkforceGroups),
		IsAdmin:         row.IsAdmin,
		IsActive:        row.IsActive,
		PasswordHash:    row.PasswordHash.Bytes,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
		LastLogin:       row.LastLogin.Time,
	}
}

// trapNoRowsErr maps psql "no rows" err to member.ErrNotFound
func (repo memberRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return member.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo memberRepository) CheckEmailUniqueness(ctx context.Context, orgID, email string) error {
	var exists bool
	err := repo.exec.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM "member" WHERE org_id = $1 AND lower(email) = lower($2))`, orgID, email)
	if err != nil {
		return errors.Wrap(err, "checking member email uniqueness")
	}
	if exists {
		return member.ErrEmailExists
	}
	return nil
}

func (repo memberRepository) CreateMember(ctx context.Context, mem member.Member) (member.Member, error) {
	row := repo.row(mem)
	_, err := repo.exec.NamedExecContext(ctx,
		`INSERT INTO "member" (id, org_id, name, email, workforce_groups, is_admin, is_active, password_hash, created_at, updated_at)
		 VALUES (:id, :org_id, :name, :email, :workforce_groups, :is_admin, :is_active, :password_hash, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return member.Member{}, member.ErrEmailExists
		}
		return member.Member{}, errors.Wrap(err, "inserting member")
	}
	return mem, nil
}

func (repo memberRepository) GetMemberByID(ctx context.Context, id string) (member.Member, error) {
	var row memberRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM "member" WHERE id = $1`, id); err != nil {
		return member.Member{}, repo.trapNoRowsErr(err, "getting member by id")
	}
	return repo.unrow(row), nil
}

func (repo memberRepository) GetMemberByEmail(ctx context.Context, email string) (member.Member, error) {
	var row memberRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM "member" WHERE lower(email) = lower($1)`, email); err != nil {
		return member.Member{}, repo.trapNoRowsErr(err, "getting member by email")
	}
	return repo.unrow(row), nil
}

func (repo memberRepository) QueryMembersByOrg(ctx context.Context, orgID string) ([]member.Member, error) {
	var rows []memberRow
	err := repo.exec.SelectContext(ctx, &rows, `SELECT * FROM "member" WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, errors.Wrap(err, "querying members by org")
	}
	members := make([]member.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, repo.unrow(row))
	}
	return members, nil
}

func (repo memberRepository) UpdateMember(ctx context.Context, mem member.Member, isActive *bool) (member.Member, error) {
	if isActive != nil {
		mem.IsActive = *isActive
	}
	row := repo.row(mem)
	res, err := repo.exec.NamedExecContext(ctx,
		`UPDATE "member"
		 SET name = :name, email = :email, workforce_groups = :workforce_groups, is_admin = :is_admin,
		     is_active = :is_active, password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		 WHERE id = :id`, row)
	if err != nil {
		if isUniqueViolation(err) {
			return member.Member{}, member.ErrEmailExists
		}
		return member.Member{}, errors.Wrap(err, "updating member")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return member.Member{}, member.ErrNotFound
	}
	return mem, nil
}
