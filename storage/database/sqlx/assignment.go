package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/veritrain/veritrain/core"
	"github.com/veritrain/veritrain/core/assignment"
	"github.com/veritrain/veritrain/core/catalog"
)

type assignmentRepository struct {
	exec core.DBExecutor
}

var _ assignment.Repository = (*assignmentRepository)(nil) // interface compliance check

func NewAssignmentRepository(exec core.DBExecutor) *assignmentRepository {
	return &assignmentRepository{exec: exec}
}

type assignmentRow struct {
	ID             string    `db:"id"`
	OrgID          string    `db:"org_id"`
	MemberID       string    `db:"member_id"`
	WorkforceGroup string    `db:"workforce_group"`
	DueDate        time.Time `db:"due_date"`
	Status         string    `db:"status"`
	Notes          string    `db:"notes"`
	CompletedAt    null.Time `db:"completed_at"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (repo assignmentRepository) row(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:             a.ID,
		OrgID:          a.OrgID,
		MemberID:       a.MemberID,
		WorkforceGroup: string(a.WorkforceGroup),
		DueDate:        a.DueDate.UTC(),
		Status:         string(a.Status),
		Notes:          a.Notes,
		CompletedAt:    null.TimeFromPtr(a.CompletedAt),
		CreatedAt:      a.CreatedAt.UTC(),
		UpdatedAt:      a.UpdatedAt.UTC(),
	}
}

func (repo assignmentRepository) unrow(row assignmentRow) assignment.Assignment {
	return assignment.Assignment{
		ID:             row.ID,
		OrgID:          row.OrgID,
		MemberID:       row.MemberID,
		WorkforceGroup: catalog.WorkforceGroup(row.WorkforceGroup),
		DueDate:        row.DueDate,
		Status:         assignment.Status(row.Status),
		Notes:          row.Notes,
		CompletedAt:    row.CompletedAt.Ptr(),
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func orderBy(ordering []core.DBOrdering, fallback string) string {
	if len(ordering) == 0 {
		return fallback
	}
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		clauses = append(clauses, ord.String())
	}
	return strings.Join(clauses, ", ")
}

func (repo assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	row := repo.row(a)
	_, err := repo.exec.NamedExecContext(ctx,
		`INSERT INTO training_assignment (id, org_id, member_id, workforce_group, due_date, status, notes, created_at, updated_at)
		 VALUES (:id, :org_id, :member_id, :workforce_group, :due_date, :status, :notes, :created_at, :updated_at)`, row)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	var row assignmentRow
	if err := repo.exec.GetContext(ctx, &row, `SELECT * FROM training_assignment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return assignment.Assignment{}, assignment.ErrNotFound
		}
		return assignment.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return repo.unrow(row), nil
}

func (repo assignmentRepository) QueryAssignmentsByMember(ctx context.Context, memberID string, ordering ...core.DBOrdering) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM training_assignment WHERE member_id = $1 ORDER BY `+orderBy(ordering, "due_date ASC"), memberID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by member")
	}
	return repo.unrowSlice(rows), nil
}

func (repo assignmentRepository) QueryAssignmentsByOrg(ctx context.Context, orgID string, ordering ...core.DBOrdering) ([]assignment.Assignment, error) {
	var rows []assignmentRow
	err := repo.exec.SelectContext(ctx, &rows,
		`SELECT * FROM training_assignment WHERE org_id = $1 ORDER BY `+orderBy(ordering, "due_date ASC"), orgID)
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments by org")
	}
	return repo.unrowSlice(rows), nil
}

func (repo assignmentRepository) unrowSlice(rows []assignmentRow) []assignment.Assignment {
	assignments := make([]assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, repo.unrow(row))
	}
	return assignments
}

func (repo assignmentRepository) UpdateAssignmentStatus(ctx context.Context, id string, status assignment.Status, completedAt *time.Time, updatedAt time.Time) (assignment.Assignment, error) {
	// the WHERE clause rejects backward transitions even under concurrent updates
	_, err := repo.exec.ExecContext(ctx,
		`UPDATE training_assignment
		 SET status = $2, completed_at = $3, updated_at = $4
		 WHERE id = $1
		   AND array_position(ARRAY['assigned','in_progress','completed'], status)
		     < array_position(ARRAY['assigned','in_progress','completed'], $2)`,
		id, string(status), null.TimeFromPtr(completedAt), updatedAt.UTC())
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment status")
	}
	// zero rows means either a missing assignment or a regression attempt; in
	// both cases the re-read tells the caller what actually stands.
	return repo.GetAssignment(ctx, id)
}
